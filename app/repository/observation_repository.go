package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ManuelReschke/ObservationDesk/app/models"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/utils"
)

// searchFields are matched case-insensitively by Search.
var searchFields = []string{"name", "observation", "location", "category", "responsiblePerson"}

// collection is the subset of *mongo.Collection the repository needs.
type collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	FindOneAndDelete(ctx context.Context, filter interface{}, opts ...*options.FindOneAndDeleteOptions) *mongo.SingleResult
}

// observationRepository implements the ObservationRepository interface
type observationRepository struct {
	coll collection
}

// NewObservationRepository creates a new observation repository instance
func NewObservationRepository(coll collection) ObservationRepository {
	return &observationRepository{coll: coll}
}

// Create assigns a fresh ObjectID and inserts the record
func (r *observationRepository) Create(ctx context.Context, obs *models.Observation) error {
	if obs.ID.IsZero() {
		obs.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, obs); err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its hex ObjectID
func (r *observationRepository) GetByID(ctx context.Context, id string) (*models.Observation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrObservationNotFound
	}
	return decodeOne(r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}), "find")
}

// Update applies set to the record and returns it as stored after the update.
// Keys with a nil value are removed from the record.
func (r *observationRepository) Update(ctx context.Context, id string, set bson.M) (*models.Observation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrObservationNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, UpdateDocument(set), opts)
	return decodeOne(res, "update")
}

// UpdateDocument splits set into $set and $unset operators.
func UpdateDocument(set bson.M) bson.D {
	fields := bson.M{}
	unset := bson.M{}
	for key, val := range set {
		if val == nil {
			unset[key] = ""
			continue
		}
		fields[key] = val
	}

	update := bson.D{}
	if len(fields) > 0 {
		update = append(update, bson.E{Key: "$set", Value: fields})
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}

// Delete removes the record and returns what was deleted
func (r *observationRepository) Delete(ctx context.Context, id string) (*models.Observation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrObservationNotFound
	}
	return decodeOne(r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}), "delete")
}

// Search lists records matching query in any text field, newest observation date first
func (r *observationRepository) Search(ctx context.Context, query string) ([]models.Observation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, SearchFilter(query), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search observations: %w", err)
	}
	return decodeAll(ctx, cur)
}

// FindNewest returns up to limit records matching filter, most recently created first
func (r *observationRepository) FindNewest(ctx context.Context, filter bson.D, limit int64) ([]models.Observation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find observations: %w", err)
	}
	return decodeAll(ctx, cur)
}

// Count returns the number of records matching filter
func (r *observationRepository) Count(ctx context.Context, filter bson.D) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}

// Aggregate runs pipeline and decodes every result document into results
func (r *observationRepository) Aggregate(ctx context.Context, pipeline mongo.Pipeline, results interface{}) error {
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to aggregate observations: %w", err)
	}
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("failed to decode aggregation: %w", err)
	}
	return nil
}

// SearchFilter builds the OR filter over all text fields. An empty query matches all records.
func SearchFilter(query string) bson.D {
	pattern := utils.SearchPattern(query)
	if pattern == "" {
		return bson.D{}
	}
	clauses := make(bson.A, 0, len(searchFields))
	for _, field := range searchFields {
		clauses = append(clauses, bson.D{{Key: field, Value: primitive.Regex{Pattern: pattern, Options: "i"}}})
	}
	return bson.D{{Key: "$or", Value: clauses}}
}

func decodeOne(res *mongo.SingleResult, op string) (*models.Observation, error) {
	var obs models.Observation
	if err := res.Decode(&obs); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrObservationNotFound
		}
		return nil, fmt.Errorf("failed to %s observation: %w", op, err)
	}
	return &obs, nil
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]models.Observation, error) {
	observations := make([]models.Observation, 0)
	if err := cur.All(ctx, &observations); err != nil {
		return nil, fmt.Errorf("failed to decode observations: %w", err)
	}
	return observations, nil
}
