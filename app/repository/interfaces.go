package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ManuelReschke/ObservationDesk/app/models"
)

// ErrObservationNotFound is returned when no record has the requested identity.
var ErrObservationNotFound = errors.New("observation not found")

// ObservationRepository defines the data-access operations on observation records.
// Filters and pipelines are MongoDB documents so the dashboard builder can hand its
// queries straight to the collaborator.
type ObservationRepository interface {
	Create(ctx context.Context, obs *models.Observation) error
	GetByID(ctx context.Context, id string) (*models.Observation, error)
	Update(ctx context.Context, id string, set bson.M) (*models.Observation, error)
	Delete(ctx context.Context, id string) (*models.Observation, error)
	Search(ctx context.Context, query string) ([]models.Observation, error)

	FindNewest(ctx context.Context, filter bson.D, limit int64) ([]models.Observation, error)
	Count(ctx context.Context, filter bson.D) (int64, error)
	Aggregate(ctx context.Context, pipeline mongo.Pipeline, results interface{}) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Observation ObservationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Observation: NewObservationRepository(db.Collection(models.CollectionObservations)),
	}
}
