package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ManuelReschke/ObservationDesk/internal/pkg/utils"
)

const (
	// CollectionObservations is the MongoDB collection holding observation records.
	CollectionObservations = "observations"

	// AnonymousUserName is shown for records submitted without a user name.
	AnonymousUserName = "Anonymous"
)

// Observation is one submitted observation form.
type Observation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserName          string             `bson:"userName,omitempty" json:"userName,omitempty"`
	Date              *time.Time         `bson:"date,omitempty" json:"date,omitempty"`
	Name              string             `bson:"name,omitempty" json:"name,omitempty"`
	Observation       string             `bson:"observation,omitempty" json:"observation,omitempty"`
	Location          string             `bson:"location,omitempty" json:"location,omitempty"`
	Category          string             `bson:"category,omitempty" json:"category,omitempty"`
	ResponsiblePerson string             `bson:"responsiblePerson,omitempty" json:"responsiblePerson,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName returns the submitter name, falling back to AnonymousUserName.
func (o *Observation) DisplayName() string {
	if strings.TrimSpace(o.UserName) == "" {
		return AnonymousUserName
	}
	return o.UserName
}

// ObservationInput is the write payload for creating and updating observations.
// Nil fields are left untouched on update.
type ObservationInput struct {
	UserName          *string `json:"userName" validate:"omitempty,max=200"`
	Date              *string `json:"date" validate:"omitempty,observationdate"`
	Name              *string `json:"name" validate:"omitempty,max=2000"`
	Observation       *string `json:"observation" validate:"omitempty,max=2000"`
	Location          *string `json:"location" validate:"omitempty,max=2000"`
	Category          *string `json:"category" validate:"omitempty,max=2000"`
	ResponsiblePerson *string `json:"responsiblePerson" validate:"omitempty,max=2000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("observationdate", func(fl validator.FieldLevel) bool {
		_, ok := ParseObservationDate(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks the payload against its validation tags.
func (in *ObservationInput) Validate() error {
	return validate.Struct(in)
}

// ParseObservationDate accepts either a calendar date (YYYY-MM-DD, read as UTC
// midnight) or an RFC 3339 timestamp.
func ParseObservationDate(text string) (time.Time, bool) {
	if t, ok := utils.ParseDate(text); ok {
		return t, true
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// NewObservation builds a record from a validated payload. The caller assigns the ID.
func (in *ObservationInput) NewObservation(now time.Time) *Observation {
	now = now.UTC().Truncate(time.Millisecond)
	obs := &Observation{
		UserName:          deref(in.UserName),
		Name:              deref(in.Name),
		Observation:       deref(in.Observation),
		Location:          deref(in.Location),
		Category:          deref(in.Category),
		ResponsiblePerson: deref(in.ResponsiblePerson),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.Date != nil && *in.Date != "" {
		if d, ok := ParseObservationDate(*in.Date); ok {
			obs.Date = &d
		}
	}
	return obs
}

// UpdateFields returns the fields to change in a partial update. updatedAt is
// always refreshed. A nil value marks a field to remove.
func (in *ObservationInput) UpdateFields(now time.Time) bson.M {
	set := bson.M{"updatedAt": now.UTC().Truncate(time.Millisecond)}

	strFields := map[string]*string{
		"userName":          in.UserName,
		"name":              in.Name,
		"observation":       in.Observation,
		"location":          in.Location,
		"category":          in.Category,
		"responsiblePerson": in.ResponsiblePerson,
	}
	for key, val := range strFields {
		if val != nil {
			set[key] = *val
		}
	}

	// an empty date clears the stored one
	if in.Date != nil {
		if *in.Date == "" {
			set["date"] = nil
		} else if d, ok := ParseObservationDate(*in.Date); ok {
			set["date"] = d
		}
	}
	return set
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
