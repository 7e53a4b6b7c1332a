package repository

import (
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *mongo.Database
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetObservationRepository returns the observation repository instance
func (f *Factory) GetObservationRepository() ObservationRepository {
	return f.GetRepositories().Observation
}
