package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	JobRepository       *JobRepository
	ReferenceRepository *ReferenceRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool, store ObjectGetter) *Repositories {
	return &Repositories{
		JobRepository:       NewJobRepository(db),
		ReferenceRepository: NewReferenceRepository(store),
	}
}
