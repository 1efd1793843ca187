// Package storage provides the project document store and its backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

// ErrNotFound is returned by Update and Delete when the project does not
// exist.
var ErrNotFound = errors.New("project not found")

// Storage is the main interface for the project document store.
type Storage interface {
	// Open initializes the connection.
	Open() error
	// Close releases the connection.
	Close() error
	// Migrate prepares tables, collections and indexes.
	Migrate() error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Backend names the driver for logs and metrics.
	Backend() string

	Projects() ProjectRepository
}

// ProjectRepository is the "projects" collection.
type ProjectRepository interface {
	// Create assigns the id and both timestamps on project and stores it.
	Create(ctx context.Context, project *models.Project) error
	// GetByID returns nil, nil when the project does not exist.
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// Update merges patch into the stored project and refreshes updated_at.
	Update(ctx context.Context, id string, patch *models.ProjectPatch) error
	Delete(ctx context.Context, id string) error
	// List returns every project, newest first.
	List(ctx context.Context) ([]*models.Project, error)
}

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver          string
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	Timeout         time.Duration
}

// New returns an unopened Storage for cfg.Driver. Every repository it hands
// out records query metrics.
func New(cfg Config) (Storage, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return NewSQLiteStorage(cfg.SQLitePath), nil
	case DriverMongo:
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.Timeout), nil
	case DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// readTime converts a stored timestamp, defaulting absent values to now.
func readTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// normalize fills the fields a stored document may omit.
func normalize(p *models.Project) *models.Project {
	if p.Roles == nil {
		p.Roles = []string{}
	}
	p.CreatedAt = readTime(p.CreatedAt)
	p.UpdatedAt = readTime(p.UpdatedAt)
	return p
}
