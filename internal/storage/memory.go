package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

// MemoryStorage keeps projects in process memory. Data does not survive a
// restart.
type MemoryStorage struct {
	repo     *memoryProjectRepo
	projects ProjectRepository
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	repo := &memoryProjectRepo{projects: make(map[string]*models.Project)}
	return &MemoryStorage{
		repo:     repo,
		projects: instrument(repo, DriverMemory),
	}
}

func (s *MemoryStorage) Open() error                    { return nil }
func (s *MemoryStorage) Close() error                   { return nil }
func (s *MemoryStorage) Migrate() error                 { return nil }
func (s *MemoryStorage) Ping(ctx context.Context) error { return nil }
func (s *MemoryStorage) Backend() string                { return DriverMemory }

// Projects returns the project repository.
func (s *MemoryStorage) Projects() ProjectRepository {
	return s.projects
}

type memoryProjectRepo struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
	seq      int64
}

func (r *memoryProjectRepo) Create(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// seq keeps creation order stable when two inserts share a clock tick.
	r.seq++
	now := time.Now().Add(time.Duration(r.seq))

	project.ID = uuid.New().String()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Roles == nil {
		project.Roles = []string{}
	}
	r.projects[project.ID] = project.Clone()
	return nil
}

func (r *memoryProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		//nolint:nilnil
		return nil, nil
	}
	return p.Clone(), nil
}

func (r *memoryProjectRepo) Update(ctx context.Context, id string, patch *models.ProjectPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("update project %s: %w", id, ErrNotFound)
	}
	patch.Apply(p)
	p.UpdatedAt = time.Now()
	return nil
}

func (r *memoryProjectRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return fmt.Errorf("delete project %s: %w", id, ErrNotFound)
	}
	delete(r.projects, id)
	return nil
}

func (r *memoryProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]*models.Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, p.Clone())
	}
	slices.SortFunc(projects, func(a, b *models.Project) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return projects, nil
}
