package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/storage"
)

// mockProjectRepository is an in-memory ProjectRepository with injectable
// failures and a record of writes.
type mockProjectRepository struct {
	mu       sync.Mutex
	projects map[string]*models.Project
	nextID   int
	clock    time.Time

	createError  error
	getByIDError error
	updateError  error
	deleteError  error
	listError    error
	// updateFailures fails that many Update calls before succeeding.
	updateFailures int

	updates []updateCall
	deletes []string
}

type updateCall struct {
	id    string
	patch *models.ProjectPatch
}

func newMockRepo() *mockProjectRepository {
	return &mockProjectRepository{
		projects: make(map[string]*models.Project),
		clock:    time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	project.ID = fmt.Sprintf("remote-%d", m.nextID)
	project.CreatedAt = m.clock
	project.UpdatedAt = m.clock
	m.projects[project.ID] = project.Clone()
	return nil
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getByIDError != nil {
		return nil, m.getByIDError
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (m *mockProjectRepository) Update(ctx context.Context, id string, patch *models.ProjectPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, updateCall{id: id, patch: patch})
	if m.updateFailures > 0 {
		m.updateFailures--
		return fmt.Errorf("store unavailable")
	}
	if m.updateError != nil {
		return m.updateError
	}
	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, storage.ErrNotFound)
	}
	patch.Apply(p)
	return nil
}

func (m *mockProjectRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, id)
	if m.deleteError != nil {
		return m.deleteError
	}
	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, storage.ErrNotFound)
	}
	delete(m.projects, id)
	return nil
}

func (m *mockProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	projects := make([]*models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		projects = append(projects, p.Clone())
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (m *mockProjectRepository) stored(id string) *models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[id].Clone()
}

func (m *mockProjectRepository) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

func (m *mockProjectRepository) deleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deletes)
}

func testQueueConfig() QueueConfig {
	return QueueConfig{
		MaxAttempts:  3,
		Backoff:      Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1},
		WriteTimeout: time.Second,
	}
}

func newTestStore(t *testing.T, repo *mockProjectRepository) (*Store, *WriteQueue) {
	t.Helper()
	queue := NewWriteQueue(repo, testQueueConfig())
	return NewStore(repo, queue), queue
}

func drain(t *testing.T, q *WriteQueue) {
	t.Helper()
	if err := q.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}
