// Package roster holds the local project state, the roster grid
// operations, and the queue that mirrors local changes to the store.
package roster

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/metrics"
	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/storage"
)

// Store is the local authoritative copy of all projects. Reads are served
// from memory once the first list load succeeds; writes update memory
// immediately and reach the remote store through the WriteQueue.
type Store struct {
	repo  storage.ProjectRepository
	queue *WriteQueue
	now   func() time.Time

	mu       sync.RWMutex
	projects map[string]*models.Project
	loaded   bool
}

// NewStore creates a Store over repo.
func NewStore(repo storage.ProjectRepository, queue *WriteQueue) *Store {
	return &Store{
		repo:     repo,
		queue:    queue,
		now:      time.Now,
		projects: make(map[string]*models.Project),
	}
}

// Create validates and persists a new empty project. If the store rejects
// the insert the project is kept locally under a local-only id and no
// error is returned.
func (s *Store) Create(ctx context.Context, name string, startTime, endTime int) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if err := ValidateProject(name, startTime, endTime); err != nil {
		metrics.RosterOperationsTotal.WithLabelValues("create_project", "invalid").Inc()
		return nil, err
	}

	project := &models.Project{
		Name:          name,
		StartTime:     startTime,
		EndTime:       endTime,
		Roles:         []string{},
		VolunteerData: models.Grid{},
	}

	result := "ok"
	if err := s.repo.Create(ctx, project); err != nil {
		log.Error().Err(err).Str("name", name).Msg("create project failed, keeping local copy")
		result = "degraded"
		now := s.now()
		project.CreatedAt = now
		project.UpdatedAt = now
	}

	s.mu.Lock()
	if project.ID == "" || result == "degraded" {
		project.ID = s.mintLocalIDLocked()
	}
	s.projects[project.ID] = project
	s.updateGaugeLocked()
	s.mu.Unlock()

	metrics.RosterOperationsTotal.WithLabelValues("create_project", result).Inc()
	log.Info().Str("project_id", project.ID).Str("name", project.Name).Msg("project created")
	return project.Clone(), nil
}

// Load fetches every project from the store and merges it into local
// state. Projects with writes still queued keep their local version (or
// stay absent when the queued write is a delete), and local-only projects
// are kept.
func (s *Store) Load(ctx context.Context) error {
	remote, err := s.repo.List(ctx)
	if err != nil {
		metrics.RosterOperationsTotal.WithLabelValues("load_projects", "failed").Inc()
		log.Error().Err(err).Msg("load projects failed")
		return &PersistenceError{Op: "load projects", Err: err}
	}

	seen := make(map[string]bool, len(remote))
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range remote {
		seen[p.ID] = true
		if s.queue.HasPending(p.ID) {
			continue
		}
		s.projects[p.ID] = p
	}
	for id := range s.projects {
		if !seen[id] && !models.IsLocalID(id) && !s.queue.HasPending(id) {
			delete(s.projects, id)
		}
	}
	s.loaded = true
	s.updateGaugeLocked()

	metrics.RosterOperationsTotal.WithLabelValues("load_projects", "ok").Inc()
	return nil
}

// List returns all projects, newest first. A failed first load is logged
// and whatever is held locally is returned.
func (s *Store) List(ctx context.Context) []*models.Project {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if !loaded {
		// Load already logged the failure.
		_ = s.Load(ctx)
	}

	s.mu.RLock()
	projects := make([]*models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(projects, func(a, b *models.Project) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return projects
}

// Get is the direct lookup. It returns NotFoundError when the project does
// not exist and PersistenceError when the store cannot be asked.
func (s *Store) Get(ctx context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	p, ok := s.projects[id]
	s.mu.RUnlock()
	if ok {
		return p.Clone(), nil
	}
	if models.IsLocalID(id) || s.queue.HasPendingDelete(id) {
		return nil, &NotFoundError{ID: id}
	}

	remote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("project_id", id).Msg("get project failed")
		return nil, &PersistenceError{Op: "get project", Err: err}
	}
	if remote == nil {
		return nil, &NotFoundError{ID: id}
	}

	s.mu.Lock()
	if cached, ok := s.projects[id]; ok {
		remote = cached
	} else if s.queue.HasPendingDelete(id) {
		// Deleted while the lookup was out.
		s.mu.Unlock()
		return nil, &NotFoundError{ID: id}
	} else {
		s.projects[id] = remote
		s.updateGaugeLocked()
	}
	s.mu.Unlock()
	return remote.Clone(), nil
}

// Update merges patch into the project, refreshes UpdatedAt and queues the
// write. It always returns the merged project; an id unknown locally and
// remotely, or one being deleted, yields a project holding only the id and
// the patched fields.
func (s *Store) Update(ctx context.Context, id string, patch *models.ProjectPatch) *models.Project {
	s.mu.RLock()
	_, cached := s.projects[id]
	s.mu.RUnlock()
	if !cached && !models.IsLocalID(id) && !s.queue.HasPendingDelete(id) {
		// Pull it in so the merge starts from the stored fields.
		if _, err := s.Get(ctx, id); err != nil {
			log.Warn().Err(err).Str("project_id", id).Msg("update of uncached project")
		}
	}

	s.mu.Lock()
	p, ok := s.projects[id]
	if !ok {
		p = &models.Project{ID: id}
	}
	patch.Apply(p)
	p.UpdatedAt = s.now()
	merged := p.Clone()
	s.mu.Unlock()

	s.queue.EnqueueUpdate(id, patch)
	metrics.RosterOperationsTotal.WithLabelValues("update_project", "ok").Inc()
	return merged
}

// Delete removes the project locally and queues the remote delete. It
// always reports success.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	delete(s.projects, id)
	s.updateGaugeLocked()
	s.mu.Unlock()

	if models.IsLocalID(id) {
		log.Debug().Str("project_id", id).Msg("local-only project deleted")
	} else {
		s.queue.EnqueueDelete(id)
	}
	metrics.RosterOperationsTotal.WithLabelValues("delete_project", "ok").Inc()
	log.Info().Str("project_id", id).Msg("project deleted")
	return true
}

// VolunteerData returns the project's grid, degrading to an empty grid
// when it cannot be read.
func (s *Store) VolunteerData(ctx context.Context, id string) models.Grid {
	s.mu.RLock()
	p, ok := s.projects[id]
	var grid models.Grid
	if ok {
		grid = p.VolunteerData.Clone()
	}
	s.mu.RUnlock()

	if ok || models.IsLocalID(id) || s.queue.HasPendingDelete(id) {
		if grid == nil {
			grid = models.Grid{}
		}
		return grid
	}

	remote, err := s.repo.GetByID(ctx, id)
	if err != nil || remote == nil || remote.VolunteerData == nil {
		if err != nil {
			log.Warn().Err(err).Str("project_id", id).Msg("read volunteer data failed")
		}
		return models.Grid{}
	}
	return remote.VolunteerData
}

// SaveGrid writes grid to the store synchronously. Local-only projects
// succeed without a remote call.
func (s *Store) SaveGrid(ctx context.Context, id string, grid models.Grid) error {
	if models.IsLocalID(id) {
		return nil
	}
	if err := s.repo.Update(ctx, id, models.GridPatch(grid)); err != nil {
		log.Error().Err(err).Str("project_id", id).Msg("save roster failed")
		return &PersistenceError{Op: "save roster", Err: err}
	}
	return nil
}

// Loaded reports whether a list load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) mintLocalIDLocked() string {
	t := s.now()
	id := models.NewLocalID(t)
	for {
		if _, taken := s.projects[id]; !taken {
			return id
		}
		t = t.Add(time.Millisecond)
		id = models.NewLocalID(t)
	}
}

func (s *Store) updateGaugeLocked() {
	metrics.ProjectsCached.Set(float64(len(s.projects)))
}

// ValidateProject checks a project's name and hour window.
func ValidateProject(name string, startTime, endTime int) error {
	if strings.TrimSpace(name) == "" {
		return invalid(MsgProjectNameEmpty)
	}
	return ValidateWindow(startTime, endTime)
}

// ValidateWindow checks that both hours are in range and start < end.
func ValidateWindow(startTime, endTime int) error {
	if startTime < models.MinHour || startTime > models.MaxHour ||
		endTime < models.MinHour || endTime > models.MaxHour {
		return invalid(MsgHourOutOfRange)
	}
	if startTime >= endTime {
		return invalid(MsgInvalidWindow)
	}
	return nil
}
