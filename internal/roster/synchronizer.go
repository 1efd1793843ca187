package roster

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/metrics"
	"github.com/good-yellow-bee/rostergrid/internal/models"
)

// Roster is the materialized grid of one project.
type Roster struct {
	Project *models.Project `json:"project"`
	Slots   []string        `json:"slots"`
	Roles   []string        `json:"roles"`
	Grid    models.Grid     `json:"grid"`
}

func newRoster(p *models.Project, grid models.Grid) *Roster {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return &Roster{
		Project: p,
		Slots:   p.TimeSlots(),
		Roles:   roles,
		Grid:    grid,
	}
}

// Synchronizer applies roster edits to projects held by a Store. Each edit
// updates local state first and queues the write; only SaveAll waits for
// the store.
type Synchronizer struct {
	store *Store

	// mu serializes read-modify-write cycles on grids.
	mu sync.Mutex
}

// NewSynchronizer creates a Synchronizer over store.
func NewSynchronizer(store *Store) *Synchronizer {
	return &Synchronizer{store: store}
}

// InitializeGrid computes the project's slots and returns its grid. A
// stored grid is adopted as is; a project without one gets a fully
// unassigned grid, which is queued for persistence.
func (s *Synchronizer) InitializeGrid(ctx context.Context, projectID string) (*Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.VolunteerData != nil {
		return newRoster(p, p.VolunteerData), nil
	}

	grid := models.NewGrid(p.TimeSlots(), p.Roles)
	p = s.store.Update(ctx, projectID, models.GridPatch(grid))
	log.Debug().Str("project_id", projectID).Int("slots", len(grid)).Msg("roster grid initialized")
	return newRoster(p, p.VolunteerData), nil
}

// AddRole appends a role and gives it an unassigned cell in every slot.
// Role names are stored as given and compared exactly.
func (s *Synchronizer) AddRole(ctx context.Context, projectID, name string) (*Roster, error) {
	if strings.TrimSpace(name) == "" {
		return nil, s.reject("add_role", MsgRoleNameEmpty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.HasRole(name) {
		return nil, s.reject("add_role", MsgRoleExists)
	}

	roles := append(slices.Clone(p.Roles), name)
	s.store.Update(ctx, projectID, models.RolesPatch(roles))

	grid := p.VolunteerData
	grid.AddRole(p.TimeSlots(), name)
	p = s.store.Update(ctx, projectID, models.GridPatch(grid))

	metrics.RosterOperationsTotal.WithLabelValues("add_role", "ok").Inc()
	log.Info().Str("project_id", projectID).Str("role", name).Msg("role added")
	return newRoster(p, p.VolunteerData), nil
}

// RemoveRole drops a role and its cell from every slot. Removing a role
// that is not present changes nothing but is not an error.
func (s *Synchronizer) RemoveRole(ctx context.Context, projectID, name string) (*Roster, error) {
	if strings.TrimSpace(name) == "" {
		return nil, s.reject("remove_role", MsgRoleNameEmpty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	roles := slices.DeleteFunc(slices.Clone(p.Roles), func(r string) bool { return r == name })
	s.store.Update(ctx, projectID, models.RolesPatch(roles))

	grid := p.VolunteerData
	grid.RemoveRole(name)
	p = s.store.Update(ctx, projectID, models.GridPatch(grid))

	metrics.RosterOperationsTotal.WithLabelValues("remove_role", "ok").Inc()
	log.Info().Str("project_id", projectID).Str("role", name).Msg("role removed")
	return newRoster(p, p.VolunteerData), nil
}

// Assign puts a volunteer in a slot/role cell. The name is stored as given.
func (s *Synchronizer) Assign(ctx context.Context, projectID, slot, role, volunteer string) (*Roster, error) {
	if strings.TrimSpace(volunteer) == "" {
		return nil, s.reject("assign", MsgVolunteerEmpty)
	}
	return s.setCell(ctx, "assign", projectID, slot, role, models.Assigned(volunteer))
}

// Clear empties a slot/role cell.
func (s *Synchronizer) Clear(ctx context.Context, projectID, slot, role string) (*Roster, error) {
	return s.setCell(ctx, "clear", projectID, slot, role, models.Unassigned())
}

func (s *Synchronizer) setCell(ctx context.Context, op, projectID, slot, role string, a models.Assignment) (*Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(p.TimeSlots(), slot) {
		return nil, s.reject(op, MsgUnknownSlot)
	}
	if !p.HasRole(role) {
		return nil, s.reject(op, MsgUnknownRole)
	}

	grid := p.VolunteerData
	grid.Set(slot, role, a)
	p = s.store.Update(ctx, projectID, models.GridPatch(grid))

	metrics.RosterOperationsTotal.WithLabelValues(op, "ok").Inc()
	log.Info().Str("project_id", projectID).Str("slot", slot).Str("role", role).
		Bool("assigned", a.IsAssigned()).Msg("roster cell updated")
	return newRoster(p, p.VolunteerData), nil
}

// SaveAll writes the project's whole grid to the store and reports the
// outcome.
func (s *Synchronizer) SaveAll(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.store.SaveGrid(ctx, projectID, p.VolunteerData); err != nil {
		metrics.RosterOperationsTotal.WithLabelValues("save_all", "failed").Inc()
		return err
	}
	metrics.RosterOperationsTotal.WithLabelValues("save_all", "ok").Inc()
	log.Info().Str("project_id", projectID).Int("filled", p.VolunteerData.Filled()).Msg("roster saved")
	return nil
}

// load fetches a project copy whose grid is never nil.
func (s *Synchronizer) load(ctx context.Context, projectID string) (*models.Project, error) {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.VolunteerData == nil {
		p.VolunteerData = models.NewGrid(p.TimeSlots(), p.Roles)
	}
	return p, nil
}

func (s *Synchronizer) reject(op, msg string) error {
	metrics.RosterOperationsTotal.WithLabelValues(op, "invalid").Inc()
	return invalid(msg)
}
