package roster

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

func newTestSynchronizer(t *testing.T) (*Synchronizer, *Store, *WriteQueue, *mockProjectRepository) {
	t.Helper()
	repo := newMockRepo()
	store, queue := newTestStore(t, repo)
	return NewSynchronizer(store), store, queue, repo
}

func TestSynchronizer_PicnicScenario(t *testing.T) {
	syncer, store, queue, repo := newTestSynchronizer(t)
	ctx := context.Background()

	p, err := store.Create(ctx, "Picnic", 9, 11)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	r, err := syncer.InitializeGrid(ctx, p.ID)
	if err != nil {
		t.Fatalf("InitializeGrid: %v", err)
	}
	if !reflect.DeepEqual(r.Slots, []string{"09:00", "10:00"}) {
		t.Errorf("Slots = %v, want [09:00 10:00]", r.Slots)
	}

	r, err = syncer.AddRole(ctx, p.ID, "Cook")
	if err != nil {
		t.Fatalf("AddRole: %v", err)
	}
	want := models.Grid{
		"09:00": {"Cook": models.Unassigned()},
		"10:00": {"Cook": models.Unassigned()},
	}
	if !reflect.DeepEqual(r.Grid, want) {
		t.Errorf("grid after AddRole = %v, want %v", r.Grid, want)
	}

	r, err = syncer.Assign(ctx, p.ID, "10:00", "Cook", "Alice")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if name, ok := r.Grid.Get("10:00", "Cook").Volunteer(); !ok || name != "Alice" {
		t.Errorf("10:00/Cook = %q, want Alice", name)
	}

	r, err = syncer.RemoveRole(ctx, p.ID, "Cook")
	if err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	want = models.Grid{"09:00": {}, "10:00": {}}
	if !reflect.DeepEqual(r.Grid, want) {
		t.Errorf("grid after RemoveRole = %v, want %v", r.Grid, want)
	}
	if len(r.Roles) != 0 {
		t.Errorf("Roles = %v, want empty", r.Roles)
	}

	drain(t, queue)
	stored := repo.stored(p.ID)
	if !reflect.DeepEqual(stored.VolunteerData, want) {
		t.Errorf("stored grid = %v, want %v", stored.VolunteerData, want)
	}
	if len(stored.Roles) != 0 {
		t.Errorf("stored roles = %v, want empty", stored.Roles)
	}
}

func TestSynchronizer_AddRoleValidation(t *testing.T) {
	syncer, store, _, _ := newTestSynchronizer(t)
	ctx := context.Background()

	p, _ := store.Create(ctx, "Fair", 9, 12)
	if _, err := syncer.AddRole(ctx, p.ID, "Greeter"); err != nil {
		t.Fatalf("AddRole: %v", err)
	}

	tests := []struct {
		name    string
		role    string
		wantMsg string
	}{
		{"empty", "", MsgRoleNameEmpty},
		{"whitespace", "  ", MsgRoleNameEmpty},
		{"duplicate", "Greeter", MsgRoleExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := syncer.AddRole(ctx, p.ID, tt.role)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Message != tt.wantMsg {
				t.Errorf("AddRole(%q) = %v, want %q", tt.role, err, tt.wantMsg)
			}
			got, _ := store.Get(ctx, p.ID)
			if len(got.Roles) != 1 {
				t.Errorf("Roles = %v, want unchanged", got.Roles)
			}
		})
	}

	// Role names are case and whitespace sensitive.
	if _, err := syncer.AddRole(ctx, p.ID, "greeter"); err != nil {
		t.Errorf("AddRole(greeter) = %v, want success", err)
	}
	if _, err := syncer.AddRole(ctx, p.ID, " Greeter "); err != nil {
		t.Errorf("AddRole(\" Greeter \") = %v, want success", err)
	}
}

func TestSynchronizer_RemoveRoleUndoesPaddedAdd(t *testing.T) {
	syncer, store, _, _ := newTestSynchronizer(t)
	ctx := context.Background()

	p, _ := store.Create(ctx, "Fair", 9, 11)
	if _, err := syncer.AddRole(ctx, p.ID, " Cook "); err != nil {
		t.Fatalf("AddRole: %v", err)
	}
	got, _ := store.Get(ctx, p.ID)
	if !got.HasRole(" Cook ") {
		t.Fatalf("Roles = %q, want the name as given", got.Roles)
	}
	if _, err := syncer.Assign(ctx, p.ID, "09:00", " Cook ", "Alice"); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	r, err := syncer.RemoveRole(ctx, p.ID, " Cook ")
	if err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	if len(r.Roles) != 0 {
		t.Errorf("Roles = %q, want empty", r.Roles)
	}
	if want := (models.Grid{"09:00": {}, "10:00": {}}); !reflect.DeepEqual(r.Grid, want) {
		t.Errorf("grid = %v, want %v", r.Grid, want)
	}
}

func TestSynchronizer_AddRoleFillsEverySlot(t *testing.T) {
	syncer, store, _, _ := newTestSynchronizer(t)
	ctx := context.Background()

	p, _ := store.Create(ctx, "Fair", 14, 16)
	r, err := syncer.AddRole(ctx, p.ID, "Greeter")
	if err != nil {
		t.Fatalf("AddRole: %v", err)
	}
	for _, slot := range []string{"14:00", "15:00"} {
		a, ok := r.Grid[slot]["Greeter"]
		if !ok || a.IsAssigned() {
			t.Errorf("slot %s Greeter = (%v, %v), want unassigned entry", slot, a, ok)
		}
	}
}

func TestSynchronizer_RemoveRoleLeavesOtherSlots(t *testing.T) {
	syncer, store, _, _ := newTestSynchronizer(t)
	ctx := context.Background()

	p, _ := store.Create(ctx, "Fair", 9, 11)
	// A stale grid where only one slot carries the role.
	grid := models.Grid{
		"09:00": {"Cook": models.Assigned("Alice"), "Host": models.Unassigned()},
		"10:00": {"Host": models.Assigned("Bob")},
	}
	patch := models.RolesPatch([]string{"Cook", "Host"})
	patch.Merge(models.GridPatch(grid))
	store.Update(ctx, p.ID, patch)

	r, err := syncer.RemoveRole(ctx, p.ID, "Cook")
	if err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	want := models.Grid{
		"09:00": {"Host": models.Unassigned()},
		"10:00": {"Host": models.Assigned("Bob")},
	}
	if !reflect.DeepEqual(r.Grid, want) {
		t.Errorf("grid = %v, want %v", r.Grid, want)
	}

	r, err = syncer.RemoveRole(ctx, p.ID, "Cook")
	if err != nil {
		t.Fatalf("second RemoveRole: %v", err)
	}
	if !reflect.DeepEqual(r.Grid, want) {
		t.Errorf("second RemoveRole changed grid: %v", r.Grid)
	}
}

func TestSynchronizer_AssignThenClear(t *testing.T) {
	syncer, store, _, _ := newTestSynchronizer(t)
	ctx := context.Background()

	p, _ := store.Create(ctx, "Fair", 9, 11)
	before, _ := syncer.AddRole(ctx, p.ID, "Cook")

	if _, err := syncer.Assign(ctx, p.ID, "09:00", "Cook", "  Alice "); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	got, _ := store.Get(ctx, p.ID)
	if got.VolunteerData.Get("09:00", "Cook") != models.Assigned("  Alice ") {
		t.Errorf("cell = %v, want the name as given", got.VolunteerData.Get("09:00", "Cook"))
	}

	after, err := syncer.Clear(ctx, p.ID, "09:00", "Cook")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !reflect.DeepEqual(after.Grid, before.Grid) {
		t.Errorf("assign+clear = %v, want %v", after.Grid, before.Grid)
	}
}

func TestSynchronizer_CellValidation(t *testing.T) {
	syncer, store, _, _ := newTestSynchronizer(t)
	ctx := context.Background()

	p, _ := store.Create(ctx, "Fair", 9, 11)
	syncer.AddRole(ctx, p.ID, "Cook")

	tests := []struct {
		name      string
		slot      string
		role      string
		volunteer string
		wantMsg   string
	}{
		{"empty volunteer", "09:00", "Cook", "", MsgVolunteerEmpty},
		{"blank volunteer", "09:00", "Cook", "   ", MsgVolunteerEmpty},
		{"slot outside window", "11:00", "Cook", "Alice", MsgUnknownSlot},
		{"unknown role", "09:00", "Juggler", "Alice", MsgUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := syncer.Assign(ctx, p.ID, tt.slot, tt.role, tt.volunteer)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Message != tt.wantMsg {
				t.Errorf("Assign = %v, want %q", err, tt.wantMsg)
			}
		})
	}

	if _, err := syncer.Clear(ctx, p.ID, "08:00", "Cook"); err == nil {
		t.Error("Clear outside window should fail")
	}
}

func TestSynchronizer_InitializeGridAdoptsStoredData(t *testing.T) {
	syncer, store, _, repo := newTestSynchronizer(t)
	ctx := context.Background()

	// Stale: the window shrank and a role was renamed since the grid was written.
	stale := models.Grid{
		"08:00": {"Old": models.Assigned("Zed")},
		"09:00": {"Cook": models.Unassigned()},
	}
	repo.projects["remote-7"] = &models.Project{
		ID: "remote-7", Name: "Fair", StartTime: 9, EndTime: 10,
		Roles: []string{"Cook"}, VolunteerData: stale,
	}

	r, err := syncer.InitializeGrid(ctx, "remote-7")
	if err != nil {
		t.Fatalf("InitializeGrid: %v", err)
	}
	if !reflect.DeepEqual(r.Grid, stale) {
		t.Errorf("grid = %v, want stored grid verbatim", r.Grid)
	}
	if repo.updateCount() != 0 {
		t.Error("adopting a stored grid should not write")
	}
	if _, err := store.Get(ctx, "remote-7"); err != nil {
		t.Errorf("project not cached: %v", err)
	}
}

func TestSynchronizer_InitializeGridSynthesizes(t *testing.T) {
	syncer, _, queue, repo := newTestSynchronizer(t)
	ctx := context.Background()

	repo.projects["remote-8"] = &models.Project{
		ID: "remote-8", Name: "Legacy", StartTime: 9, EndTime: 11, Roles: []string{"Cook", "Host"},
	}

	r, err := syncer.InitializeGrid(ctx, "remote-8")
	if err != nil {
		t.Fatalf("InitializeGrid: %v", err)
	}
	want := models.NewGrid([]string{"09:00", "10:00"}, []string{"Cook", "Host"})
	if !reflect.DeepEqual(r.Grid, want) {
		t.Errorf("grid = %v, want %v", r.Grid, want)
	}

	drain(t, queue)
	if got := repo.stored("remote-8").VolunteerData; !reflect.DeepEqual(got, want) {
		t.Errorf("stored grid = %v, want %v", got, want)
	}
}

func TestSynchronizer_InitializeGridNotFound(t *testing.T) {
	syncer, _, _, _ := newTestSynchronizer(t)

	_, err := syncer.InitializeGrid(context.Background(), "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("InitializeGrid = %v, want NotFoundError", err)
	}
}

func TestSynchronizer_SaveAll(t *testing.T) {
	syncer, store, _, repo := newTestSynchronizer(t)
	ctx := context.Background()

	p, _ := store.Create(ctx, "Fair", 9, 10)
	syncer.AddRole(ctx, p.ID, "Cook")
	syncer.Assign(ctx, p.ID, "09:00", "Cook", "Alice")

	if err := syncer.SaveAll(ctx, p.ID); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if repo.stored(p.ID).VolunteerData.Get("09:00", "Cook") != models.Assigned("Alice") {
		t.Error("SaveAll did not write the grid")
	}

	repo.updateError = fmt.Errorf("store unavailable")
	err := syncer.SaveAll(ctx, p.ID)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("SaveAll = %v, want PersistenceError", err)
	}

	got, _ := store.Get(ctx, p.ID)
	if got.VolunteerData.Get("09:00", "Cook") != models.Assigned("Alice") {
		t.Error("failed save changed local state")
	}
}

func TestSynchronizer_SaveAllLocalProject(t *testing.T) {
	syncer, store, _, repo := newTestSynchronizer(t)
	ctx := context.Background()

	repo.createError = fmt.Errorf("offline")
	p, _ := store.Create(ctx, "Offline", 9, 10)

	if err := syncer.SaveAll(ctx, p.ID); err != nil {
		t.Errorf("SaveAll local project = %v, want nil", err)
	}
	if repo.updateCount() != 0 {
		t.Error("local project reached the store")
	}
}
