package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "rostergrid-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	store := NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestSQLiteStorage_OpenClose(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if store.db == nil {
		t.Fatal("database should be open")
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if store.Backend() != DriverSQLite {
		t.Errorf("Backend = %q, want %q", store.Backend(), DriverSQLite)
	}
}

func TestSQLiteStorage_MigrateIdempotent(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	for _, table := range []string{"projects", "schema_migrations"} {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}

	var applied int
	store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied)
	if applied != len(migrations) {
		t.Errorf("applied migrations = %d, want %d", applied, len(migrations))
	}
}

func TestSQLiteStorage_OpenRequiresPath(t *testing.T) {
	if err := NewSQLiteStorage("").Open(); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestProjectRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := store.Projects()

	project := &models.Project{
		Name:          "Picnic",
		StartTime:     9,
		EndTime:       11,
		Roles:         []string{},
		VolunteerData: models.Grid{},
	}
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if project.ID == "" {
		t.Fatal("Create did not assign an id")
	}
	if project.CreatedAt.IsZero() || project.UpdatedAt.IsZero() {
		t.Error("Create did not assign timestamps")
	}

	got, err := repo.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil")
	}
	if got.Name != "Picnic" || got.StartTime != 9 || got.EndTime != 11 {
		t.Errorf("got %+v", got)
	}
	if got.VolunteerData == nil {
		t.Error("empty grid should read back as present")
	}

	grid := models.Grid{"09:00": {"Cook": models.Unassigned()}, "10:00": {"Cook": models.Assigned("Alice")}}
	patch := models.RolesPatch([]string{"Cook"})
	patch.Merge(models.GridPatch(grid))
	if err := repo.Update(ctx, project.ID, patch); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ = repo.GetByID(ctx, project.ID)
	if !reflect.DeepEqual(got.Roles, []string{"Cook"}) {
		t.Errorf("Roles = %v, want [Cook]", got.Roles)
	}
	if !reflect.DeepEqual(got.VolunteerData, grid) {
		t.Errorf("VolunteerData = %v, want %v", got.VolunteerData, grid)
	}
	if got.Name != "Picnic" {
		t.Errorf("partial update changed Name to %q", got.Name)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("UpdatedAt should not precede CreatedAt")
	}

	if err := repo.Delete(ctx, project.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = repo.GetByID(ctx, project.ID)
	if err != nil || got != nil {
		t.Errorf("GetByID after delete = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestProjectRepository_NotFound(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := store.Projects()

	if err := repo.Update(ctx, "missing", models.RolesPatch(nil)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing = %v, want ErrNotFound", err)
	}
}

func TestProjectRepository_ListNewestFirst(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := store.Projects()

	for _, name := range []string{"first", "second", "third"} {
		if err := repo.Create(ctx, &models.Project{Name: name, StartTime: 9, EndTime: 17}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	projects, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("len = %d, want 3", len(projects))
	}
	want := []string{"third", "second", "first"}
	for i, p := range projects {
		if p.Name != want[i] {
			t.Errorf("projects[%d] = %q, want %q", i, p.Name, want[i])
		}
		if p.Roles == nil {
			t.Errorf("projects[%d] roles should be non-nil", i)
		}
	}
}

func TestProjectRepository_MissingGridAndTimestamps(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, start_time, end_time) VALUES ('legacy', 'Legacy', 8, 10)`)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	before := time.Now()
	got, err := store.Projects().GetByID(ctx, "legacy")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.VolunteerData != nil {
		t.Errorf("VolunteerData = %v, want nil", got.VolunteerData)
	}
	if got.CreatedAt.Before(before) {
		t.Errorf("absent created_at should read as now, got %v", got.CreatedAt)
	}
}
