package roster

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

func seedProject(repo *mockProjectRepository, id string) {
	repo.projects[id] = &models.Project{ID: id, Name: id, StartTime: 9, EndTime: 11, Roles: []string{}}
}

func TestWriteQueue_CoalescesPerProject(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	q := NewWriteQueue(repo, testQueueConfig())

	name := "Renamed"
	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook"}))
	q.EnqueueUpdate("p1", &models.ProjectPatch{Name: &name})
	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook", "Greeter"}))

	if stats := q.Stats(); stats.Pending != 1 {
		t.Fatalf("Pending = %d, want 1", stats.Pending)
	}
	drain(t, q)

	if repo.updateCount() != 1 {
		t.Errorf("store updates = %d, want 1", repo.updateCount())
	}
	got := repo.stored("p1")
	if got.Name != "Renamed" || !reflect.DeepEqual(got.Roles, []string{"Cook", "Greeter"}) {
		t.Errorf("stored = %+v", got)
	}
	if stats := q.Stats(); stats.Completed != 1 || stats.Pending != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestWriteQueue_EnqueueCopiesPatch(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	q := NewWriteQueue(repo, testQueueConfig())

	grid := models.NewGrid([]string{"09:00"}, []string{"Cook"})
	q.EnqueueUpdate("p1", &models.ProjectPatch{VolunteerData: grid})
	grid.Set("09:00", "Cook", models.Assigned("Mallory"))
	drain(t, q)

	if repo.stored("p1").VolunteerData.Get("09:00", "Cook").IsAssigned() {
		t.Error("caller mutation leaked into queued write")
	}
}

func TestWriteQueue_DeleteSupersedesUpdate(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	q := NewWriteQueue(repo, testQueueConfig())

	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook"}))
	q.EnqueueDelete("p1")
	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Greeter"}))
	drain(t, q)

	if repo.updateCount() != 0 {
		t.Errorf("store updates = %d, want 0", repo.updateCount())
	}
	if repo.deleteCount() != 1 {
		t.Errorf("store deletes = %d, want 1", repo.deleteCount())
	}
	if repo.stored("p1") != nil {
		t.Error("project still stored")
	}
}

func TestWriteQueue_IgnoresLocalIDs(t *testing.T) {
	repo := newMockRepo()
	q := NewWriteQueue(repo, testQueueConfig())

	q.EnqueueUpdate("local_123", models.RolesPatch([]string{"Cook"}))
	q.EnqueueDelete("local_123")

	if q.HasPending("local_123") {
		t.Error("local id was queued")
	}
	drain(t, q)
	if repo.updateCount()+repo.deleteCount() != 0 {
		t.Error("local id reached the store")
	}
}

func TestWriteQueue_RetriesThenDrops(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	repo.updateError = fmt.Errorf("store unavailable")
	q := NewWriteQueue(repo, testQueueConfig())

	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook"}))
	for i := 0; i < 5; i++ {
		drain(t, q)
	}

	if repo.updateCount() != 3 {
		t.Errorf("attempts = %d, want 3", repo.updateCount())
	}
	stats := q.Stats()
	if stats.Dropped != 1 || stats.Retried != 2 || stats.Pending != 0 {
		t.Errorf("stats = %+v, want 1 dropped, 2 retried, none pending", stats)
	}
}

func TestWriteQueue_RecoversAfterTransientFailure(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	repo.updateFailures = 1
	q := NewWriteQueue(repo, testQueueConfig())

	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook"}))
	drain(t, q)
	if !q.HasPending("p1") {
		t.Fatal("failed write should stay queued")
	}

	// A newer edit arrives while the first one waits for its retry.
	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook", "Greeter"}))
	drain(t, q)

	if q.HasPending("p1") {
		t.Error("write still pending after success")
	}
	if got := repo.stored("p1").Roles; !reflect.DeepEqual(got, []string{"Cook", "Greeter"}) {
		t.Errorf("Roles = %v, want [Cook Greeter]", got)
	}
}

func TestWriteQueue_NotFoundHandling(t *testing.T) {
	repo := newMockRepo()
	q := NewWriteQueue(repo, testQueueConfig())

	q.EnqueueUpdate("gone", models.RolesPatch([]string{"Cook"}))
	q.EnqueueDelete("also-gone")
	drain(t, q)

	stats := q.Stats()
	if stats.Pending != 0 {
		t.Errorf("Pending = %d, want 0", stats.Pending)
	}
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1 (update of missing project)", stats.Dropped)
	}
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1 (delete of missing project)", stats.Completed)
	}
}

func TestWriteQueue_RunDelivers(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	repo.updateFailures = 1
	q := NewWriteQueue(repo, testQueueConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook"}))

	deadline := time.Now().Add(2 * time.Second)
	for !repo.stored("p1").HasRole("Cook") {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("write not delivered by Run")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestWriteQueue_DrainHonorsContext(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	q := NewWriteQueue(repo, testQueueConfig())
	q.EnqueueUpdate("p1", models.RolesPatch([]string{"Cook"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Drain(ctx); err == nil {
		t.Error("Drain with canceled context should fail")
	}
	if !q.HasPending("p1") {
		t.Error("write lost on canceled drain")
	}
}

func TestWriteQueue_HasPendingDelete(t *testing.T) {
	repo := newMockRepo()
	seedProject(repo, "p1")
	seedProject(repo, "p2")
	q := NewWriteQueue(repo, testQueueConfig())

	q.EnqueueUpdate("p2", models.RolesPatch([]string{"Cook"}))
	q.EnqueueDelete("p1")
	if !q.HasPendingDelete("p1") {
		t.Error("queued delete not reported")
	}
	if q.HasPendingDelete("p2") {
		t.Error("queued update reported as delete")
	}

	job := q.take("p1")
	if !q.HasPendingDelete("p1") {
		t.Error("in-flight delete not reported")
	}
	q.finish(job, nil)
	if q.HasPendingDelete("p1") {
		t.Error("delete still reported after it landed")
	}
}
