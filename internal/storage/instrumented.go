package storage

import (
	"context"
	"time"

	"github.com/good-yellow-bee/rostergrid/internal/metrics"
	"github.com/good-yellow-bee/rostergrid/internal/models"
)

// instrumentedRepo records latency and error counts for every call.
type instrumentedRepo struct {
	next    ProjectRepository
	backend string
}

func instrument(next ProjectRepository, backend string) ProjectRepository {
	return &instrumentedRepo{next: next, backend: backend}
}

func (r *instrumentedRepo) observe(op string, start time.Time, err error) {
	metrics.StorageQueryDuration.WithLabelValues(op, r.backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StorageErrors.WithLabelValues(op, r.backend).Inc()
	}
}

func (r *instrumentedRepo) Create(ctx context.Context, project *models.Project) error {
	start := time.Now()
	err := r.next.Create(ctx, project)
	r.observe("create", start, err)
	return err
}

func (r *instrumentedRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	start := time.Now()
	p, err := r.next.GetByID(ctx, id)
	r.observe("get", start, err)
	return p, err
}

func (r *instrumentedRepo) Update(ctx context.Context, id string, patch *models.ProjectPatch) error {
	start := time.Now()
	err := r.next.Update(ctx, id, patch)
	r.observe("update", start, err)
	return err
}

func (r *instrumentedRepo) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := r.next.Delete(ctx, id)
	r.observe("delete", start, err)
	return err
}

func (r *instrumentedRepo) List(ctx context.Context) ([]*models.Project, error) {
	start := time.Now()
	projects, err := r.next.List(ctx)
	r.observe("list", start, err)
	return projects, err
}
