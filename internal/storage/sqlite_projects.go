package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

const projectColumns = `id, name, start_time, end_time, roles_json, volunteer_data_json, created_at, updated_at`

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	roles, grid, err := encodeProjectFields(project.Roles, project.VolunteerData)
	if err != nil {
		return err
	}

	now := time.Now()
	id := uuid.New().String()

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		id, project.Name, project.StartTime, project.EndTime,
		roles, grid, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	project.ID = id
	project.CreatedAt = time.UnixMilli(now.UnixMilli())
	project.UpdatedAt = project.CreatedAt
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return project, nil
}

func (r *sqliteProjectRepo) Update(ctx context.Context, id string, patch *models.ProjectPatch) error {
	var (
		sets []string
		args []any
	)
	if patch != nil {
		if patch.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *patch.Name)
		}
		if patch.StartTime != nil {
			sets = append(sets, "start_time = ?")
			args = append(args, *patch.StartTime)
		}
		if patch.EndTime != nil {
			sets = append(sets, "end_time = ?")
			args = append(args, *patch.EndTime)
		}
		if patch.Roles != nil {
			data, err := json.Marshal(*patch.Roles)
			if err != nil {
				return fmt.Errorf("encode roles: %w", err)
			}
			sets = append(sets, "roles_json = ?")
			args = append(args, string(data))
		}
		if patch.VolunteerData != nil {
			data, err := json.Marshal(patch.VolunteerData)
			if err != nil {
				return fmt.Errorf("encode volunteer data: %w", err)
			}
			sets = append(sets, "volunteer_data_json = ?")
			args = append(args, string(data))
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UnixMilli(), id)

	query := `UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sqliteProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	project := &models.Project{}
	var (
		roles     string
		grid      sql.NullString
		createdAt sql.NullInt64
		updatedAt sql.NullInt64
	)
	err := row.Scan(
		&project.ID, &project.Name, &project.StartTime, &project.EndTime,
		&roles, &grid, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(roles), &project.Roles); err != nil {
		return nil, fmt.Errorf("decode roles for %s: %w", project.ID, err)
	}
	if grid.Valid && grid.String != "" {
		if err := json.Unmarshal([]byte(grid.String), &project.VolunteerData); err != nil {
			return nil, fmt.Errorf("decode volunteer data for %s: %w", project.ID, err)
		}
	}
	if createdAt.Valid {
		project.CreatedAt = time.UnixMilli(createdAt.Int64)
	}
	if updatedAt.Valid {
		project.UpdatedAt = time.UnixMilli(updatedAt.Int64)
	}
	return normalize(project), nil
}

// encodeProjectFields serializes the JSON columns. A nil grid is stored as
// NULL.
func encodeProjectFields(roles []string, grid models.Grid) (string, sql.NullString, error) {
	if roles == nil {
		roles = []string{}
	}
	rolesData, err := json.Marshal(roles)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("encode roles: %w", err)
	}
	if grid == nil {
		return string(rolesData), sql.NullString{}, nil
	}
	gridData, err := json.Marshal(grid)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("encode volunteer data: %w", err)
	}
	return string(rolesData), sql.NullString{String: string(gridData), Valid: true}, nil
}
