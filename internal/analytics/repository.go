package analytics

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists and reads the activity feed.
type Repository interface {
	Insert(ctx context.Context, activity Activity) error
	ListForExport(ctx context.Context, filters ExportFilters) ([]Activity, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, activity Activity) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activities (actor, entity_type, entity_id, action, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		activity.Actor, activity.EntityType, activity.EntityID, activity.Action, activity.CreatedAt)
	return err
}

func (r *repository) ListForExport(ctx context.Context, filters ExportFilters) ([]Activity, error) {
	query := `SELECT id, actor, entity_type, entity_id, action, created_at FROM activities WHERE 1=1`
	args := []any{}
	argCount := 0

	addClause := func(clause string, value any) {
		argCount++
		query += clause + `$` + strconv.Itoa(argCount)
		args = append(args, value)
	}

	if !filters.From.IsZero() {
		addClause(` AND created_at >= `, filters.From)
	}
	if !filters.To.IsZero() {
		addClause(` AND created_at < `, filters.To)
	}
	if filters.EntityType != "" {
		addClause(` AND entity_type = `, filters.EntityType)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var activity Activity
		var created pgtype.Timestamptz
		if err := rows.Scan(&activity.ID, &activity.Actor, &activity.EntityType,
			&activity.EntityID, &activity.Action, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			activity.CreatedAt = created.Time
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
