package organizations

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists organization records.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Organization, int, error)
	Get(ctx context.Context, id int64) (Organization, error)
	Create(ctx context.Context, org Organization) (Organization, error)
	Update(ctx context.Context, org Organization) error
	ArchiveLapsed(ctx context.Context, cutoff, archivedAt time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orgColumns = `id, name, acronym, category, adviser, status, recognized_at, renewed_at, archived_at, created_at, updated_at`

// List uses a dynamic query: the filter combination is too variable for a
// prepared statement per shape.
func (r *repository) List(ctx context.Context, filters ListFilters) ([]Organization, int, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM organizations WHERE 1=1`
	args := []any{}
	argCount := 0

	addClause := func(clause string, value any) {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		query += clause + placeholder
		countQuery += clause + placeholder
		args = append(args, value)
	}

	if filters.Search != "" {
		addClause(` AND (name ILIKE `, "%"+filters.Search+"%")
		query += ` OR acronym ILIKE $` + strconv.Itoa(argCount) + `)`
		countQuery += ` OR acronym ILIKE $` + strconv.Itoa(argCount) + `)`
	}
	if filters.Category != "" {
		addClause(` AND category = `, filters.Category)
	}
	if filters.Status != "" {
		addClause(` AND status = `, filters.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, org)
	}
	return orgs, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Organization, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	org, err := scanOrganization(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, ErrNotFound
	}
	return org, err
}

func (r *repository) Create(ctx context.Context, org Organization) (Organization, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, acronym, category, adviser, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+orgColumns,
		org.Name, org.Acronym, org.Category, org.Adviser, org.Status, org.CreatedAt)
	created, err := scanOrganization(row)
	if err != nil {
		return Organization{}, mapConstraintError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, org Organization) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE organizations
		SET name = $2, acronym = $3, category = $4, adviser = $5, status = $6,
		    recognized_at = $7, renewed_at = $8, archived_at = $9, updated_at = $10
		WHERE id = $1`,
		org.ID, org.Name, org.Acronym, org.Category, org.Adviser, org.Status,
		org.RecognizedAt, org.RenewedAt, org.ArchivedAt, org.UpdatedAt)
	if err != nil {
		return mapConstraintError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ArchiveLapsed archives active organizations whose last renewal predates
// the cutoff. Used by the background renewal sweep.
func (r *repository) ArchiveLapsed(ctx context.Context, cutoff, archivedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE organizations
		SET status = $1, archived_at = $2, updated_at = $2
		WHERE status = $3 AND COALESCE(renewed_at, recognized_at, created_at) < $4`,
		StatusArchived, archivedAt, StatusActive, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanOrganization(row pgx.Row) (Organization, error) {
	var org Organization
	var recognized, renewed, archived pgtype.Timestamptz
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&org.ID, &org.Name, &org.Acronym, &org.Category, &org.Adviser, &org.Status,
		&recognized, &renewed, &archived, &createdAt, &updatedAt)
	if err != nil {
		return Organization{}, err
	}
	org.RecognizedAt = timePtr(recognized)
	org.RenewedAt = timePtr(renewed)
	org.ArchivedAt = timePtr(archived)
	if createdAt.Valid {
		org.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		org.UpdatedAt = updatedAt.Time
	}
	return org, nil
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
