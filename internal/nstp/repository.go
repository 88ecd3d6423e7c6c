package nstp

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists NSTP file records.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]File, int, error)
	Get(ctx context.Context, id int64) (File, error)
	Update(ctx context.Context, file File) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const fileColumns = `id, student, component, school_year, semester, file_name, status, uploaded_at, archived_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]File, int, error) {
	query := `SELECT ` + fileColumns + ` FROM nstp_files WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM nstp_files WHERE 1=1`
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
		addClause(` AND (student ILIKE `, "%"+filters.Search+"%")
		query += ` OR file_name ILIKE $` + strconv.Itoa(argCount) + `)`
		countQuery += ` OR file_name ILIKE $` + strconv.Itoa(argCount) + `)`
	}
	if filters.Component != "" {
		addClause(` AND component = `, filters.Component)
	}
	if filters.SchoolYear != "" {
		addClause(` AND school_year = `, filters.SchoolYear)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY uploaded_at DESC, id DESC`
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

	var files []File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		files = append(files, file)
	}
	return files, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (File, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM nstp_files WHERE id = $1`, id)
	file, err := scanFile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return File{}, ErrNotFound
	}
	return file, err
}

func (r *repository) Update(ctx context.Context, file File) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE nstp_files
		SET student = $2, component = $3, school_year = $4, semester = $5, status = $6, archived_at = $7
		WHERE id = $1`,
		file.ID, file.Student, file.Component, file.SchoolYear, file.Semester, file.Status, file.ArchivedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFile(row pgx.Row) (File, error) {
	var file File
	var uploaded, archived pgtype.Timestamptz
	err := row.Scan(&file.ID, &file.Student, &file.Component, &file.SchoolYear, &file.Semester,
		&file.FileName, &file.Status, &uploaded, &archived)
	if err != nil {
		return File{}, err
	}
	if uploaded.Valid {
		file.UploadedAt = uploaded.Time
	}
	if archived.Valid {
		t := archived.Time
		file.ArchivedAt = &t
	}
	return file, nil
}
