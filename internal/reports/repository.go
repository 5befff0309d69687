package reports

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// listLimit caps the admin report listing. The UI has no pagination; the
// newest records are what matters.
const listLimit = 200

// Repository defines the data access contract for assessment records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type Repository interface {
	// FindLatestByEmail returns the most recently created record for an
	// email, or nil if none exists.
	FindLatestByEmail(ctx context.Context, email string) (*Assessment, error)

	// Insert stores a new assessment record.
	Insert(ctx context.Context, a *Assessment) error

	// Update rewrites the mergeable fields of an existing record by id.
	// Email and created_at are never changed.
	Update(ctx context.Context, a *Assessment) error

	// Delete removes a record by id. Returns false if no record matched.
	Delete(ctx context.Context, id string) (bool, error)

	// List returns records matching the filter, newest first, capped at
	// listLimit.
	List(ctx context.Context, filter ListFilter) ([]Assessment, error)
}

// repository implements Repository with MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const assessmentColumns = `id, name, email, score, client_pdf_url, coach_pdf_url, created_at`

func (r *repository) FindLatestByEmail(ctx context.Context, email string) (*Assessment, error) {
	query := `SELECT ` + assessmentColumns + `
	          FROM assessments
	          WHERE email = ?
	          ORDER BY created_at DESC
	          LIMIT 1`

	a, err := scanAssessment(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding assessment by email: %w", err)
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, a *Assessment) error {
	query := `INSERT INTO assessments (` + assessmentColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Email, a.Score, a.ClientPDFURL, a.CoachPDFURL, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting assessment: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, a *Assessment) error {
	query := `UPDATE assessments
	          SET name = ?, score = ?, client_pdf_url = ?, coach_pdf_url = ?
	          WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		a.Name, a.Score, a.ClientPDFURL, a.CoachPDFURL, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating assessment: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting assessment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted rows: %w", err)
	}
	return affected > 0, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Assessment, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Query != "" {
		conditions = append(conditions, "name LIKE ?")
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.From != "" {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.From+" 00:00:00")
	}
	if filter.To != "" {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.To+" 23:59:59")
	}

	query := `SELECT ` + assessmentColumns + ` FROM assessments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", listLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	assessments := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		assessments = append(assessments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessments: %w", err)
	}
	return assessments, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAssessment maps one row to an Assessment, converting SQL NULLs to nil
// pointers.
func scanAssessment(row rowScanner) (*Assessment, error) {
	var (
		a         Assessment
		score     sql.NullInt64
		clientURL sql.NullString
		coachURL  sql.NullString
	)

	if err := row.Scan(&a.ID, &a.Name, &a.Email, &score, &clientURL, &coachURL, &a.CreatedAt); err != nil {
		return nil, err
	}

	if score.Valid {
		v := int(score.Int64)
		a.Score = &v
	}
	if clientURL.Valid {
		a.ClientPDFURL = &clientURL.String
	}
	if coachURL.Valid {
		a.CoachPDFURL = &coachURL.String
	}
	return &a, nil
}
