package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recordapi/internal/model"
	"recordapi/internal/repository"
)

// RecordPostgres is a PostgreSQL implementation of repository.RecordRepository.
// Each record is one JSONB document guarded by an integer revision.
type RecordPostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecordPostgres creates a new RecordPostgres repository.
func NewRecordPostgres(db *sql.DB) *RecordPostgres {
	return &RecordPostgres{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.RecordRepository = (*RecordPostgres)(nil)

const recordColumns = `id, revision, document, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*model.RecordDocument, error) {
	var (
		out     model.RecordDocument
		id      string
		rev     int64
		raw     []byte
		created time.Time
		updated time.Time
	)
	if err := row.Scan(&id, &rev, &raw, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	out.ID, out.Revision, out.CreatedAt, out.UpdatedAt = id, rev, created, updated
	return &out, nil
}

// Create inserts a new record at revision 1 and returns the stored document.
func (r *RecordPostgres) Create(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error) {
	now := r.now()
	in := *doc
	in.Revision = 1
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	const q = `
		INSERT INTO records (id, revision, created_by, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + recordColumns
	row := r.db.QueryRowContext(ctx, q,
		in.ID,
		in.Revision,
		in.CreatedBy,
		raw,
		in.CreatedAt,
		in.UpdatedAt,
	)
	return scanRecord(row)
}

// FindByID fetches a single record by its ID.
func (r *RecordPostgres) FindByID(ctx context.Context, id string) (*model.RecordDocument, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM records
		WHERE id = $1
	`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

// Reload is FindByID; there is no cache at this layer.
func (r *RecordPostgres) Reload(ctx context.Context, id string) (*model.RecordDocument, error) {
	return r.FindByID(ctx, id)
}

// Update writes doc when the stored revision equals doc.Revision.
func (r *RecordPostgres) Update(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error) {
	in := *doc
	in.UpdatedAt = r.now()
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	const q = `
		UPDATE records
		SET revision = revision + 1, document = $3, updated_at = $4
		WHERE id = $1 AND revision = $2
		RETURNING ` + recordColumns
	out, err := scanRecord(r.db.QueryRowContext(ctx, q, in.ID, in.Revision, raw, in.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s at revision %d", repository.ErrConflict, in.ID, in.Revision)
		}
		return nil, err
	}
	return out, nil
}

// List returns records using LIMIT/OFFSET pagination and a total count.
func (r *RecordPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.RecordDocument], error) {
	const qCount = `SELECT COUNT(*) FROM records`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + recordColumns + `
		FROM records
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.RecordDocument, 0)
	for rows.Next() {
		d, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.RecordDocument]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a record by ID. It does not return an error if the row does not exist.
func (r *RecordPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM records WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
