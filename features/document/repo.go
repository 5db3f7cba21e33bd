package document

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (filename, stored_path, status) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, doc.Filename, doc.StoredPath, doc.Status).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *PostgresRepo) MarkDone(ctx context.Context, id string, chunkCount int) error {
	query := `UPDATE documents SET status = $1, chunk_count = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, StatusDone, chunkCount, id)
	return err
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	query := `UPDATE documents SET status = $1, error = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, StatusFailed, errMsg, id)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	query := `SELECT id, filename, stored_path, status, chunk_count, error, created_at, updated_at FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&doc.ID, &doc.Filename, &doc.StoredPath, &doc.Status, &doc.ChunkCount, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Document, error) {
	query := `SELECT id, filename, stored_path, status, chunk_count, error, created_at, updated_at FROM documents ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.StoredPath, &d.Status, &d.ChunkCount, &d.Error, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM documents`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
