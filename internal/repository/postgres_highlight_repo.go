package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/notely/internal/model"
)

// PostgresHighlightRepo はPostgreSQLを使用したハイライトリポジトリ。
type PostgresHighlightRepo struct {
	db *sql.DB
}

// NewPostgresHighlightRepo はPostgresHighlightRepoを生成する。
func NewPostgresHighlightRepo(db *sql.DB) *PostgresHighlightRepo {
	return &PostgresHighlightRepo{db: db}
}

// ListByAuthor は作成者のハイライトをcreated_at降順で返す。
func (r *PostgresHighlightRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Highlight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, content, note_id, author_id, created_at
		 FROM highlights
		 WHERE author_id = $1
		 ORDER BY created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list highlights: %w", err)
	}
	defer rows.Close()

	return scanHighlights(rows)
}

func scanHighlights(rows *sql.Rows) ([]*model.Highlight, error) {
	highlights := make([]*model.Highlight, 0)
	for rows.Next() {
		h := &model.Highlight{}
		if err := rows.Scan(&h.ID, &h.Content, &h.NoteID, &h.AuthorID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan highlight: %w", err)
		}
		highlights = append(highlights, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate highlights: %w", err)
	}
	return highlights, nil
}

// compile-time interface check
var _ HighlightRepository = (*PostgresHighlightRepo)(nil)
