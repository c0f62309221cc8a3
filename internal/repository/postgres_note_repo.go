package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/notely/internal/model"
)

const noteColumns = `id, title, content, archived, trashed, author_id, created_at, updated_at`

// PostgresNoteRepo はPostgreSQLを使用したノートリポジトリ。
type PostgresNoteRepo struct {
	db *sql.DB
}

// NewPostgresNoteRepo はPostgresNoteRepoを生成する。
func NewPostgresNoteRepo(db *sql.DB) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: db}
}

// FindByID は指定IDのノートを取得する。見つからない場合はnilを返す。
// UUID形式でないIDは存在しないノートとして扱う。
func (r *PostgresNoteRepo) FindByID(ctx context.Context, id string) (*model.Note, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	note := &model.Note{}
	err := scanNote(r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`,
		id,
	), note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note by ID: %w", err)
	}
	return note, nil
}

// Create はノートを作成する。
func (r *PostgresNoteRepo) Create(ctx context.Context, note *model.Note) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, archived, trashed, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		note.ID, note.Title, note.Content, note.Archived, note.Trashed, note.AuthorID, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// ListByState は所有者のノートを実効状態で絞り込んで返す。
func (r *PostgresNoteRepo) ListByState(ctx context.Context, authorID string, state model.NoteState) ([]*model.Note, error) {
	var where string
	switch state {
	case model.NoteStateActive:
		where = `archived = false AND trashed = false`
	case model.NoteStateArchived:
		where = `archived = true AND trashed = false`
	case model.NoteStateTrashed:
		where = `trashed = true`
	default:
		return nil, fmt.Errorf("unknown note state: %q", state)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE author_id = $1 AND `+where+`
		 ORDER BY updated_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*model.Note, 0)
	for rows.Next() {
		note := &model.Note{}
		if err := scanNote(rows, note); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

// UpdateWithHighlights はノートの部分更新とハイライトの追加を同一トランザクションで行う。
// ハイライトはcontentの一意制約とON CONFLICT DO NOTHINGにより、
// ストア全体で既存の内容を重複作成しない。
func (r *PostgresNoteRepo) UpdateWithHighlights(ctx context.Context, id string, patch model.NotePatch, authorID string, highlights []string) (*model.Note, []*model.Highlight, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	// ノートを部分更新（NULLのパラメータは既存値を維持）
	note := &model.Note{}
	err = scanNote(tx.QueryRowContext(ctx,
		`UPDATE notes SET
		   title = COALESCE($2, title),
		   content = COALESCE($3, content),
		   archived = COALESCE($4, archived),
		   trashed = COALESCE($5, trashed),
		   updated_at = $6
		 WHERE id = $1
		 RETURNING `+noteColumns,
		id, patch.Title, patch.Content, patch.Archived, patch.Trashed, now,
	), note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update note: %w", err)
	}

	created := make([]*model.Highlight, 0, len(highlights))
	for _, content := range highlights {
		h := &model.Highlight{
			ID:        uuid.New().String(),
			Content:   content,
			NoteID:    id,
			AuthorID:  authorID,
			CreatedAt: now,
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO highlights (id, content, note_id, author_id, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (content) DO NOTHING`,
			h.ID, h.Content, h.NoteID, h.AuthorID, h.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert highlight: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n > 0 {
			created = append(created, h)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return note, created, nil
}

// Delete は指定IDのノートを物理削除する。
// highlights.note_idは外部キー制約を持たないため、ハイライトは残る。
func (r *PostgresNoteRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return nil
}

// DeleteTrashedBefore はゴミ箱内でcutoffより前に更新されたノートを物理削除し、削除件数を返す。
// ゴミ箱にないノートは対象にしない。
func (r *PostgresNoteRepo) DeleteTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE trashed = true AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge trashed notes: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner, note *model.Note) error {
	return row.Scan(
		&note.ID, &note.Title, &note.Content,
		&note.Archived, &note.Trashed, &note.AuthorID,
		&note.CreatedAt, &note.UpdatedAt,
	)
}

// compile-time interface check
var _ NoteRepository = (*PostgresNoteRepo)(nil)
var _ TrashPurger = (*PostgresNoteRepo)(nil)
