// Package note はノートのライフサイクル（作成、編集、アーカイブ、ゴミ箱、完全削除）と
// ハイライトの追加を提供する。
//
// すべての単一ノート操作は、存在確認 → 所有者確認 → 操作 の順で行う。
// 存在しないノートはNOTE_NOT_FOUND、他ユーザーのノートはFORBIDDENとなる。
package note

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/notely/internal/auth"
	"github.com/hitoshi/notely/internal/metrics"
	"github.com/hitoshi/notely/internal/model"
	"github.com/hitoshi/notely/internal/repository"
	"github.com/hitoshi/notely/internal/security"
)

// ノート操作のラベル
const (
	opCreate    = "create"
	opUpdate    = "update"
	opArchive   = "archive"
	opUnarchive = "unarchive"
	opTrash     = "trash"
	opRestore   = "restore"
	opDelete    = "delete"
)

// Service はノートライフサイクルのサービス層。
type Service struct {
	noteRepo      repository.NoteRepository
	highlightRepo repository.HighlightRepository
	sanitizer     security.ContentSanitizer
	metrics       metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	noteRepo repository.NoteRepository,
	highlightRepo repository.HighlightRepository,
	sanitizer security.ContentSanitizer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		noteRepo:      noteRepo,
		highlightRepo: highlightRepo,
		sanitizer:     sanitizer,
		metrics:       collector,
	}
}

// Create はsubjectを所有者とするアクティブなノートを作成する。
func (s *Service) Create(ctx context.Context, subject string, in CreateInput) (*model.Note, error) {
	if verr := ValidateCreate(in); verr != nil {
		return nil, verr
	}

	now := time.Now()
	note := &model.Note{
		ID:        uuid.New().String(),
		Title:     *in.Title,
		Content:   s.sanitizer.Sanitize(*in.Content),
		AuthorID:  subject,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	slog.Info("note created",
		slog.String("user_id", subject),
		slog.String("note_id", note.ID),
	)
	s.metrics.RecordNoteOperation(opCreate)

	return note, nil
}

// Get はsubjectが所有するノートを返す。
func (s *Service) Get(ctx context.Context, subject, id string) (*model.Note, error) {
	return s.findOwned(ctx, subject, id)
}

// Update はノートに指定されたフィールドのみを適用し、ハイライトを追加する。
// ハイライトは入力内で重複を除いた上で、ストア全体に既に存在する内容を除いて作成する。
// 既存のハイライトを削除することはない。
func (s *Service) Update(ctx context.Context, subject, id string, in UpdateInput) (*model.Note, error) {
	if verr := ValidateUpdate(in); verr != nil {
		return nil, verr
	}
	return s.apply(ctx, subject, id, in, opUpdate)
}

// Archive はノートをアーカイブする。
func (s *Service) Archive(ctx context.Context, subject, id string) (*model.Note, error) {
	return s.apply(ctx, subject, id, UpdateInput{Archived: boolPtr(true)}, opArchive)
}

// Unarchive はノートのアーカイブを解除する。
func (s *Service) Unarchive(ctx context.Context, subject, id string) (*model.Note, error) {
	return s.apply(ctx, subject, id, UpdateInput{Archived: boolPtr(false)}, opUnarchive)
}

// SoftDelete はノートをゴミ箱に移動する。ノートはゴミ箱一覧から参照できる。
func (s *Service) SoftDelete(ctx context.Context, subject, id string) (*model.Note, error) {
	return s.apply(ctx, subject, id, UpdateInput{Trashed: boolPtr(true)}, opTrash)
}

// Restore はノートをゴミ箱から戻す。
func (s *Service) Restore(ctx context.Context, subject, id string) (*model.Note, error) {
	return s.apply(ctx, subject, id, UpdateInput{Trashed: boolPtr(false)}, opRestore)
}

// PermanentDelete はノートを物理削除する。ゴミ箱にあることは要求しない。
// 関連するハイライトは削除しない。
func (s *Service) PermanentDelete(ctx context.Context, subject, id string) error {
	if _, err := s.findOwned(ctx, subject, id); err != nil {
		return err
	}

	if err := s.noteRepo.Delete(ctx, id); err != nil {
		// 所有者確認の後に別リクエストで削除された場合
		if errors.Is(err, repository.ErrNoteNotFound) {
			return model.NewNoteNotFoundError(id)
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	slog.Info("note permanently deleted",
		slog.String("user_id", subject),
		slog.String("note_id", id),
	)
	s.metrics.RecordNoteOperation(opDelete)

	return nil
}

// ListActive はアーカイブもゴミ箱移動もされていないノートを更新日時の降順で返す。
func (s *Service) ListActive(ctx context.Context, subject string) ([]*model.Note, error) {
	return s.list(ctx, subject, model.NoteStateActive)
}

// ListArchived はアーカイブ済みでゴミ箱にないノートを更新日時の降順で返す。
func (s *Service) ListArchived(ctx context.Context, subject string) ([]*model.Note, error) {
	return s.list(ctx, subject, model.NoteStateArchived)
}

// ListTrashed はゴミ箱にあるノートを更新日時の降順で返す。
func (s *Service) ListTrashed(ctx context.Context, subject string) ([]*model.Note, error) {
	return s.list(ctx, subject, model.NoteStateTrashed)
}

// ListHighlights はsubjectが作成したすべてのハイライトを作成日時の降順で返す。
// ノートの状態では絞り込まない。
func (s *Service) ListHighlights(ctx context.Context, subject string) ([]*model.Highlight, error) {
	highlights, err := s.highlightRepo.ListByAuthor(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list highlights: %w", err)
	}
	return highlights, nil
}

func (s *Service) list(ctx context.Context, subject string, state model.NoteState) ([]*model.Note, error) {
	notes, err := s.noteRepo.ListByState(ctx, subject, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s notes: %w", state, err)
	}
	return notes, nil
}

// apply は存在確認と所有者確認の後、部分更新とハイライト追加を1トランザクションで行う。
func (s *Service) apply(ctx context.Context, subject, id string, in UpdateInput, op string) (*model.Note, error) {
	if _, err := s.findOwned(ctx, subject, id); err != nil {
		return nil, err
	}

	patch := in.patch()
	if patch.Content != nil {
		sanitized := s.sanitizer.Sanitize(*patch.Content)
		patch.Content = &sanitized
	}

	note, created, err := s.noteRepo.UpdateWithHighlights(ctx, id, patch, subject, dedupe(in.Highlights))
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	// 確認後に別リクエストで削除された場合
	if note == nil {
		return nil, model.NewNoteNotFoundError(id)
	}

	slog.Info("note updated",
		slog.String("user_id", subject),
		slog.String("note_id", id),
		slog.String("operation", op),
		slog.Int("highlights_created", len(created)),
	)
	s.metrics.RecordNoteOperation(op)
	s.metrics.RecordHighlightsCreated(len(created))

	return note, nil
}

// findOwned はノートの存在を確認した後、所有者がsubjectであることを確認する。
func (s *Service) findOwned(ctx context.Context, subject, id string) (*model.Note, error) {
	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	if note == nil {
		return nil, model.NewNoteNotFoundError(id)
	}
	if err := auth.RequireOwner(note.AuthorID, subject); err != nil {
		slog.Warn("note access denied",
			slog.String("user_id", subject),
			slog.String("note_id", id),
		)
		return nil, err
	}
	return note, nil
}

func boolPtr(b bool) *bool {
	return &b
}
