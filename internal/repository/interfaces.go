// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/notely/internal/model"
)

// ErrDuplicateEmail は一意制約（users.email）違反を表す。
// 存在確認と作成の間に同一メールアドレスで登録された場合に返る。
var ErrDuplicateEmail = errors.New("email already registered")

// ErrNoteNotFound は削除対象のノートが存在しないことを表す。
var ErrNoteNotFound = errors.New("note not found")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字は区別する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateName はユーザー名を更新し、更新後のユーザーを返す。
	// 見つからない場合はnilを返す。
	UpdateName(ctx context.Context, id, name string) (*model.User, error)

	// LinkGoogleID は未連携のユーザーにGoogleのユーザーIDを紐付け、更新後のユーザーを返す。
	// 見つからない場合はnilを返す。
	LinkGoogleID(ctx context.Context, id, googleID string) (*model.User, error)
}

// NoteRepository はノートデータの永続化インターフェース。
type NoteRepository interface {
	// FindByID は指定IDのノートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Note, error)

	// Create はノートを作成する。
	Create(ctx context.Context, note *model.Note) error

	// ListByState は所有者のノートを実効状態で絞り込み、updated_at降順で返す。
	// 該当なしの場合は空スライスを返す。
	ListByState(ctx context.Context, authorID string, state model.NoteState) ([]*model.Note, error)

	// UpdateWithHighlights はノートの部分更新とハイライトの追加を同一トランザクションで行う。
	// patchのnilフィールドは変更しない。
	// highlightsのうちストア全体で既に存在する内容はスキップし、新規作成分のみを返す。
	// ノートが見つからない場合はnilを返す。
	UpdateWithHighlights(ctx context.Context, id string, patch model.NotePatch, authorID string, highlights []string) (*model.Note, []*model.Highlight, error)

	// Delete は指定IDのノートを物理削除する。関連ハイライトは削除しない。
	Delete(ctx context.Context, id string) error
}

// TrashPurger はゴミ箱の自動削除に使用するインターフェース。
type TrashPurger interface {
	// DeleteTrashedBefore はゴミ箱内でcutoffより前に更新されたノートを物理削除し、削除件数を返す。
	DeleteTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// HighlightRepository はハイライトデータの永続化インターフェース。
type HighlightRepository interface {
	// ListByAuthor は作成者のハイライトをcreated_at降順で返す。
	// ノートの状態による絞り込みは行わない。
	ListByAuthor(ctx context.Context, authorID string) ([]*model.Highlight, error)
}
