package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/notely/internal/model"
)

// MemoryStore はプロセス内メモリにデータを保持するストア。
// DATABASE_URL=memory:// 指定時のローカル開発とテストで使用する。
// 再起動でデータは失われる。
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]model.User
	notes      map[string]model.Note
	highlights []model.Highlight
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]model.User),
		notes: make(map[string]model.Note),
	}
}

// Users はUserRepositoryとしてのビューを返す。
func (s *MemoryStore) Users() *MemoryUserRepo { return &MemoryUserRepo{s: s} }

// Notes はNoteRepositoryとしてのビューを返す。
func (s *MemoryStore) Notes() *MemoryNoteRepo { return &MemoryNoteRepo{s: s} }

// Highlights はHighlightRepositoryとしてのビューを返す。
func (s *MemoryStore) Highlights() *MemoryHighlightRepo { return &MemoryHighlightRepo{s: s} }

// MemoryUserRepo はMemoryStore上のユーザーリポジトリ。
type MemoryUserRepo struct {
	s *MemoryStore
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// Create はユーザーを作成する。
func (r *MemoryUserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

// UpdateName はユーザー名を更新する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) UpdateName(_ context.Context, id, name string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u.Name = name
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return &u, nil
}

// LinkGoogleID は未連携のユーザーにGoogleのユーザーIDを紐付ける。
func (r *MemoryUserRepo) LinkGoogleID(_ context.Context, id, googleID string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	if u.GoogleID == nil {
		g := googleID
		u.GoogleID = &g
		u.UpdatedAt = time.Now()
		r.s.users[id] = u
	}
	return &u, nil
}

// MemoryNoteRepo はMemoryStore上のノートリポジトリ。
type MemoryNoteRepo struct {
	s *MemoryStore
}

// FindByID は指定IDのノートを取得する。見つからない場合はnilを返す。
func (r *MemoryNoteRepo) FindByID(_ context.Context, id string) (*model.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// Create はノートを作成する。
func (r *MemoryNoteRepo) Create(_ context.Context, note *model.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.notes[note.ID]; exists {
		return fmt.Errorf("note already exists: %s", note.ID)
	}
	r.s.notes[note.ID] = *note
	return nil
}

// ListByState は所有者のノートを実効状態で絞り込み、updated_at降順で返す。
func (r *MemoryNoteRepo) ListByState(_ context.Context, authorID string, state model.NoteState) ([]*model.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	notes := make([]*model.Note, 0)
	for _, n := range r.s.notes {
		if n.AuthorID != authorID || n.State() != state {
			continue
		}
		n := n
		notes = append(notes, &n)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

// UpdateWithHighlights はノートの部分更新とハイライトの追加を1回のロック区間で行う。
func (r *MemoryNoteRepo) UpdateWithHighlights(_ context.Context, id string, patch model.NotePatch, authorID string, highlights []string) (*model.Note, []*model.Highlight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[id]
	if !ok {
		return nil, nil, nil
	}

	now := time.Now()
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Archived != nil {
		n.Archived = *patch.Archived
	}
	if patch.Trashed != nil {
		n.Trashed = *patch.Trashed
	}
	n.UpdatedAt = now
	r.s.notes[id] = n

	existing := make(map[string]struct{}, len(r.s.highlights))
	for _, h := range r.s.highlights {
		existing[h.Content] = struct{}{}
	}

	created := make([]*model.Highlight, 0, len(highlights))
	for _, content := range highlights {
		if _, dup := existing[content]; dup {
			continue
		}
		h := model.Highlight{
			ID:        uuid.New().String(),
			Content:   content,
			NoteID:    id,
			AuthorID:  authorID,
			CreatedAt: now,
		}
		r.s.highlights = append(r.s.highlights, h)
		existing[content] = struct{}{}
		created = append(created, &h)
	}

	return &n, created, nil
}

// Delete は指定IDのノートを削除する。関連ハイライトは残す。
func (r *MemoryNoteRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	delete(r.s.notes, id)
	return nil
}

// DeleteTrashedBefore はゴミ箱内でcutoffより前に更新されたノートを削除し、削除件数を返す。
func (r *MemoryNoteRepo) DeleteTrashedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, n := range r.s.notes {
		if n.Trashed && n.UpdatedAt.Before(cutoff) {
			delete(r.s.notes, id)
			deleted++
		}
	}
	return deleted, nil
}

// MemoryHighlightRepo はMemoryStore上のハイライトリポジトリ。
type MemoryHighlightRepo struct {
	s *MemoryStore
}

// ListByAuthor は作成者のハイライトをcreated_at降順で返す。
func (r *MemoryHighlightRepo) ListByAuthor(_ context.Context, authorID string) ([]*model.Highlight, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*model.Highlight, 0)
	for i := len(r.s.highlights) - 1; i >= 0; i-- {
		h := r.s.highlights[i]
		if h.AuthorID == authorID {
			result = append(result, &h)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// compile-time interface check
var (
	_ UserRepository      = (*MemoryUserRepo)(nil)
	_ NoteRepository      = (*MemoryNoteRepo)(nil)
	_ TrashPurger         = (*MemoryNoteRepo)(nil)
	_ HighlightRepository = (*MemoryHighlightRepo)(nil)
)
