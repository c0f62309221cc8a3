package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/notely/internal/model"
	"github.com/hitoshi/notely/internal/note"
)

// NoteServiceInterface はノートハンドラーが必要とするサービスインターフェース。
type NoteServiceInterface interface {
	Create(ctx context.Context, subject string, in note.CreateInput) (*model.Note, error)
	Get(ctx context.Context, subject, id string) (*model.Note, error)
	Update(ctx context.Context, subject, id string, in note.UpdateInput) (*model.Note, error)
	Archive(ctx context.Context, subject, id string) (*model.Note, error)
	Unarchive(ctx context.Context, subject, id string) (*model.Note, error)
	SoftDelete(ctx context.Context, subject, id string) (*model.Note, error)
	Restore(ctx context.Context, subject, id string) (*model.Note, error)
	PermanentDelete(ctx context.Context, subject, id string) error
	ListActive(ctx context.Context, subject string) ([]*model.Note, error)
	ListArchived(ctx context.Context, subject string) ([]*model.Note, error)
	ListTrashed(ctx context.Context, subject string) ([]*model.Note, error)
	ListHighlights(ctx context.Context, subject string) ([]*model.Highlight, error)
}

// NoteHandler はノート管理のHTTPハンドラー。
type NoteHandler struct {
	service NoteServiceInterface
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(service NoteServiceInterface) *NoteHandler {
	return &NoteHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

type createNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// updateNoteRequest は部分更新のボディ。省略したフィールドは変更しない。
type updateNoteRequest struct {
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	Archived   *bool    `json:"archived"`
	Trashed    *bool    `json:"trashed"`
	Highlights []string `json:"highlights"`
}

// noteResponse はノートのレスポンス。
type noteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"` // サニタイズ済みHTML
	Archived  bool      `json:"archived"`
	Trashed   bool      `json:"trashed"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type highlightResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	NoteID    string    `json:"noteId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

type noteEnvelope struct {
	Note noteResponse `json:"note"`
}

type noteListEnvelope struct {
	Notes []noteResponse `json:"notes"`
}

type highlightListEnvelope struct {
	Highlights []highlightResponse `json:"highlights"`
}

// Create はノートを作成する。
// POST /notes
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createNoteRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	n, err := h.service.Create(r.Context(), userID, note.CreateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, noteEnvelope{Note: toNoteResponse(n)})
}

// Get はノートを取得する。
// GET /notes/{id}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respondNote(w, r, h.service.Get)
}

// Update はノートを部分更新し、指定されたハイライトを追加する。
// PUT /notes/{id}
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateNoteRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	n, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), note.UpdateInput{
		Title:      req.Title,
		Content:    req.Content,
		Archived:   req.Archived,
		Trashed:    req.Trashed,
		Highlights: req.Highlights,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, noteEnvelope{Note: toNoteResponse(n)})
}

// Archive はノートをアーカイブする。
// POST /notes/{id}/archive
func (h *NoteHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.respondNote(w, r, h.service.Archive)
}

// Unarchive はノートのアーカイブを解除する。
// POST /notes/{id}/unarchive
func (h *NoteHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.respondNote(w, r, h.service.Unarchive)
}

// Trash はノートをゴミ箱に移動する。
// POST /notes/{id}/trash
func (h *NoteHandler) Trash(w http.ResponseWriter, r *http.Request) {
	h.respondNote(w, r, h.service.SoftDelete)
}

// Restore はノートをゴミ箱から戻す。
// POST /notes/{id}/restore
func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.respondNote(w, r, h.service.Restore)
}

// Delete はノートを完全に削除する。
// DELETE /notes/{id}
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.PermanentDelete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListActive はアクティブなノート一覧を返す。
// GET /notes
func (h *NoteHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.respondNotes(w, r, h.service.ListActive)
}

// ListArchived はアーカイブ済みノート一覧を返す。
// GET /notes/archived
func (h *NoteHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	h.respondNotes(w, r, h.service.ListArchived)
}

// ListTrashed はゴミ箱内のノート一覧を返す。
// GET /notes/trash
func (h *NoteHandler) ListTrashed(w http.ResponseWriter, r *http.Request) {
	h.respondNotes(w, r, h.service.ListTrashed)
}

// ListHighlights はログインユーザーのハイライト一覧を返す。
// GET /notes/highlights
func (h *NoteHandler) ListHighlights(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	highlights, err := h.service.ListHighlights(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := highlightListEnvelope{Highlights: make([]highlightResponse, 0, len(highlights))}
	for _, hl := range highlights {
		resp.Highlights = append(resp.Highlights, highlightResponse{
			ID:        hl.ID,
			Content:   hl.Content,
			NoteID:    hl.NoteID,
			AuthorID:  hl.AuthorID,
			CreatedAt: hl.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- ヘルパー関数 ---

// respondNote はURLのidに対する単一ノート操作を実行し、結果を返す。
func (h *NoteHandler) respondNote(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, subject, id string) (*model.Note, error)) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	n, err := op(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, noteEnvelope{Note: toNoteResponse(n)})
}

// respondNotes はノート一覧取得を実行し、結果を返す。
func (h *NoteHandler) respondNotes(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, subject string) ([]*model.Note, error)) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notes, err := list(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := noteListEnvelope{Notes: make([]noteResponse, 0, len(notes))}
	for _, n := range notes {
		resp.Notes = append(resp.Notes, toNoteResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

// toNoteResponse はmodel.NoteからAPIレスポンスに変換する。
func toNoteResponse(n *model.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Archived:  n.Archived,
		Trashed:   n.Trashed,
		AuthorID:  n.AuthorID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
