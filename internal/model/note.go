// Package model はドメインモデルを定義する。
package model

import "time"

// Note はユーザーが所有するノートを表す。
// ArchivedとTrashedは独立したフラグで、両方trueの場合はゴミ箱が優先される。
type Note struct {
	ID        string
	Title     string
	Content   string // サニタイズ済みHTML
	Archived  bool
	Trashed   bool
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteState はノートの実効的な表示状態を表す。
type NoteState string

const (
	// NoteStateActive はメイン一覧に表示される状態。
	NoteStateActive NoteState = "active"
	// NoteStateArchived はアーカイブ一覧に表示される状態。
	NoteStateArchived NoteState = "archived"
	// NoteStateTrashed はゴミ箱に表示される状態。完全削除の対象となる。
	NoteStateTrashed NoteState = "trashed"
)

// State は2つのフラグから実効的な状態を求める。
func (n *Note) State() NoteState {
	switch {
	case n.Trashed:
		return NoteStateTrashed
	case n.Archived:
		return NoteStateArchived
	default:
		return NoteStateActive
	}
}

// NotePatch はノートの部分更新内容を表す。
// nilフィールドは変更せず、既存の値を維持する。
type NotePatch struct {
	Title    *string
	Content  *string
	Archived *bool
	Trashed  *bool
}

// IsEmpty は更新対象のフィールドが1つも指定されていないかを返す。
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Archived == nil && p.Trashed == nil
}

// Highlight はノートに紐づくユーザー作成の短い注釈を表す。
// contentはストア全体で一意に扱われる。
type Highlight struct {
	ID        string
	Content   string
	NoteID    string
	AuthorID  string
	CreatedAt time.Time
}
