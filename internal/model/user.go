// Package model はドメインモデルを定義する。
package model

import "time"

// ユーザー属性の最大文字数。emailはusers.emailの列長に合わせる。
const (
	MaxUserNameLength = 100
	MaxEmailLength    = 320
)

// User はサービス利用ユーザーを表す。
// Googleログインのみで作成されたユーザーはPasswordHashを持たない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash *string
	GoogleID     *string
	Picture      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はローカル認証用のパスワードが設定されているかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Claims はセッショントークンに格納される認証情報を表す。
// Subjectは認可判定に使用するユーザーID。
type Claims struct {
	Subject string
	Name    string
	Email   string
}
