// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, note, system
	Action   string // ユーザー向け対処方法
	Field    string // バリデーションエラー時の対象フィールド（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeInvalidProviderProfile = "INVALID_PROVIDER_PROFILE"
	ErrCodeUserAlreadyExists      = "USER_ALREADY_EXISTS"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeNoteNotFound           = "NOTE_NOT_FOUND"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeInvalidPassword        = "INVALID_PASSWORD"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeUpstream               = "UPSTREAM_ERROR"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewValidationError は入力値のバリデーションエラーを生成する。
// fieldには問題のあるフィールド名を指定する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("%s: %s", field, reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Field:    field,
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Malformed request body",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidProviderProfileError は外部IdPから取得したプロフィールが不完全な場合のエラーを生成する。
func NewInvalidProviderProfileError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProviderProfile,
		Message:  "Invalid user data from Google",
		Category: "auth",
		Action:   "Googleアカウントの名前とメールアドレスの公開設定を確認してください。",
	}
}

// NewUserAlreadyExistsError はメールアドレスが登録済みの場合のエラーを生成する。
func NewUserAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  "User already exists",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスで登録してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "メールアドレスを確認するか、新規登録してください。",
	}
}

// NewNoteNotFoundError はノートが存在しない場合のエラーを生成する。
func NewNoteNotFoundError(noteID string) *APIError {
	return &APIError{
		Code:     ErrCodeNoteNotFound,
		Message:  fmt.Sprintf("Note not found: %s", noteID),
		Category: "note",
		Action:   "ノートIDを確認してください。",
	}
}

// NewForbiddenError は他ユーザーが所有するリソースへのアクセスエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Unauthorized",
		Category: "auth",
		Action:   "自分が作成したノートのみ操作できます。",
	}
}

// NewInvalidPasswordError はパスワード不一致のエラーを生成する。
func NewInvalidPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPassword,
		Message:  "Invalid password",
		Category: "auth",
		Action:   "パスワードを確認してください。",
	}
}

// NewUnauthorizedError はトークン未指定・無効時のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewUpstreamError は外部IdPへの問い合わせ失敗エラーを生成する。
func NewUpstreamError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstream,
		Message:  fmt.Sprintf("Identity provider request failed: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
