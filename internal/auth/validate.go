package auth

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/hitoshi/notely/internal/model"
)

// パスワード長の制約。上限はbcryptが扱えるバイト数。
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// ValidateRegister はユーザー登録の入力を検証する。
func ValidateRegister(name, email, password string) *model.APIError {
	if strings.TrimSpace(name) == "" {
		return model.NewValidationError("name", "is required")
	}
	if len([]rune(name)) > model.MaxUserNameLength {
		return model.NewValidationError("name", fmt.Sprintf("must be at most %d characters", model.MaxUserNameLength))
	}
	return validateCredentials(email, password)
}

// ValidateLogin はログインの入力を検証する。
func ValidateLogin(email, password string) *model.APIError {
	return validateCredentials(email, password)
}

// ValidateAccessToken はGoogleログインの入力を検証する。
func ValidateAccessToken(accessToken string) *model.APIError {
	if strings.TrimSpace(accessToken) == "" {
		return model.NewValidationError("accessToken", "is required")
	}
	return nil
}

func validateCredentials(email, password string) *model.APIError {
	if len(email) > model.MaxEmailLength {
		return model.NewValidationError("email", fmt.Sprintf("must be at most %d bytes", model.MaxEmailLength))
	}
	if !IsValidEmail(email) {
		return model.NewValidationError("email", "must be a valid email address")
	}
	if len([]rune(password)) < MinPasswordLength {
		return model.NewValidationError("password", "must be at least 6 characters")
	}
	if len(password) > MaxPasswordBytes {
		return model.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

// IsValidEmail はemailが表示名などを含まない単一のメールアドレスかを判定する。
func IsValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// "Ana <ana@x.com>" のような形式は受け付けない
	return addr.Address == email
}

// validProviderProfile はIdPのプロフィールがユーザー作成に必要な項目を備えているかを判定する。
func validProviderProfile(p *ProviderProfile) bool {
	return p != nil &&
		strings.TrimSpace(p.ID) != "" &&
		strings.TrimSpace(p.Name) != "" &&
		len(p.Email) <= model.MaxEmailLength &&
		IsValidEmail(p.Email)
}

// truncateName は表示名を上限の文字数までに切り詰める。
// IdPの表示名は利用者が変更できないため、拒否せずに切り詰める。
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= model.MaxUserNameLength {
		return name
	}
	return string(runes[:model.MaxUserNameLength])
}
