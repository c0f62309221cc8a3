// Package user はログインユーザー自身のプロフィール参照と更新を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/notely/internal/model"
	"github.com/hitoshi/notely/internal/repository"
)

// MaxNameLength は表示名の最大文字数。登録時の上限と同じ。
const MaxNameLength = model.MaxUserNameLength

// Profile は公開用のユーザープロフィール。
type Profile struct {
	Name    string
	Email   string
	Picture *string
}

// Service はユーザープロフィールのサービス層。
// 対象ユーザーは検証済みトークンのsubjectのみで決まるため、他ユーザーへのアクセス手段はない。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// ValidateName はプロフィール更新の表示名を検証する。
func ValidateName(name string) *model.APIError {
	if strings.TrimSpace(name) == "" {
		return model.NewValidationError("name", "is required")
	}
	if len([]rune(name)) > MaxNameLength {
		return model.NewValidationError("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
	return nil
}

// GetProfile はsubjectのプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, subject string) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return &Profile{
		Name:    user.Name,
		Email:   user.Email,
		Picture: user.Picture,
	}, nil
}

// UpdateProfile はsubjectの表示名を変更し、更新後のプロフィールを返す。
func (s *Service) UpdateProfile(ctx context.Context, subject, name string) (*Profile, error) {
	if verr := ValidateName(name); verr != nil {
		return nil, verr
	}

	user, err := s.userRepo.UpdateName(ctx, subject, name)
	if err != nil {
		return nil, fmt.Errorf("ユーザー名の更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("プロフィールを更新しました",
		slog.String("user_id", subject),
	)

	return &Profile{
		Name:    user.Name,
		Email:   user.Email,
		Picture: user.Picture,
	}, nil
}
