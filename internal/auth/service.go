// Package auth はローカル認証、Googleログイン、セッショントークンの発行と検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/notely/internal/metrics"
	"github.com/hitoshi/notely/internal/model"
	"github.com/hitoshi/notely/internal/repository"
)

// 認証方式のラベル
const (
	methodRegister = "register"
	methodPassword = "password"
	methodGoogle   = "google"
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   *TokenIssuer
	provider ProfileProvider
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	provider ProfileProvider,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		provider: provider,
		metrics:  collector,
	}
}

// Register はローカル認証ユーザーを作成し、セッショントークンを返す。
// 同じメールアドレスのユーザーが存在する場合は書き込みを行わずにエラーを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	if verr := ValidateRegister(name, email, password); verr != nil {
		return "", verr
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		s.metrics.RecordAuthAttempt(methodRegister, metrics.AuthOutcomeFailure)
		return "", model.NewUserAlreadyExistsError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 存在確認と作成の間に同じメールアドレスで登録された場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.RecordAuthAttempt(methodRegister, metrics.AuthOutcomeFailure)
			return "", model.NewUserAlreadyExistsError()
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)
	s.metrics.RecordAuthAttempt(methodRegister, metrics.AuthOutcomeSuccess)

	return s.tokens.Issue(user)
}

// Login はメールアドレスとパスワードで認証し、セッショントークンを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if verr := ValidateLogin(email, password); verr != nil {
		return "", verr
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		s.metrics.RecordAuthAttempt(methodPassword, metrics.AuthOutcomeFailure)
		return "", model.NewUserNotFoundError()
	}

	// Googleログインのみのユーザーはパスワードを持たない
	if !user.HasPassword() {
		s.metrics.RecordAuthAttempt(methodPassword, metrics.AuthOutcomeFailure)
		return "", model.NewInvalidPasswordError()
	}

	ok, err := s.hasher.Compare(*user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		slog.Warn("password mismatch",
			slog.String("user_id", user.ID),
		)
		s.metrics.RecordAuthAttempt(methodPassword, metrics.AuthOutcomeFailure)
		return "", model.NewInvalidPasswordError()
	}

	s.metrics.RecordAuthAttempt(methodPassword, metrics.AuthOutcomeSuccess)
	return s.tokens.Issue(user)
}

// LoginWithGoogle はGoogleのアクセストークンでプロフィールを取得し、
// メールアドレスをキーにユーザーを検索または作成してセッショントークンを返す。
// 既存ユーザーにGoogleのユーザーIDが未連携の場合は連携する。
func (s *Service) LoginWithGoogle(ctx context.Context, accessToken string) (string, error) {
	if verr := ValidateAccessToken(accessToken); verr != nil {
		return "", verr
	}

	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		s.metrics.RecordAuthAttempt(methodGoogle, metrics.AuthOutcomeFailure)
		if errors.Is(err, ErrProviderUnavailable) {
			slog.Warn("google user info request failed",
				slog.String("error", err.Error()),
			)
			return "", model.NewUpstreamError("could not fetch Google user info")
		}
		return "", fmt.Errorf("failed to fetch google profile: %w", err)
	}

	if !validProviderProfile(profile) {
		s.metrics.RecordAuthAttempt(methodGoogle, metrics.AuthOutcomeFailure)
		return "", model.NewInvalidProviderProfileError()
	}

	user, err := s.findOrCreateGoogleUser(ctx, profile)
	if err != nil {
		return "", err
	}

	if user.GoogleID == nil {
		linked, err := s.userRepo.LinkGoogleID(ctx, user.ID, profile.ID)
		if err != nil {
			return "", fmt.Errorf("failed to link google id: %w", err)
		}
		if linked == nil {
			return "", model.NewUserNotFoundError()
		}
		slog.Info("google account linked",
			slog.String("user_id", user.ID),
		)
		user = linked
	}

	s.metrics.RecordAuthAttempt(methodGoogle, metrics.AuthOutcomeSuccess)
	return s.tokens.Issue(user)
}

// findOrCreateGoogleUser はメールアドレスでユーザーを検索し、存在しなければ作成する。
func (s *Service) findOrCreateGoogleUser(ctx context.Context, profile *ProviderProfile) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user != nil {
		return user, nil
	}

	now := time.Now()
	googleID := profile.ID
	user = &model.User{
		ID:        uuid.New().String(),
		Email:     profile.Email,
		Name:      truncateName(profile.Name),
		GoogleID:  &googleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile.Picture != "" {
		picture := profile.Picture
		user.Picture = &picture
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		// 同時ログインで先に作成された場合は既存ユーザーを使用する
		existing, err := s.userRepo.FindByEmail(ctx, profile.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to find user by email: %w", err)
		}
		if existing == nil {
			return nil, model.NewUserNotFoundError()
		}
		return existing, nil
	}

	slog.Info("user created from google profile",
		slog.String("user_id", user.ID),
	)
	return user, nil
}

// VerifyToken はセッショントークンを検証し、クレームを返す。
// 検証に失敗した場合は常にUNAUTHORIZEDを返す。
func (s *Service) VerifyToken(token string) (*model.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		slog.Debug("token verification failed",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUnauthorizedError()
	}
	return claims, nil
}

// RequireOwner はリソースの所有者と呼び出し元が一致するかを検証する。
// 一致しない場合はFORBIDDENを返す。存在確認は呼び出し側で先に行うこと。
func RequireOwner(ownerID, subject string) error {
	if ownerID == "" || ownerID != subject {
		return model.NewForbiddenError()
	}
	return nil
}
