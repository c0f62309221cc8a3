package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultGoogleTimeout     = 10 * time.Second
	maxUserInfoBodySize      = 1 << 20
)

// ErrProviderUnavailable はIdPへの問い合わせ自体が失敗した場合に返される。
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// ProviderProfile はIdPから取得したユーザープロフィールを表す。
type ProviderProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// ProfileProvider はアクセストークンからIdPのプロフィールを取得するインターフェース。
type ProfileProvider interface {
	FetchProfile(ctx context.Context, accessToken string) (*ProviderProfile, error)
}

// GoogleProviderConfig はGoogleユーザー情報クライアントの設定。
type GoogleProviderConfig struct {
	// テスト用にオーバーライド可能なURL
	UserInfoURL string
	Timeout     time.Duration
}

// GoogleProvider はクライアントが取得したGoogleのアクセストークンで
// userinfoエンドポイントからプロフィールを取得する。
type GoogleProvider struct {
	userInfoURL string
	client      *http.Client
}

// NewGoogleProvider はGoogleProviderを生成する。
func NewGoogleProvider(config GoogleProviderConfig) *GoogleProvider {
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultGoogleTimeout
	}
	return &GoogleProvider{
		userInfoURL: config.UserInfoURL,
		client:      &http.Client{Timeout: config.Timeout},
	}
}

// FetchProfile はアクセストークンでGoogleのユーザー情報を取得する。
// 通信エラーおよび200以外の応答はErrProviderUnavailableでラップして返す。
// プロフィール項目の欠落はここでは判定しない。
func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (*ProviderProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: user info request failed: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read user info response: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: user info fetch failed with status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var profile ProviderProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: failed to parse user info response: %v", ErrProviderUnavailable, err)
	}

	return &profile, nil
}

// compile-time interface check
var _ ProfileProvider = (*GoogleProvider)(nil)
