package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/notely/internal/middleware"
	"github.com/hitoshi/notely/internal/model"
	"github.com/hitoshi/notely/internal/user"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn        func(ctx context.Context, name, email, password string) (string, error)
	loginFn           func(ctx context.Context, email, password string) (string, error)
	loginWithGoogleFn func(ctx context.Context, accessToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return "", nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "", nil
}

func (m *mockAuthService) LoginWithGoogle(ctx context.Context, accessToken string) (string, error) {
	if m.loginWithGoogleFn != nil {
		return m.loginWithGoogleFn(ctx, accessToken)
	}
	return "", nil
}

// mockProfileService はProfileServiceInterfaceのモック実装。
type mockProfileService struct {
	getProfileFn    func(ctx context.Context, subject string) (*user.Profile, error)
	updateProfileFn func(ctx context.Context, subject, name string) (*user.Profile, error)
}

func (m *mockProfileService) GetProfile(ctx context.Context, subject string) (*user.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, subject)
	}
	return nil, nil
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, subject, name string) (*user.Profile, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, subject, name)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// --- Register ---

func TestAuthHandler_Register_Success(t *testing.T) {
	var gotName, gotEmail, gotPassword string
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (string, error) {
			gotName, gotEmail, gotPassword = name, email, password
			return "signed-token", nil
		},
	}
	h := NewAuthHandler(svc, &mockProfileService{})

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(http.MethodPost, "/register", `{"name":"Ana","email":"ana@x.com","password":"secret1"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var body tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Token != "signed-token" {
		t.Errorf("token = %q, want %q", body.Token, "signed-token")
	}
	if gotName != "Ana" || gotEmail != "ana@x.com" || gotPassword != "secret1" {
		t.Errorf("service got (%q, %q, %q)", gotName, gotEmail, gotPassword)
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	called := false
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (string, error) {
			called = true
			return "", nil
		},
	}
	h := NewAuthHandler(svc, &mockProfileService{})

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(http.MethodPost, "/register", `not json`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("service should not be called for malformed body")
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidRequest)
	}
}

func TestAuthHandler_Register_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantField string
	}{
		{"conflict", model.NewUserAlreadyExistsError(), http.StatusConflict, ""},
		{"validation", model.NewValidationError("email", "must be a valid email address"), http.StatusBadRequest, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				registerFn: func(ctx context.Context, name, email, password string) (string, error) {
					return "", tt.err
				},
			}
			h := NewAuthHandler(svc, &mockProfileService{})

			w := httptest.NewRecorder()
			h.Register(w, jsonRequest(http.MethodPost, "/register", `{"name":"Ana","email":"bad","password":"secret1"}`))

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if body := parseAPIErrorResponse(t, w); body["field"] != tt.wantField {
				t.Errorf("field = %q, want %q", body["field"], tt.wantField)
			}
		})
	}
}

// --- Login / Google ---

func TestAuthHandler_Login_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unknown user", model.NewUserNotFoundError(), http.StatusNotFound},
		{"bad password", model.NewInvalidPasswordError(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, email, password string) (string, error) {
					return "", tt.err
				},
			}
			h := NewAuthHandler(svc, &mockProfileService{})

			w := httptest.NewRecorder()
			h.Login(w, jsonRequest(http.MethodPost, "/login", `{"email":"ana@x.com","password":"nope"}`))

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, error) {
			return "login-token", nil
		},
	}
	h := NewAuthHandler(svc, &mockProfileService{})

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/login", `{"email":"ana@x.com","password":"secret1"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body tokenResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.Token != "login-token" {
		t.Errorf("token = %q, want %q", body.Token, "login-token")
	}
}

func TestAuthHandler_Google_PassesAccessToken(t *testing.T) {
	var got string
	svc := &mockAuthService{
		loginWithGoogleFn: func(ctx context.Context, accessToken string) (string, error) {
			got = accessToken
			return "google-session", nil
		},
	}
	h := NewAuthHandler(svc, &mockProfileService{})

	w := httptest.NewRecorder()
	h.Google(w, jsonRequest(http.MethodPost, "/google", `{"accessToken":"ya29.token"}`))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got != "ya29.token" {
		t.Errorf("accessToken = %q, want %q", got, "ya29.token")
	}
}

func TestAuthHandler_Google_UpstreamFailureIs502(t *testing.T) {
	svc := &mockAuthService{
		loginWithGoogleFn: func(ctx context.Context, accessToken string) (string, error) {
			return "", model.NewUpstreamError("timeout")
		},
	}
	h := NewAuthHandler(svc, &mockProfileService{})

	w := httptest.NewRecorder()
	h.Google(w, jsonRequest(http.MethodPost, "/google", `{"accessToken":"ya29.token"}`))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

// --- Me ---

func TestAuthHandler_Me_ReturnsProfile(t *testing.T) {
	profiles := &mockProfileService{
		getProfileFn: func(ctx context.Context, subject string) (*user.Profile, error) {
			if subject != "user-1" {
				t.Errorf("subject = %q, want %q", subject, "user-1")
			}
			return &user.Profile{Name: "Ana", Email: "ana@x.com"}, nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, profiles)

	w := httptest.NewRecorder()
	h.Me(w, withUserID(httptest.NewRequest(http.MethodGet, "/me", nil), "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	u := body["user"]
	if u["name"] != "Ana" || u["email"] != "ana@x.com" {
		t.Errorf("user = %v", u)
	}
	if pic, ok := u["picture"]; !ok || pic != nil {
		t.Errorf("picture = %v (present=%v), want null", pic, ok)
	}
}

func TestAuthHandler_Me_WithoutUserIDIs401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockProfileService{})

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_Me_UserDeletedIs404(t *testing.T) {
	profiles := &mockProfileService{
		getProfileFn: func(ctx context.Context, subject string) (*user.Profile, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(&mockAuthService{}, profiles)

	w := httptest.NewRecorder()
	h.Me(w, withUserID(httptest.NewRequest(http.MethodGet, "/me", nil), "ghost"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAuthHandler_UpdateMe_ReturnsName(t *testing.T) {
	profiles := &mockProfileService{
		updateProfileFn: func(ctx context.Context, subject, name string) (*user.Profile, error) {
			return &user.Profile{Name: name, Email: "ana@x.com"}, nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, profiles)

	w := httptest.NewRecorder()
	h.UpdateMe(w, withUserID(jsonRequest(http.MethodPut, "/me", `{"name":"Ana Maria"}`), "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body profileNameEnvelope
	json.NewDecoder(w.Body).Decode(&body)
	if body.User.Name != "Ana Maria" {
		t.Errorf("name = %q, want %q", body.User.Name, "Ana Maria")
	}
}
