package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/notely/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	updateNameFn func(ctx context.Context, id, name string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) UpdateName(ctx context.Context, id, name string) (*model.User, error) {
	if m.updateNameFn != nil {
		return m.updateNameFn(ctx, id, name)
	}
	return nil, nil
}
func (m *mockUserRepo) LinkGoogleID(ctx context.Context, id, googleID string) (*model.User, error) {
	return nil, nil
}

func apiErrorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// --- GetProfile ---

func TestGetProfile_ReturnsOwnProfile(t *testing.T) {
	picture := "https://example.com/a.png"
	repo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			if id != "user-1" {
				t.Errorf("id = %q, want %q", id, "user-1")
			}
			return &model.User{ID: "user-1", Name: "Ana", Email: "ana@x.com", Picture: &picture}, nil
		},
	}
	svc := NewService(repo)

	profile, err := svc.GetProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Ana" || profile.Email != "ana@x.com" {
		t.Errorf("profile = %+v", profile)
	}
	if profile.Picture == nil || *profile.Picture != picture {
		t.Errorf("picture = %v, want %q", profile.Picture, picture)
	}
}

func TestGetProfile_MissingUserIsNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	_, err := svc.GetProfile(context.Background(), "ghost")
	if code := apiErrorCode(err); code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

func TestGetProfile_RepositoryError(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.User, error) {
			return nil, errors.New("db error")
		},
	}
	svc := NewService(repo)

	_, err := svc.GetProfile(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if apiErrorCode(err) != "" {
		t.Errorf("repository failure must not be an APIError")
	}
}

// --- UpdateProfile ---

func TestUpdateProfile_RenamesUser(t *testing.T) {
	repo := &mockUserRepo{
		updateNameFn: func(_ context.Context, id, name string) (*model.User, error) {
			return &model.User{ID: id, Name: name, Email: "ana@x.com"}, nil
		},
	}
	svc := NewService(repo)

	profile, err := svc.UpdateProfile(context.Background(), "user-1", "Ana Maria")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Ana Maria" {
		t.Errorf("name = %q, want %q", profile.Name, "Ana Maria")
	}
}

func TestUpdateProfile_MissingUserIsNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	_, err := svc.UpdateProfile(context.Background(), "ghost", "Ana")
	if code := apiErrorCode(err); code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

func TestUpdateProfile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"too long", strings.Repeat("あ", MaxNameLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				updateNameFn: func(_ context.Context, _, _ string) (*model.User, error) {
					t.Fatal("UpdateName must not be called")
					return nil, nil
				},
			}
			svc := NewService(repo)

			_, err := svc.UpdateProfile(context.Background(), "user-1", tt.input)
			if code := apiErrorCode(err); code != model.ErrCodeValidation {
				t.Errorf("code = %q, want %q", code, model.ErrCodeValidation)
			}
		})
	}
}

func TestValidateName_AcceptsMaxLength(t *testing.T) {
	if verr := ValidateName(strings.Repeat("a", MaxNameLength)); verr != nil {
		t.Errorf("unexpected error: %v", verr)
	}
}
