package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/notely/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeValidation, http.StatusBadRequest},
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeInvalidProviderProfile, http.StatusBadRequest},
		{model.ErrCodeUserAlreadyExists, http.StatusConflict},
		{model.ErrCodeUserNotFound, http.StatusNotFound},
		{model.ErrCodeNoteNotFound, http.StatusNotFound},
		{model.ErrCodeForbidden, http.StatusForbidden},
		{model.ErrCodeInvalidPassword, http.StatusUnauthorized},
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{model.ErrCodeUpstream, http.StatusBadGateway},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code}); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, fmt.Errorf("context: %w", model.NewForbiddenError()))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestHandleServiceError_InternalHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.New("pq: connection refused to 10.0.0.5"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Errorf("response leaks internal details: %s", w.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["code"] != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInternal)
	}
}

func TestDecodeJSON_RejectsMalformedAndMistypedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"title":`},
		{"wrong type", `{"title": 42}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(tt.body))
			var dst createNoteRequest
			apiErr := decodeJSON(req, &dst)
			if apiErr == nil {
				t.Fatal("expected error")
			}
			if apiErr.Code != model.ErrCodeInvalidRequest {
				t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
			}
		})
	}
}
