package note

import (
	"fmt"
	"strings"

	"github.com/hitoshi/notely/internal/model"
)

// 入力値の上限
const (
	MaxTitleLength     = 200
	MaxHighlightLength = 500
)

// CreateInput はノート作成の入力。nilは未指定を表す。
type CreateInput struct {
	Title   *string
	Content *string
}

// UpdateInput はノート部分更新の入力。nilのフィールドは変更しない。
// Highlightsがnilの場合はハイライトを追加しない。
type UpdateInput struct {
	Title      *string
	Content    *string
	Archived   *bool
	Trashed    *bool
	Highlights []string
}

// patch はノート本体に適用する部分更新を返す。
func (in UpdateInput) patch() model.NotePatch {
	return model.NotePatch{
		Title:    in.Title,
		Content:  in.Content,
		Archived: in.Archived,
		Trashed:  in.Trashed,
	}
}

// ValidateCreate はノート作成の入力を検証する。
func ValidateCreate(in CreateInput) *model.APIError {
	if in.Title == nil {
		return model.NewValidationError("title", "is required")
	}
	if verr := validateTitle(*in.Title); verr != nil {
		return verr
	}
	if in.Content == nil {
		return model.NewValidationError("content", "is required")
	}
	return nil
}

// ValidateUpdate はノート部分更新の入力を検証する。
// 更新対象が1つもない入力は拒否する。
func ValidateUpdate(in UpdateInput) *model.APIError {
	if in.patch().IsEmpty() && in.Highlights == nil {
		return model.NewValidationError("body", "at least one field must be provided")
	}
	if in.Title != nil {
		if verr := validateTitle(*in.Title); verr != nil {
			return verr
		}
	}
	for i, h := range in.Highlights {
		field := fmt.Sprintf("highlights[%d]", i)
		if strings.TrimSpace(h) == "" {
			return model.NewValidationError(field, "must not be empty")
		}
		if len([]rune(h)) > MaxHighlightLength {
			return model.NewValidationError(field, fmt.Sprintf("must be at most %d characters", MaxHighlightLength))
		}
	}
	return nil
}

func validateTitle(title string) *model.APIError {
	if len([]rune(title)) > MaxTitleLength {
		return model.NewValidationError("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	return nil
}

// dedupe は出現順を保ったまま重複した文字列を取り除く。
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
