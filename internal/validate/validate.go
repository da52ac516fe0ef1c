// Package validate holds the pure input-validation helpers used by the post
// handlers. Everything here is a total function over strings — no I/O, no
// errors, which keeps the handlers' failure paths down to "field errors or
// proceed".
package validate

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// PlainTextFromHTML strips tags, collapses runs of whitespace to a single
// space, and trims. It exists only to detect "effectively empty" rich-text
// content — a post body of "<p><br></p>" should fail the required check.
// It is NOT a sanitizer; content is stored as submitted.
func PlainTextFromHTML(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ParseTags splits a comma-separated tag string into a list of clean tags:
// each entry is trimmed, a single leading '#' is stripped, and empties are
// dropped. Order is preserved and duplicates are kept — the caller decides
// whether duplicates matter.
func ParseTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimPrefix(strings.TrimSpace(part), "#")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// PostInput is the submitted form data a post write/edit carries.
type PostInput struct {
	Title               string
	Content             string
	EditPassword        string
	EditPasswordConfirm string
}

// PostContext describes the request situation the input is validated in.
// RequirePasswordConfirm defaults to true via NewPostContext — the write
// form shows a confirmation field, the edit form does not.
type PostContext struct {
	IsLoggedIn             bool
	IsAnonymousPost        bool
	RequirePasswordConfirm bool
}

// NewPostContext returns a PostContext with confirmation required, matching
// the write form's defaults.
func NewPostContext(isLoggedIn, isAnonymousPost bool) PostContext {
	return PostContext{
		IsLoggedIn:             isLoggedIn,
		IsAnonymousPost:        isAnonymousPost,
		RequirePasswordConfirm: true,
	}
}

// Result carries field-keyed error messages. Handlers echo it back to the
// client so the offending field can be highlighted; nothing here is ever
// raised as a Go error.
type Result struct {
	FieldErrors map[string]string `json:"fieldErrors"`
	HasErrors   bool              `json:"hasErrors"`
}

// ValidatePostInput applies the post submission rules:
//
//   - title must be non-blank
//   - content must be non-empty once reduced to plain text
//   - when not logged in: edit password of at least 4 characters, and a
//     matching confirmation when the context requires one
//   - an anonymous post submitted while logged in is rejected outright —
//     anonymous posts are only editable while logged out
func ValidatePostInput(input PostInput, ctx PostContext) Result {
	fieldErrors := make(map[string]string)

	if strings.TrimSpace(input.Title) == "" {
		fieldErrors["title"] = "please enter a title"
	}

	if PlainTextFromHTML(input.Content) == "" {
		fieldErrors["content"] = "please enter some content"
	}

	if !ctx.IsLoggedIn {
		if len(input.EditPassword) < 4 {
			fieldErrors["editPassword"] = "edit password must be at least 4 characters"
		}

		if ctx.RequirePasswordConfirm {
			if input.EditPasswordConfirm == "" {
				fieldErrors["editPasswordConfirm"] = "please confirm the edit password"
			} else if input.EditPassword != "" && input.EditPassword != input.EditPasswordConfirm {
				fieldErrors["editPasswordConfirm"] = "password confirmation does not match"
			}
		}
	}

	if ctx.IsAnonymousPost && ctx.IsLoggedIn {
		fieldErrors["editPassword"] = "anonymous posts can only be edited with their password while logged out"
	}

	return Result{
		FieldErrors: fieldErrors,
		HasErrors:   len(fieldErrors) > 0,
	}
}
