package domain

import (
	"fmt"
	"strings"
)

// ContentType is the kind of educational content a bookmark points at.
type ContentType string

const (
	ContentArticle  ContentType = "article"
	ContentVideo    ContentType = "video"
	ContentExercise ContentType = "exercise"
)

// ContentTypes lists every content type in display order.
var ContentTypes = []ContentType{ContentArticle, ContentVideo, ContentExercise}

// ParseContentType normalizes a backend type tag into a ContentType.
// It accepts plain names ("article"), plurals ("videos"), any casing and
// namespaced model names ("App\\Models\\Exercise").
func ParseContentType(raw string) (ContentType, error) {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndexAny(s, `\/.`); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, "s")
	switch ContentType(s) {
	case ContentArticle, ContentVideo, ContentExercise:
		return ContentType(s), nil
	}
	return "", fmt.Errorf("unknown content type %q", raw)
}

// Plural returns the path segment used by the content listing endpoints.
func (t ContentType) Plural() string {
	return string(t) + "s"
}

// Content is an article, video or exercise as returned by the backend.
type Content struct {
	ID          ID          `json:"id"`
	Type        ContentType `json:"type,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ReadTime    int         `json:"read_time,omitempty"` // minutes
	URL         string      `json:"url,omitempty"`
	Category    string      `json:"category,omitempty"`
}
