package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reflections/internal/models"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp accepts RFC3339 or a zone-less date time, read as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q; expected RFC3339 or YYYY-MM-DDTHH:MM:SS", s)
}

type classifyRequest struct {
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

type classifyResponse struct {
	Topics []string `json:"topics"`
}

type createReflectionRequest struct {
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
	Topics    []string  `json:"topics"`
}

type createReflectionResponse struct {
	ReflectionID int64 `json:"reflection_id"`
}

type topicsRequest struct {
	Names []string `json:"names"`
}

type TopicDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toTopicDTOs(topics []models.Topic) []TopicDTO {
	out := make([]TopicDTO, len(topics))
	for i, t := range topics {
		out[i] = TopicDTO{ID: t.ID, Name: t.Name}
	}
	return out
}

// ReflectionDetailDTO is the single-reflection view, which carries no ID.
type ReflectionDetailDTO struct {
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Topics    []string  `json:"topics"`
}

func toReflectionDetailDTO(r models.Reflection) ReflectionDetailDTO {
	return ReflectionDetailDTO{
		Title:     r.Title,
		Text:      r.Text,
		Timestamp: r.Timestamp.UTC(),
		Topics:    nonNil(r.Topics),
	}
}

// ReflectionDTO is a list entry.
type ReflectionDTO struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Topics    []string  `json:"topics"`
}

func toReflectionDTO(r models.Reflection) ReflectionDTO {
	return ReflectionDTO{
		ID:        r.ID,
		Title:     r.Title,
		Text:      r.Text,
		Timestamp: r.Timestamp.UTC(),
		Topics:    nonNil(r.Topics),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
