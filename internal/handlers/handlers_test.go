package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflections/internal/classifier"
	"reflections/internal/db/dbtest"
	"reflections/internal/handlers"
	"reflections/internal/metrics"
	"reflections/internal/services"
	"reflections/internal/store"
)

type server struct {
	conn    *sqlx.DB
	handler http.Handler
}

func newServer(t *testing.T, cls classifier.Classifier) server {
	t.Helper()
	conn := dbtest.New(t)
	m := metrics.NewCollector("reflections")
	registry := store.NewTopicRegistry(conn, m)

	return server{
		conn: conn,
		handler: handlers.NewRouter(handlers.Deps{
			Users:  store.NewUserStore(conn),
			Stats:  store.NewStatsStore(conn),
			Topics: services.NewTopicService(conn, registry),
			Workflow: services.NewReflectionWorkflow(services.WorkflowDeps{
				Conn:        conn,
				Topics:      registry,
				Reflections: store.NewReflectionStore(conn, registry),
				Classifier:  cls,
				Metrics:     m,
			}),
			Metrics: m,
		}),
	}
}

func (s server) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type topic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestHealth(t *testing.T) {
	s := newServer(t, classifier.KeywordClassifier{})

	rec := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUsers(t *testing.T) {
	s := newServer(t, classifier.KeywordClassifier{})
	dbtest.CreateUser(t, s.conn, "John", "john@test.com")

	rec := s.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"first_name":"John","email":"john@test.com"}]`, rec.Body.String())
}

func TestTopics(t *testing.T) {
	s := newServer(t, classifier.KeywordClassifier{})
	dbtest.CreateUser(t, s.conn, "John", "john@test.com")

	rec := s.do(t, http.MethodPost, "/api/topics?user_id=1", map[string]any{"names": []string{"health", "arts"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[[]topic](t, rec)

	rec = s.do(t, http.MethodPost, "/api/topics?user_id=1", map[string]any{"names": []string{"arts", "sleep"}})
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[[]topic](t, rec)
	assert.Equal(t, created[1], again[0])
	assert.Equal(t, "sleep", again[1].Name)

	rec = s.do(t, http.MethodGet, "/api/topics?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]topic](t, rec), 3)

	rec = s.do(t, http.MethodGet, "/api/topics?user_id=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/topics", map[string]any{"names": []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/topics?user_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReflectionFlow(t *testing.T) {
	s := newServer(t, classifier.Func(func(context.Context, string, string, []string) ([]string, error) {
		return []string{"health", "exercise"}, nil
	}))
	dbtest.CreateUser(t, s.conn, "John", "john@test.com")
	s.do(t, http.MethodPost, "/api/topics?user_id=1", map[string]any{"names": []string{"learning", "health"}})

	draft := map[string]any{
		"user_id":   1,
		"title":     "Morning run",
		"text":      "Ran 5k before work.",
		"timestamp": "2024-03-01T07:30:00",
	}
	rec := s.do(t, http.MethodPost, "/api/reflections/classify", draft)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"topics":["health","exercise"]}`, rec.Body.String())

	draft["topics"] = []string{"health", "exercise"}
	rec = s.do(t, http.MethodPost, "/api/reflections", draft)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"reflection_id":1}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/reflections/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "Morning run", got["title"])
	assert.Equal(t, "2024-03-01T07:30:00Z", got["timestamp"])
	assert.ElementsMatch(t, []any{"health", "exercise"}, got["topics"])
	assert.NotContains(t, got, "id")

	rec = s.do(t, http.MethodGet, "/api/reflections?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0]["id"])

	rec = s.do(t, http.MethodGet, "/api/reflections?user_id=2", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/topics?user_id=1", nil)
	names := []string{}
	for _, tp := range decode[[]topic](t, rec) {
		names = append(names, tp.Name)
	}
	assert.Equal(t, []string{"learning", "health", "exercise"}, names)

	rec = s.do(t, http.MethodGet, "/api/stats?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, stats["total_reflections"])
	assert.EqualValues(t, 3, stats["total_topics"])

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reflections_reflections_created_total 1")
}

func TestGetReflection_NotFound(t *testing.T) {
	s := newServer(t, classifier.KeywordClassifier{})

	for _, path := range []string{"/api/reflections/99", "/api/reflections/nope"} {
		rec := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Reflection not found"}`, rec.Body.String())
	}
}

func TestCreateReflection_Errors(t *testing.T) {
	s := newServer(t, classifier.KeywordClassifier{})
	dbtest.CreateUser(t, s.conn, "John", "john@test.com")

	rec := s.do(t, http.MethodPost, "/api/reflections", map[string]any{
		"user_id": 1, "title": "", "text": "x", "timestamp": "2024-03-01T07:30:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/reflections", map[string]any{
		"user_id": 1, "title": "t", "text": "x", "timestamp": "yesterday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/reflections", map[string]any{
		"user_id": 77, "title": "t", "text": "x", "timestamp": "2024-03-01 07:30:00", "topics": []string{"a"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reflections", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassify_ClassifierDown(t *testing.T) {
	s := newServer(t, classifier.Func(func(context.Context, string, string, []string) ([]string, error) {
		return nil, errors.New("connection refused")
	}))
	dbtest.CreateUser(t, s.conn, "John", "john@test.com")

	rec := s.do(t, http.MethodPost, "/api/reflections/classify", map[string]any{
		"user_id": 1, "title": "t", "text": "x", "timestamp": "2024-03-01T07:30:00Z",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"classifier unavailable"}`, rec.Body.String())
}
