// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/classpulse/cliparse"
	"github.com/danielhkuo/classpulse/db"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
)

// SetupSQLiteDB opens a private in-memory sqlite database with the full
// schema. A single pooled connection keeps the in-memory DB alive and
// serializes writers the way sqlite itself would.
func SetupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3000,
		DatabaseURL:    ":memory:",
		DatabaseType:   "sqlite",
		AllowedOrigins: []string{"*"},
	}
}

// NewTestPoll returns an open two-option poll fixture.
func NewTestPoll(id, presenter string) models.Poll {
	return models.Poll{
		ID:       id,
		Question: "Favorite color?",
		Options: []models.Option{
			{ID: 1, Text: "Red"},
			{ID: 2, Text: "Blue"},
		},
		Presenter: presenter,
		TimerSec:  30,
		Status:    models.StatusOpen,
		CreatedAt: time.Now().UTC(),
	}
}

// SeedPoll stores an open poll fixture and returns it.
func SeedPoll(t *testing.T, st *store.Memory, id, presenter string) models.Poll {
	t.Helper()

	p := NewTestPoll(id, presenter)
	if err := st.CreatePoll(context.Background(), p); err != nil {
		t.Fatalf("Failed to seed poll: %v", err)
	}
	return p
}

// EventRecorder captures published events for assertions. It satisfies the
// lifecycle manager's Publisher interface.
type EventRecorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

type RecordedEvent struct {
	Group string
	Event models.Event
}

func (r *EventRecorder) Publish(group string, e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Group: group, Event: e})
}

// Events returns a copy of everything published so far.
func (r *EventRecorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ByName returns the published events with the given event name.
func (r *EventRecorder) ByName(name string) []RecordedEvent {
	var out []RecordedEvent
	for _, ev := range r.Events() {
		if ev.Event.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
