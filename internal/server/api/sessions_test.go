package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ayusman/courtside/internal/store"
)

func TestSessionHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewSessionHandler(s)

	older := &store.Session{StartedAt: time.Now().Add(-time.Hour)}
	if err := s.Sessions().Create(older); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.Sessions().End(older.ID, time.Now().Add(-30*time.Minute)); err != nil {
		t.Fatalf("end session: %v", err)
	}

	current := &store.Session{StartX: 10, StartY: -5, HasStart: true}
	if err := s.Sessions().Create(current); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, tr := range []*store.Transition{
		{SessionID: current.ID, From: "tracking", To: "awaiting_regain", X: 1, Y: 2, At: 1500 * time.Millisecond},
		{SessionID: current.ID, From: "awaiting_regain", To: "tracking", X: 10, Y: -5, At: 3 * time.Second},
	} {
		if err := s.Transitions().Record(tr); err != nil {
			t.Fatalf("record transition: %v", err)
		}
	}

	t.Run("list newest first", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/sessions", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if len(resp.Sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(resp.Sessions))
		}
		if resp.Sessions[0].ID != current.ID || !resp.Sessions[0].Active {
			t.Errorf("first session = %+v, want the active one", resp.Sessions[0])
		}
		if resp.Sessions[1].Active || resp.Sessions[1].EndedAt == "" {
			t.Errorf("second session = %+v, want ended", resp.Sessions[1])
		}
	})

	t.Run("list with limit", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/sessions?limit=1", "")
		var resp listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if len(resp.Sessions) != 1 {
			t.Errorf("got %d sessions, want 1", len(resp.Sessions))
		}

		rec = doJSON(t, h, http.MethodGet, "/api/sessions?limit=x", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("bad limit status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("get includes transitions", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/sessions/"+current.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp sessionDetailResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Start == nil || resp.Start.X != 10 || resp.Start.Y != -5 {
			t.Errorf("start = %+v, want (10, -5)", resp.Start)
		}
		if len(resp.Transitions) != 2 {
			t.Fatalf("got %d transitions, want 2", len(resp.Transitions))
		}
		if resp.Transitions[0].To != "awaiting_regain" || resp.Transitions[0].AtMS != 1500 {
			t.Errorf("first transition = %+v", resp.Transitions[0])
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/sessions/missing", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/api/sessions/"+current.ID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}

		n, err := s.Transitions().CountBySession(current.ID)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Errorf("%d transitions left after delete", n)
		}
	})

	t.Run("collection is read only", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/sessions", "{}")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}
