package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/http/middleware"
)

func TestConnectionRequest_Lifecycle(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u1", "Ann", "ann@example.com")
	e.identity(t, "u2", "Bob", "bob@example.com")

	// Missing caller.
	w := e.do(t, http.MethodPost, "/connection-requests", "", SendConnectionRequest{ToID: "u2"})
	expectCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)

	// Request to self.
	w = e.do(t, http.MethodPost, "/connection-requests", "u1", SendConnectionRequest{ToID: "u1"})
	expectCode(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(t, http.MethodPost, "/connection-requests", "u1", SendConnectionRequest{ToID: "u2", Note: "hi"})
	expectCode(t, w, http.StatusCreated, "")
	req := decode[domain.ConnectionRequest](t, w)
	if req.Status != domain.RequestPending || req.FromID != "u1" || req.ToID != "u2" {
		t.Fatalf("unexpected request: %+v", req)
	}

	// One pending request per pair, in either direction.
	w = e.do(t, http.MethodPost, "/connection-requests", "u2", SendConnectionRequest{ToID: "u1"})
	expectCode(t, w, http.StatusConflict, ErrCodeDuplicateRequest)

	w = e.do(t, http.MethodGet, "/connection-requests?direction=incoming", "u2", nil)
	expectCode(t, w, http.StatusOK, "")
	list := decode[ListConnectionRequestsResponse](t, w)
	if len(list.Requests) != 1 || list.Pagination.Total != 1 || list.Requests[0].ID != req.ID {
		t.Fatalf("incoming list = %+v", list)
	}
	w = e.do(t, http.MethodGet, "/connection-requests?direction=sideways", "u2", nil)
	expectCode(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	// Only the addressee may respond.
	w = e.do(t, http.MethodPost, "/connection-requests/"+req.ID+"/respond", "u1", RespondRequest{Action: domain.ActionAccept})
	expectCode(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = e.do(t, http.MethodPost, "/connection-requests/"+req.ID+"/respond", "u2", RespondRequest{Action: "maybe"})
	expectCode(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(t, http.MethodPost, "/connection-requests/"+req.ID+"/respond", "u2", RespondRequest{Action: "ACCEPT"})
	expectCode(t, w, http.StatusOK, "")
	if got := decode[domain.ConnectionRequest](t, w); got.Status != domain.RequestAccepted {
		t.Fatalf("status=%q", got.Status)
	}

	w = e.do(t, http.MethodPost, "/connection-requests/"+req.ID+"/respond", "u2", RespondRequest{Action: domain.ActionDecline})
	expectCode(t, w, http.StatusConflict, ErrCodeAlreadyResolved)

	w = e.do(t, http.MethodGet, "/connections", "u1", nil)
	expectCode(t, w, http.StatusOK, "")
	conns := decode[ConnectionsResponse](t, w)
	if len(conns.Connections) != 1 || conns.Connections[0].ID != "u2" {
		t.Fatalf("connections = %+v", conns)
	}

	w = e.do(t, http.MethodPost, "/connection-requests", "u1", SendConnectionRequest{ToID: "u2"})
	expectCode(t, w, http.StatusConflict, ErrCodeAlreadyConnected)

	w = e.do(t, http.MethodPost, "/connection-requests/does-not-exist/respond", "u2", RespondRequest{Action: domain.ActionAccept})
	expectCode(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestConnectionRequest_IdempotentReplay(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u1", "Ann", "ann@example.com")
	e.identity(t, "u2", "Bob", "bob@example.com")

	w := e.do(t, http.MethodPost, "/connection-requests", "u1", SendConnectionRequest{ToID: "u2"}, "Idempotency-Key", "k-1")
	expectCode(t, w, http.StatusCreated, "")
	first := decode[domain.ConnectionRequest](t, w)

	w = e.do(t, http.MethodPost, "/connection-requests", "u1", SendConnectionRequest{ToID: "u2"}, "Idempotency-Key", "k-1")
	expectCode(t, w, http.StatusCreated, "")
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}
	if got := decode[domain.ConnectionRequest](t, w); got.ID != first.ID {
		t.Fatalf("replay id=%s want %s", got.ID, first.ID)
	}

	// A fresh key is a new attempt and hits the pending pair.
	w = e.do(t, http.MethodPost, "/connection-requests", "u1", SendConnectionRequest{ToID: "u2"}, "Idempotency-Key", "k-2")
	expectCode(t, w, http.StatusConflict, ErrCodeDuplicateRequest)
}

func TestConnectionRequest_ConcurrentResponsesOneWins(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u1", "Ann", "ann@example.com")
	e.identity(t, "u2", "Bob", "bob@example.com")

	w := e.do(t, http.MethodPost, "/connection-requests", "u1", SendConnectionRequest{ToID: "u2"})
	expectCode(t, w, http.StatusCreated, "")
	id := decode[domain.ConnectionRequest](t, w).ID

	const n = 6
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		body := `{"action":"accept"}`
		if i%2 == 1 {
			body = `{"action":"decline"}`
		}
		req := httptest.NewRequest(http.MethodPost, "/connection-requests/"+id+"/respond", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderUserID, "u2")

		wg.Add(1)
		go func(i int, req *http.Request) {
			defer wg.Done()
			w := httptest.NewRecorder()
			e.r.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i, req)
	}
	wg.Wait()

	wins, conflict := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			wins++
		case http.StatusConflict:
			conflict++
		default:
			t.Fatalf("unexpected status %d", c)
		}
	}
	if wins != 1 || conflict != n-1 {
		t.Fatalf("wins=%d conflict=%d", wins, conflict)
	}
}
