package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/services"
)

func newIntroduction(t *testing.T, e *testEnv, introducer string, headers ...string) CreateIntroductionResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/introductions", introducer, CreateIntroductionRequest{
		PersonA: PartyInput{Email: "Ann@Outside.example", Name: "Ann", Company: "Acme"},
		PersonB: PartyInput{Email: "bob@example.com", Name: "Robert"},
		Message: "You both work on logistics.",
	}, headers...)
	expectCode(t, w, http.StatusCreated, "")
	return decode[CreateIntroductionResponse](t, w)
}

func TestIntroduction_CreateNotifiesAndLinks(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u1", "Ivy", "ivy@example.com")
	e.identity(t, "u2", "Bob", "bob@example.com")

	resp := newIntroduction(t, e, "u1")
	in := resp.Introduction
	if in.Status != domain.IntroPending || in.IntroducerID != "u1" || in.Version != 1 {
		t.Fatalf("unexpected introduction: %+v", in)
	}
	if in.PersonA.Email != "ann@outside.example" {
		t.Fatalf("email not normalized: %q", in.PersonA.Email)
	}
	if domain.Deref(in.PersonB.PlatformIdentityID) != "u2" {
		t.Fatalf("person B should be linked to u2: %+v", in.PersonB)
	}
	if len(resp.Notifications) != 2 {
		t.Fatalf("notifications=%d want 2", len(resp.Notifications))
	}
	for _, n := range resp.Notifications {
		if !n.Sent {
			t.Fatalf("notification not sent: %+v", n)
		}
	}
	if e.sent.count() != 2 {
		t.Fatalf("sent=%d want 2", e.sent.count())
	}
}

func TestIntroduction_CreateValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/introductions", "u1", CreateIntroductionRequest{
		PersonA: PartyInput{Email: "same@example.com"},
		PersonB: PartyInput{Email: "SAME@example.com"},
	})
	expectCode(t, w, http.StatusBadRequest, ErrCodeInvalidIntroduction)

	w = e.do(t, http.MethodPost, "/introductions", "u1", `{"person_a":{"email":"a@example.com"},"person_b":{}}`)
	expectCode(t, w, http.StatusBadRequest, ErrCodeInvalidIntroduction)

	w = e.do(t, http.MethodPost, "/introductions", "u1", CreateIntroductionRequest{
		PersonA: PartyInput{Email: "not-an-email"},
		PersonB: PartyInput{Email: "b@example.com"},
	})
	expectCode(t, w, http.StatusBadRequest, ErrCodeInvalidIntroduction)

	w = e.do(t, http.MethodPost, "/introductions", "", CreateIntroductionRequest{})
	expectCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestIntroduction_RespondFlow(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u1", "Ivy", "ivy@example.com")
	e.identity(t, "u2", "Bob", "bob@example.com")
	id := newIntroduction(t, e, "u1").Introduction.ID
	path := "/introductions/" + id + "/respond"

	// The introducer never responds.
	w := e.do(t, http.MethodPost, path, "u1", RespondIntroductionRequest{Side: "A", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusForbidden, ErrCodeForbidden)

	// Side B is linked to u2.
	w = e.do(t, http.MethodPost, path, "u3", RespondIntroductionRequest{Side: "B", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = e.do(t, http.MethodPost, path, "u2", RespondIntroductionRequest{Side: "C", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(t, http.MethodPost, path, "u2", RespondIntroductionRequest{Side: "b", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusOK, "")
	if got := decode[IntroductionView](t, w); got.Status != domain.IntroPersonBAccepted || !got.PersonB.Accepted {
		t.Fatalf("after B accept: %+v", got)
	}

	w = e.do(t, http.MethodPost, path, "u2", RespondIntroductionRequest{Side: "B", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusConflict, ErrCodeAlreadyResolved)

	// Side A is unlinked; any non-introducer caller may answer it.
	w = e.do(t, http.MethodPost, path, "guest", RespondIntroductionRequest{Side: "A", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusOK, "")
	got := decode[IntroductionView](t, w)
	if got.Status != domain.IntroBothAccepted || got.Version != 3 {
		t.Fatalf("after A accept: %+v", got)
	}

	w = e.do(t, http.MethodPost, path, "guest", RespondIntroductionRequest{Side: "A", Action: domain.ActionDecline})
	expectCode(t, w, http.StatusConflict, ErrCodeAlreadyResolved)

	w = e.do(t, http.MethodPost, "/introductions/missing/respond", "u2", RespondIntroductionRequest{Side: "B", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestIntroduction_DeclineAfterOwnAccept(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u2", "Bob", "bob@example.com")
	id := newIntroduction(t, e, "u1").Introduction.ID
	path := "/introductions/" + id + "/respond"

	w := e.do(t, http.MethodPost, path, "u2", RespondIntroductionRequest{Side: "B", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusOK, "")

	w = e.do(t, http.MethodPost, path, "u2", RespondIntroductionRequest{Side: "B", Action: domain.ActionDecline})
	expectCode(t, w, http.StatusOK, "")
	got := decode[IntroductionView](t, w)
	if got.Status != domain.IntroDeclined || got.DeclinedBy == nil || *got.DeclinedBy != domain.SideB {
		t.Fatalf("after B declines: %+v", got)
	}

	w = e.do(t, http.MethodPost, path, "guest", RespondIntroductionRequest{Side: "A", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusConflict, ErrCodeAlreadyResolved)
}

func TestIntroduction_DeclineIsFinal(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u2", "Bob", "bob@example.com")
	id := newIntroduction(t, e, "u1").Introduction.ID
	path := "/introductions/" + id + "/respond"

	w := e.do(t, http.MethodPost, path, "guest", RespondIntroductionRequest{Side: "A", Action: domain.ActionDecline})
	expectCode(t, w, http.StatusOK, "")
	got := decode[IntroductionView](t, w)
	if got.Status != domain.IntroDeclined || !got.Declined || got.DeclinedBy == nil || *got.DeclinedBy != domain.SideA {
		t.Fatalf("after decline: %+v", got)
	}

	w = e.do(t, http.MethodPost, path, "u2", RespondIntroductionRequest{Side: "B", Action: domain.ActionAccept})
	expectCode(t, w, http.StatusConflict, ErrCodeAlreadyResolved)
}

func TestIntroduction_GetListCounterpart(t *testing.T) {
	e := newTestEnv(t)
	e.identity(t, "u1", "Ivy", "ivy@example.com")
	e.identity(t, "u2", "Bob", "bob@example.com")
	id := newIntroduction(t, e, "u1").Introduction.ID

	w := e.do(t, http.MethodGet, "/introductions/"+id, "", nil)
	expectCode(t, w, http.StatusOK, "")
	if got := decode[IntroductionView](t, w); got.ID != id || got.PersonA.Name != "Ann" {
		t.Fatalf("get: %+v", got)
	}
	w = e.do(t, http.MethodGet, "/introductions/nope", "", nil)
	expectCode(t, w, http.StatusNotFound, ErrCodeNotFound)

	// Side A looks at B, who has a live profile.
	w = e.do(t, http.MethodGet, "/introductions/"+id+"/counterpart?side=A", "", nil)
	expectCode(t, w, http.StatusOK, "")
	cp := decode[services.Counterpart](t, w)
	if cp.Side != domain.SideB || cp.Source != "identity" || cp.Name != "Bob" {
		t.Fatalf("counterpart of A: %+v", cp)
	}
	w = e.do(t, http.MethodGet, "/introductions/"+id+"/counterpart?side=B", "", nil)
	expectCode(t, w, http.StatusOK, "")
	cp = decode[services.Counterpart](t, w)
	if cp.Side != domain.SideA || cp.Source != "static" || domain.Deref(cp.Company) != "Acme" {
		t.Fatalf("counterpart of B: %+v", cp)
	}
	w = e.do(t, http.MethodGet, "/introductions/"+id+"/counterpart?side=X", "", nil)
	expectCode(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	// Both the introducer and the linked party see it.
	for _, user := range []string{"u1", "u2"} {
		w = e.do(t, http.MethodGet, "/introductions", user, nil)
		expectCode(t, w, http.StatusOK, "")
		list := decode[ListIntroductionsResponse](t, w)
		if len(list.Introductions) != 1 || list.Pagination.Total != 1 {
			t.Fatalf("%s list: %+v", user, list)
		}
	}
	w = e.do(t, http.MethodGet, "/introductions", "stranger", nil)
	if list := decode[ListIntroductionsResponse](t, w); len(list.Introductions) != 0 {
		t.Fatalf("stranger sees %d", len(list.Introductions))
	}
}

func TestIntroduction_ListETag(t *testing.T) {
	e := newTestEnv(t)
	newIntroduction(t, e, "u1")

	w := e.do(t, http.MethodGet, "/introductions", "u1", nil)
	expectCode(t, w, http.StatusOK, "")
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	w = e.do(t, http.MethodGet, "/introductions", "u1", nil, "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Fatalf("status=%d want 304", w.Code)
	}

	newIntroduction(t, e, "u1")
	w = e.do(t, http.MethodGet, "/introductions", "u1", nil, "If-None-Match", etag)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("expected fresh 200 after change, got %d", w.Code)
	}
}

func TestIntroduction_IdempotentCreate(t *testing.T) {
	e := newTestEnv(t)

	first := newIntroduction(t, e, "u1", "Idempotency-Key", "intro-1")
	again := newIntroduction(t, e, "u1", "Idempotency-Key", "intro-1")
	if again.Introduction.ID != first.Introduction.ID {
		t.Fatalf("replay id=%s want %s", again.Introduction.ID, first.Introduction.ID)
	}
	if len(again.Notifications) != 0 {
		t.Fatalf("replay should not notify again")
	}
	if e.sent.count() != 2 {
		t.Fatalf("sent=%d want 2", e.sent.count())
	}
}
