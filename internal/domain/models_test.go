package domain

import (
	"testing"
	"time"
)

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		ContactRecord{}.TableName():     "contacts",
		PlatformIdentity{}.TableName():  "platform_identities",
		ConnectionEdge{}.TableName():    "connection_edges",
		ConnectionRequest{}.TableName(): "connection_requests",
		Introduction{}.TableName():      "introductions",
		DispatchBatch{}.TableName():     "dispatch_batches",
		DispatchRecord{}.TableName():    "dispatch_records",
		Idempotency{}.TableName():       "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName = %q, want %q", got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	good := map[string]string{
		" Ann@Example.COM ": "ann@example.com",
		"a@b":               "a@b",
	}
	for in, want := range good {
		got := NormalizeEmail(in)
		if got == nil || *got != want {
			t.Fatalf("NormalizeEmail(%q) = %v, want %q", in, got, want)
		}
	}
	for _, in := range []string{"", "   ", "no-at", "@x.com", "x@"} {
		if got := NormalizeEmail(in); got != nil {
			t.Fatalf("NormalizeEmail(%q) = %q, want nil", in, *got)
		}
	}
}

func TestPairKeyAndEdge(t *testing.T) {
	if PairKey("b", "a") != PairKey("a", "b") {
		t.Fatalf("PairKey must be direction-free")
	}
	lo, hi := OrderedPair("z", "a")
	if lo != "a" || hi != "z" {
		t.Fatalf("OrderedPair = %q %q", lo, hi)
	}
	e := ConnectionEdge{UserLo: "a", UserHi: "z"}
	if e.Other("a") != "z" || e.Other("z") != "a" {
		t.Fatalf("Other wrong")
	}
}

func TestRequestStatusAndAction(t *testing.T) {
	if RequestPending.Terminal() || !RequestAccepted.Terminal() || !RequestDeclined.Terminal() {
		t.Fatalf("Terminal wrong")
	}
	if !ActionAccept.Valid() || !ActionDecline.Valid() || Action("x").Valid() {
		t.Fatalf("Action.Valid wrong")
	}
	if !ChannelEmail.Valid() || !ChannelSMS.Valid() || Channel("fax").Valid() {
		t.Fatalf("Channel.Valid wrong")
	}
}

func TestNames(t *testing.T) {
	c := ContactRecord{FirstName: " Ann ", LastName: "Lee"}
	if c.DisplayName() != "Ann Lee" {
		t.Fatalf("DisplayName = %q", c.DisplayName())
	}
	p := PlatformIdentity{FirstName: "Bo", LastName: ""}
	if p.Name() != "Bo" {
		t.Fatalf("Name = %q", p.Name())
	}
	p.DisplayName = "Bo D."
	if p.Name() != "Bo D." {
		t.Fatalf("Name = %q", p.Name())
	}
}

func TestRecipientKeys(t *testing.T) {
	pid := "u1"
	email := "Ann@X.io"
	c := ContactRecord{ID: "c1", FirstName: "ann", NormalizedEmail: &email}
	r := FromContact(c)
	if r.ID != "contact:c1" || *r.Email != "ann@x.io" || *r.SourceContactID != "c1" {
		t.Fatalf("unlinked contact recipient = %+v", r)
	}
	c.LinkedIdentityID = &pid
	if r := FromContact(c); r.ID != "identity:u1" {
		t.Fatalf("linked contact recipient id = %q", r.ID)
	}
	ir := FromIdentity(PlatformIdentity{ID: "u2", DisplayName: "Cy Z"})
	if ir.ID != "identity:u2" || ir.SourceContactID != nil || ir.FirstNameOrDisplay() != "Cy" {
		t.Fatalf("identity recipient = %+v", ir)
	}
}

func TestIdempotencyExpired(t *testing.T) {
	now := time.Now()
	if !(Idempotency{ExpiresAt: now}).Expired(now) {
		t.Fatalf("record expiring now should be expired")
	}
	if (Idempotency{ExpiresAt: now.Add(time.Second)}).Expired(now) {
		t.Fatalf("future record should not be expired")
	}
}
