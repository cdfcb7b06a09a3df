package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/outbound"
	"github.com/tbourn/go-intro-broker/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func sp(s string) *string { return &s }

func seedIdentity(t *testing.T, db *gorm.DB, id, name, email string) {
	t.Helper()
	p := &domain.PlatformIdentity{ID: id, DisplayName: name, FirstName: name}
	if email != "" {
		p.Email = sp(email)
	}
	if err := repo.UpsertIdentity(context.Background(), db, p); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
}

// recordingSender captures messages and can fail chosen addresses.
type recordingSender struct {
	mu     sync.Mutex
	sent   []outbound.Message
	failTo map[string]int // address -> remaining failures
}

func (s *recordingSender) Send(ctx context.Context, m outbound.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.failTo[m.To]; n > 0 {
		s.failTo[m.To] = n - 1
		return errTransport
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *recordingSender) countTo(addr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.sent {
		if m.To == addr {
			n++
		}
	}
	return n
}

type transportErr string

func (e transportErr) Error() string { return string(e) }

const errTransport = transportErr("smtp unavailable")
