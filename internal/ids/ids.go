// Package ids mints lexicographically sortable identifiers for dispatch
// batches. Row primary keys stay UUIDs; batch ids are ULIDs so a caller can
// order batches by creation without an extra column.
package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewBatchID returns a new ULID string.
func NewBatchID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// BatchTime extracts the creation time encoded in a ULID batch id. The second
// return is false for ids that are not ULIDs (callers may supply their own).
func BatchTime(id string) (time.Time, bool) {
	u, err := ulid.ParseStrict(strings.ToUpper(id))
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()).UTC(), true
}
