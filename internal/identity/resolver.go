// Package identity merges a user's address book with their confirmed platform
// connections into one deduplicated recipient list.
//
// Resolve is pure: it never fails and never mutates its inputs. Confirmed
// connections always win over address-book entries for the same person; among
// address-book entries the first one seen wins unless a later entry carries a
// platform link the kept one lacks.
package identity

import (
	"github.com/tbourn/go-intro-broker/internal/domain"
)

// Resolve returns the canonical recipients for the given contacts and
// connections. Output order is: connections in input order, then surviving
// contacts in input order (a replacement keeps the slot of the entry it
// replaces). Running it twice on the same input yields the same output.
func Resolve(contacts []domain.ContactRecord, connections []domain.PlatformIdentity) []domain.CanonicalRecipient {
	out := make([]domain.CanonicalRecipient, 0, len(connections)+len(contacts))

	// identity id -> slot, email -> slot
	byIdentity := make(map[string]int, len(connections))
	byEmail := make(map[string]int, len(connections)+len(contacts))
	seeded := make(map[string]struct{}, len(connections))

	for _, p := range connections {
		if p.ID == "" {
			continue
		}
		if _, dup := seeded[p.ID]; dup {
			continue
		}
		seeded[p.ID] = struct{}{}
		r := domain.FromIdentity(p)
		byIdentity[p.ID] = len(out)
		if r.Email != nil {
			if _, ok := byEmail[*r.Email]; !ok {
				byEmail[*r.Email] = len(out)
			}
		}
		out = append(out, r)
	}

	for _, c := range contacts {
		r := domain.FromContact(c)
		linked := domain.Deref(r.PlatformIdentityID)

		if linked != "" {
			if _, ok := byIdentity[linked]; ok {
				continue
			}
		}

		if r.Email != nil {
			if slot, ok := byEmail[*r.Email]; ok {
				if replaceable(out[slot], seeded) && out[slot].PlatformIdentityID == nil && linked != "" {
					out[slot] = r
					byIdentity[linked] = slot
				}
				continue
			}
			byEmail[*r.Email] = len(out)
		}
		if linked != "" {
			byIdentity[linked] = len(out)
		}
		out = append(out, r)
	}
	return out
}

// replaceable reports whether a kept entry came from the address book. Seeded
// platform connections are never displaced by a contact.
func replaceable(kept domain.CanonicalRecipient, seeded map[string]struct{}) bool {
	if kept.SourceContactID == nil {
		return false
	}
	if id := domain.Deref(kept.PlatformIdentityID); id != "" {
		_, isSeed := seeded[id]
		return !isSeed
	}
	return true
}

// Index maps recipient ids to recipients.
func Index(recipients []domain.CanonicalRecipient) map[string]domain.CanonicalRecipient {
	m := make(map[string]domain.CanonicalRecipient, len(recipients))
	for _, r := range recipients {
		m[r.ID] = r
	}
	return m
}
