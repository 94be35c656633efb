// Package ids centralises generation of the identifiers the core hands
// out for newly created entities (armies, structures, attacks, battles),
// so every package asking for a fresh id goes through the same uuid
// source rather than rolling its own.
package ids

import "github.com/google/uuid"

// New :
// Returns a fresh random (v4) identifier as a string, suitable for an
// aid, sid, attack_id or battle_id.
func New() string {
	return uuid.New().String()
}
