package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/progressions/shot-server/internal/platform/id"
)

var (
	// ErrEmptyPartyID indicates a missing party reference.
	ErrEmptyPartyID = errors.New("party id is required")
	// ErrEmptySlotRole indicates a missing slot role tag.
	ErrEmptySlotRole = errors.New("slot role is required")
	// ErrSlotDoubleBound indicates a slot bound to both participant kinds.
	ErrSlotDoubleBound = errors.New("slot cannot bind both a character and a vehicle")
	// ErrReorderMismatch indicates a reorder list that is not a permutation of
	// the party's slots.
	ErrReorderMismatch = errors.New("reorder must list each party slot exactly once")
)

// Slot is an ordered, role-tagged membership position within a party,
// optionally bound to one character or one vehicle. An unbound slot is a
// placeholder.
type Slot struct {
	ID          string
	PartyID     string
	Role        string
	Position    int
	CharacterID string
	VehicleID   string
	// DefaultMookCount is display metadata. It never multiplies the roster
	// entries or slots produced from this slot, whatever kind is bound.
	DefaultMookCount *int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Bound reports whether the slot is bound to any participant.
func (s Slot) Bound() bool {
	return s.CharacterID != "" || s.VehicleID != ""
}

// CreateSlotInput describes the fields needed to create a slot. Position is
// assigned by the caller; the store appends at the next free position.
type CreateSlotInput struct {
	PartyID          string
	Role             string
	CharacterID      string
	VehicleID        string
	DefaultMookCount *int
}

// CreateSlot creates a new slot with a generated ID and timestamps.
func CreateSlot(input CreateSlotInput, now func() time.Time, idGenerator func() (string, error)) (Slot, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	partyID := strings.TrimSpace(input.PartyID)
	if partyID == "" {
		return Slot{}, ErrEmptyPartyID
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		return Slot{}, ErrEmptySlotRole
	}
	characterID := strings.TrimSpace(input.CharacterID)
	vehicleID := strings.TrimSpace(input.VehicleID)
	if characterID != "" && vehicleID != "" {
		return Slot{}, ErrSlotDoubleBound
	}

	slotID, err := idGenerator()
	if err != nil {
		return Slot{}, fmt.Errorf("generate slot id: %w", err)
	}

	createdAt := now().UTC()
	return Slot{
		ID:               slotID,
		PartyID:          partyID,
		Role:             role,
		CharacterID:      characterID,
		VehicleID:        vehicleID,
		DefaultMookCount: input.DefaultMookCount,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}, nil
}

// SlotUpdate describes a partial slot mutation. Nil fields are untouched.
// Setting CharacterID or VehicleID to the empty string detaches that
// participant; binding one kind detaches the other. DefaultMookCount uses a
// double pointer so callers can distinguish "leave alone" (nil) from "clear"
// (pointer to nil) from "set" (pointer to value).
type SlotUpdate struct {
	Role             *string
	CharacterID      *string
	VehicleID        *string
	DefaultMookCount **int
}

// Apply mutates a copy of the slot per the update and returns it.
func (u SlotUpdate) Apply(slot Slot, now func() time.Time) (Slot, error) {
	if now == nil {
		now = time.Now
	}

	if u.Role != nil {
		role := strings.TrimSpace(*u.Role)
		if role == "" {
			return Slot{}, ErrEmptySlotRole
		}
		slot.Role = role
	}
	if u.CharacterID != nil {
		slot.CharacterID = strings.TrimSpace(*u.CharacterID)
		if slot.CharacterID != "" {
			slot.VehicleID = ""
		}
	}
	if u.VehicleID != nil {
		slot.VehicleID = strings.TrimSpace(*u.VehicleID)
		if slot.VehicleID != "" {
			slot.CharacterID = ""
		}
	}
	if slot.CharacterID != "" && slot.VehicleID != "" {
		return Slot{}, ErrSlotDoubleBound
	}
	if u.DefaultMookCount != nil {
		slot.DefaultMookCount = *u.DefaultMookCount
	}

	slot.UpdatedAt = now().UTC()
	return slot, nil
}

// ValidateReorder checks that orderedSlotIDs is exactly a permutation of the
// party's slots. An id the party does not hold is reported as missing
// (ErrNotFound at the storage boundary) so slots of other parties stay
// unrevealed; an incomplete or duplicated list is ErrReorderMismatch.
func ValidateReorder(slots []Slot, orderedSlotIDs []string) error {
	known := make(map[string]bool, len(slots))
	for _, slot := range slots {
		known[slot.ID] = true
	}

	seen := make(map[string]bool, len(orderedSlotIDs))
	for _, slotID := range orderedSlotIDs {
		if !known[slotID] {
			return fmt.Errorf("slot %s: %w", slotID, ErrSlotUnknown)
		}
		if seen[slotID] {
			return ErrReorderMismatch
		}
		seen[slotID] = true
	}
	if len(seen) != len(slots) {
		return ErrReorderMismatch
	}
	return nil
}

// ErrSlotUnknown indicates a slot id the party does not hold.
var ErrSlotUnknown = errors.New("slot does not belong to party")
