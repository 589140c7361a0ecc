// Package storage defines persistence contracts for encounter service state.
package storage

import (
	"context"
	"errors"

	"github.com/progressions/shot-server/internal/services/encounter/domain"
)

// ErrNotFound indicates a requested record is missing. A slot that exists
// under a different party is reported identically, so foreign slots are never
// revealed to the wrong caller.
var ErrNotFound = errors.New("record not found")

// FightStore persists fights.
type FightStore interface {
	PutFight(ctx context.Context, fight domain.Fight) error
	GetFight(ctx context.Context, fightID string) (domain.Fight, error)
	DeleteFight(ctx context.Context, fightID string) error
}

// PartyStore persists parties.
type PartyStore interface {
	PutParty(ctx context.Context, party domain.Party) error
	GetParty(ctx context.Context, partyID string) (domain.Party, error)
	DeleteParty(ctx context.Context, partyID string) error
}

// RosterStore persists a fight's shot multiset. Multi-write operations are
// atomic: each runs in one transaction whose reads happen before its writes,
// so concurrent reconciliations of the same fight serialize.
type RosterStore interface {
	// ListShots returns the fight's shots ordered oldest first.
	ListShots(ctx context.Context, fightID string) ([]domain.Shot, error)
	// ReconcileShots aligns the fight's shots of one kind with the desired
	// participant multiset and reports how many entries it created and
	// deleted. Shots of other kinds are untouched.
	ReconcileShots(ctx context.Context, fightID string, kind domain.ParticipantKind, desiredIDs []string) (created, deleted int, err error)
	// AppendPartyShots adds one shot per bound slot of the party to the
	// fight, in slot order, never removing existing shots.
	AppendPartyShots(ctx context.Context, fightID, partyID string) (created int, err error)
	// SetShotInitiative stores an initiative value on one shot of the fight,
	// or clears it when initiative is nil.
	SetShotInitiative(ctx context.Context, fightID, shotID string, initiative *int) (domain.Shot, error)
}

// SlotStore persists a party's ordered slots. Every operation scoped by a
// slot id verifies the slot belongs to the given party first.
type SlotStore interface {
	// ListSlots returns the party's slots ordered by position.
	ListSlots(ctx context.Context, partyID string) ([]domain.Slot, error)
	// ReplaceSlots discards every slot of the party and stamps the template's
	// blueprints in catalog order at positions 0..n-1.
	ReplaceSlots(ctx context.Context, partyID string, template domain.PartyTemplate) ([]domain.Slot, error)
	// InsertSlot appends the slot at the party's next position.
	InsertSlot(ctx context.Context, slot domain.Slot) (domain.Slot, error)
	// UpdateSlot applies a partial update to one slot of the party.
	UpdateSlot(ctx context.Context, partyID, slotID string, update domain.SlotUpdate) (domain.Slot, error)
	// DeleteSlot removes one slot and renumbers the survivors contiguously.
	DeleteSlot(ctx context.Context, partyID, slotID string) error
	// ReorderSlots rewrites every slot's position to its index in
	// orderedSlotIDs, which must be a permutation of the party's slots.
	ReorderSlots(ctx context.Context, partyID string, orderedSlotIDs []string) ([]domain.Slot, error)
}

// Store aggregates the encounter persistence contracts.
type Store interface {
	FightStore
	PartyStore
	RosterStore
	SlotStore
}
