// Package engine exposes the encounter operations: fight and party records,
// roster reconciliation, and party slot composition. Errors carry gRPC status
// codes so transports can forward them unchanged.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/progressions/shot-server/internal/platform/id"
	"github.com/progressions/shot-server/internal/services/encounter/domain"
	"github.com/progressions/shot-server/internal/services/encounter/storage"
)

// Engine coordinates encounter operations over one store.
type Engine struct {
	store       storage.Store
	clock       func() time.Time
	idGenerator func() (string, error)
}

// New creates an engine backed by the given store.
func New(store storage.Store) *Engine {
	return &Engine{
		store:       store,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return status.Error(codes.Internal, "encounter store is not configured")
	}
	return nil
}

// validationErr reports whether the error is a domain validation failure that
// the caller can correct.
func validationErr(err error) bool {
	for _, sentinel := range []error{
		domain.ErrEmptyFightName,
		domain.ErrEmptyCampaignID,
		domain.ErrEmptyPartyName,
		domain.ErrEmptyPartyID,
		domain.ErrEmptySlotRole,
		domain.ErrSlotDoubleBound,
		domain.ErrInvalidKind,
		domain.ErrEmptyParticipantID,
		domain.ErrReorderMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// statusFromErr maps storage and domain errors onto gRPC status codes. A slot
// held by another party maps to NotFound the same way a missing record does,
// so foreign slots stay unrevealed.
func statusFromErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: record not found", op)
	case errors.Is(err, domain.ErrSlotUnknown):
		return status.Errorf(codes.NotFound, "%s: slot not found", op)
	case validationErr(err):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

// CreateFight creates a fight record.
func (e *Engine) CreateFight(ctx context.Context, input domain.CreateFightInput) (domain.Fight, error) {
	if err := e.ready(); err != nil {
		return domain.Fight{}, err
	}
	fight, err := domain.CreateFight(input, e.clock, e.idGenerator)
	if err != nil {
		return domain.Fight{}, statusFromErr("create fight", err)
	}
	if err := e.store.PutFight(ctx, fight); err != nil {
		return domain.Fight{}, statusFromErr("create fight", err)
	}
	return fight, nil
}

// GetFight fetches one fight by id.
func (e *Engine) GetFight(ctx context.Context, fightID string) (domain.Fight, error) {
	if err := e.ready(); err != nil {
		return domain.Fight{}, err
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return domain.Fight{}, status.Error(codes.InvalidArgument, "fight id is required")
	}
	fight, err := e.store.GetFight(ctx, fightID)
	if err != nil {
		return domain.Fight{}, statusFromErr("get fight", err)
	}
	return fight, nil
}

// DeleteFight removes a fight and, through the store, its shots.
func (e *Engine) DeleteFight(ctx context.Context, fightID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return status.Error(codes.InvalidArgument, "fight id is required")
	}
	if err := e.store.DeleteFight(ctx, fightID); err != nil {
		return statusFromErr("delete fight", err)
	}
	return nil
}

// CreateParty creates a party record with no slots.
func (e *Engine) CreateParty(ctx context.Context, input domain.CreatePartyInput) (domain.Party, error) {
	if err := e.ready(); err != nil {
		return domain.Party{}, err
	}
	party, err := domain.CreateParty(input, e.clock, e.idGenerator)
	if err != nil {
		return domain.Party{}, statusFromErr("create party", err)
	}
	if err := e.store.PutParty(ctx, party); err != nil {
		return domain.Party{}, statusFromErr("create party", err)
	}
	return party, nil
}

// GetParty fetches one party by id.
func (e *Engine) GetParty(ctx context.Context, partyID string) (domain.Party, error) {
	if err := e.ready(); err != nil {
		return domain.Party{}, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return domain.Party{}, status.Error(codes.InvalidArgument, "party id is required")
	}
	party, err := e.store.GetParty(ctx, partyID)
	if err != nil {
		return domain.Party{}, statusFromErr("get party", err)
	}
	return party, nil
}

// DeleteParty removes a party and, through the store, its slots.
func (e *Engine) DeleteParty(ctx context.Context, partyID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return status.Error(codes.InvalidArgument, "party id is required")
	}
	if err := e.store.DeleteParty(ctx, partyID); err != nil {
		return statusFromErr("delete party", err)
	}
	return nil
}
