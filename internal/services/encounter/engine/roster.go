package engine

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/progressions/shot-server/internal/services/encounter/domain"
)

// ReconcileRequest names a fight, a participant kind, and the desired
// multiset of participant ids for that kind.
type ReconcileRequest struct {
	FightID        string
	Kind           domain.ParticipantKind
	ParticipantIDs []string
}

// ReconcileResult reports what a reconciliation changed and the fight's full
// roster afterwards, oldest shots first.
type ReconcileResult struct {
	Created int
	Deleted int
	Shots   []domain.Shot
}

// Reconcile aligns the fight's shots of one kind with the desired multiset.
// Participants missing a shot gain one; participants with surplus shots lose
// their newest copies first; shots of the other kind are untouched. The whole
// alignment is applied atomically.
func (e *Engine) Reconcile(ctx context.Context, req ReconcileRequest) (ReconcileResult, error) {
	if err := e.ready(); err != nil {
		return ReconcileResult{}, err
	}
	fightID := strings.TrimSpace(req.FightID)
	if fightID == "" {
		return ReconcileResult{}, status.Error(codes.InvalidArgument, "fight id is required")
	}
	if !req.Kind.Valid() {
		return ReconcileResult{}, status.Error(codes.InvalidArgument, "participant kind must be character or vehicle")
	}
	for _, participantID := range req.ParticipantIDs {
		if strings.TrimSpace(participantID) == "" {
			return ReconcileResult{}, status.Error(codes.InvalidArgument, "participant ids must be non-empty")
		}
	}

	created, deleted, err := e.store.ReconcileShots(ctx, fightID, req.Kind, req.ParticipantIDs)
	if err != nil {
		return ReconcileResult{}, statusFromErr("reconcile shots", err)
	}
	shots, err := e.store.ListShots(ctx, fightID)
	if err != nil {
		return ReconcileResult{}, statusFromErr("reconcile shots", err)
	}
	return ReconcileResult{
		Created: created,
		Deleted: deleted,
		Shots:   shots,
	}, nil
}

// ListShots returns the fight's roster, oldest shots first.
func (e *Engine) ListShots(ctx context.Context, fightID string) ([]domain.Shot, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return nil, status.Error(codes.InvalidArgument, "fight id is required")
	}
	shots, err := e.store.ListShots(ctx, fightID)
	if err != nil {
		return nil, statusFromErr("list shots", err)
	}
	return shots, nil
}

// SetInitiative stores an initiative value on one shot of the fight, or
// clears it when initiative is nil. The engine performs no initiative
// arithmetic; the value is opaque storage for the caller.
func (e *Engine) SetInitiative(ctx context.Context, fightID, shotID string, initiative *int) (domain.Shot, error) {
	if err := e.ready(); err != nil {
		return domain.Shot{}, err
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return domain.Shot{}, status.Error(codes.InvalidArgument, "fight id is required")
	}
	shotID = strings.TrimSpace(shotID)
	if shotID == "" {
		return domain.Shot{}, status.Error(codes.InvalidArgument, "shot id is required")
	}
	shot, err := e.store.SetShotInitiative(ctx, fightID, shotID, initiative)
	if err != nil {
		return domain.Shot{}, statusFromErr("set initiative", err)
	}
	return shot, nil
}

// AddPartyToFight appends one unset-initiative shot per bound slot of the
// party to the fight, in slot order. Unbound slots contribute nothing, and
// existing shots are never removed, so adding the same party twice doubles
// its participants.
func (e *Engine) AddPartyToFight(ctx context.Context, fightID, partyID string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return 0, status.Error(codes.InvalidArgument, "fight id is required")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return 0, status.Error(codes.InvalidArgument, "party id is required")
	}
	created, err := e.store.AppendPartyShots(ctx, fightID, partyID)
	if err != nil {
		return 0, statusFromErr("add party to fight", err)
	}
	return created, nil
}
