package domain

import (
	"errors"
	"strings"
)

// ErrEmptyParticipantID indicates a blank id in a desired roster list.
var ErrEmptyParticipantID = errors.New("participant id is required")

// ReconcilePlan lists the writes that align a fight's persisted shots with a
// desired participant multiset. CreateIDs holds one participant id per shot
// to create; DeleteShotIDs holds the shots to remove, newest instances first.
type ReconcilePlan struct {
	CreateIDs     []string
	DeleteShotIDs []string
}

// Empty reports whether the plan performs no writes.
func (p ReconcilePlan) Empty() bool {
	return len(p.CreateIDs) == 0 && len(p.DeleteShotIDs) == 0
}

// PlanReconcile computes the minimal creates and deletes that make the
// fight's shots of the given kind match the desired multiset.
//
// existing must hold only shots bound to the given kind, ordered oldest
// first; the trailing entries of each per-participant group are the newest
// and are discarded first, so the longest-lived instances (and whatever
// initiative they carry) survive trimming. Participants absent from desired
// lose every entry; participants whose counts already match are untouched.
func PlanReconcile(kind ParticipantKind, existing []Shot, desired []string) (ReconcilePlan, error) {
	if !kind.Valid() {
		return ReconcilePlan{}, ErrInvalidKind
	}

	want := make(map[string]int, len(desired))
	// Preserves first-appearance order so creates are deterministic.
	var wantOrder []string
	for _, participantID := range desired {
		participantID = strings.TrimSpace(participantID)
		if participantID == "" {
			return ReconcilePlan{}, ErrEmptyParticipantID
		}
		if want[participantID] == 0 {
			wantOrder = append(wantOrder, participantID)
		}
		want[participantID]++
	}

	have := make(map[string][]Shot, len(existing))
	var haveOrder []string
	for _, shot := range existing {
		participantID := shot.ParticipantID(kind)
		if participantID == "" {
			continue
		}
		if len(have[participantID]) == 0 {
			haveOrder = append(haveOrder, participantID)
		}
		have[participantID] = append(have[participantID], shot)
	}

	var plan ReconcilePlan
	for _, participantID := range wantOrder {
		missing := want[participantID] - len(have[participantID])
		for i := 0; i < missing; i++ {
			plan.CreateIDs = append(plan.CreateIDs, participantID)
		}
	}
	for _, participantID := range haveOrder {
		group := have[participantID]
		keep := want[participantID]
		if keep >= len(group) {
			continue
		}
		// Trim from the newest end of the group.
		for i := len(group) - 1; i >= keep; i-- {
			plan.DeleteShotIDs = append(plan.DeleteShotIDs, group[i].ID)
		}
	}
	return plan, nil
}
