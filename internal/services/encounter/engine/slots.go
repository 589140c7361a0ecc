package engine

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/progressions/shot-server/internal/services/encounter/domain"
)

// ListTemplates returns the party template catalog sorted by display name.
func (e *Engine) ListTemplates() []domain.PartyTemplate {
	return domain.Templates()
}

// ApplyTemplate discards the party's slots and stamps the named template's
// blueprints in catalog order, all unbound. An unknown template key is a
// caller error, not a missing record.
func (e *Engine) ApplyTemplate(ctx context.Context, partyID, templateKey string) ([]domain.Slot, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, status.Error(codes.InvalidArgument, "party id is required")
	}
	template, ok := domain.TemplateByKey(strings.TrimSpace(templateKey))
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown party template %q", templateKey)
	}

	slots, err := e.store.ReplaceSlots(ctx, partyID, template)
	if err != nil {
		return nil, statusFromErr("apply template", err)
	}
	return slots, nil
}

// ListSlots returns the party's slots ordered by position.
func (e *Engine) ListSlots(ctx context.Context, partyID string) ([]domain.Slot, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, status.Error(codes.InvalidArgument, "party id is required")
	}
	slots, err := e.store.ListSlots(ctx, partyID)
	if err != nil {
		return nil, statusFromErr("list slots", err)
	}
	return slots, nil
}

// AddSlot appends one slot at the party's next position.
func (e *Engine) AddSlot(ctx context.Context, input domain.CreateSlotInput) (domain.Slot, error) {
	if err := e.ready(); err != nil {
		return domain.Slot{}, err
	}
	slot, err := domain.CreateSlot(input, e.clock, e.idGenerator)
	if err != nil {
		return domain.Slot{}, statusFromErr("add slot", err)
	}
	inserted, err := e.store.InsertSlot(ctx, slot)
	if err != nil {
		return domain.Slot{}, statusFromErr("add slot", err)
	}
	return inserted, nil
}

// UpdateSlot applies a partial update to one slot of the party. A slot id
// the party does not hold reports NotFound.
func (e *Engine) UpdateSlot(ctx context.Context, partyID, slotID string, update domain.SlotUpdate) (domain.Slot, error) {
	if err := e.ready(); err != nil {
		return domain.Slot{}, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return domain.Slot{}, status.Error(codes.InvalidArgument, "party id is required")
	}
	slotID = strings.TrimSpace(slotID)
	if slotID == "" {
		return domain.Slot{}, status.Error(codes.InvalidArgument, "slot id is required")
	}
	slot, err := e.store.UpdateSlot(ctx, partyID, slotID, update)
	if err != nil {
		return domain.Slot{}, statusFromErr("update slot", err)
	}
	return slot, nil
}

// RemoveSlot deletes one slot; surviving slots keep their relative order at
// contiguous positions.
func (e *Engine) RemoveSlot(ctx context.Context, partyID, slotID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return status.Error(codes.InvalidArgument, "party id is required")
	}
	slotID = strings.TrimSpace(slotID)
	if slotID == "" {
		return status.Error(codes.InvalidArgument, "slot id is required")
	}
	if err := e.store.DeleteSlot(ctx, partyID, slotID); err != nil {
		return statusFromErr("remove slot", err)
	}
	return nil
}

// ReorderSlots rewrites the party's slot positions to match orderedSlotIDs,
// which must list each of the party's slots exactly once.
func (e *Engine) ReorderSlots(ctx context.Context, partyID string, orderedSlotIDs []string) ([]domain.Slot, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, status.Error(codes.InvalidArgument, "party id is required")
	}
	slots, err := e.store.ReorderSlots(ctx, partyID, orderedSlotIDs)
	if err != nil {
		return nil, statusFromErr("reorder slots", err)
	}
	return slots, nil
}
