package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/progressions/shot-server/internal/services/encounter/domain"
	"github.com/progressions/shot-server/internal/services/encounter/storage"
)

func scanSlot(row interface{ Scan(...any) error }) (domain.Slot, error) {
	var slot domain.Slot
	var characterID, vehicleID sql.NullString
	var mookCount sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&slot.ID, &slot.PartyID, &slot.Role, &slot.Position, &characterID, &vehicleID, &mookCount, &createdAt, &updatedAt); err != nil {
		return domain.Slot{}, err
	}
	slot.CharacterID = fromNullString(characterID)
	slot.VehicleID = fromNullString(vehicleID)
	slot.DefaultMookCount = fromNullInt(mookCount)
	slot.CreatedAt = fromMillis(createdAt)
	slot.UpdatedAt = fromMillis(updatedAt)
	return slot, nil
}

const slotColumns = "id, party_id, role, position, character_id, vehicle_id, default_mook_count, created_at, updated_at"

func listSlotsTx(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, partyID string) ([]domain.Slot, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT `+slotColumns+`
		 FROM slots
		 WHERE party_id = ?
		 ORDER BY position ASC`,
		partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}
	return slots, nil
}

// ListSlots returns the party's slots ordered by position.
func (s *Store) ListSlots(ctx context.Context, partyID string) ([]domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, fmt.Errorf("party id is required")
	}

	if err := partyExists(ctx, s.sqlDB, partyID); err != nil {
		return nil, err
	}
	return listSlotsTx(ctx, s.sqlDB, partyID)
}

// ReplaceSlots discards every slot of the party and stamps the template's
// blueprints in catalog order at positions 0..n-1, all unbound.
func (s *Store) ReplaceSlots(ctx context.Context, partyID string, template domain.PartyTemplate) ([]domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, fmt.Errorf("party id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := partyExists(ctx, tx, partyID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM slots WHERE party_id = ?", partyID); err != nil {
		return nil, fmt.Errorf("clear party slots: %w", err)
	}

	now := toMillis(s.now())
	slots := make([]domain.Slot, 0, len(template.Slots))
	for position, blueprint := range template.Slots {
		slotID, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate slot id: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO slots (id, party_id, role, position, character_id, vehicle_id, default_mook_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, NULL, NULL, ?, ?, ?)`,
			slotID,
			partyID,
			blueprint.Role,
			position,
			toNullInt(blueprint.DefaultMookCount),
			now,
			now,
		); err != nil {
			return nil, fmt.Errorf("insert template slot: %w", err)
		}
		slots = append(slots, domain.Slot{
			ID:               slotID,
			PartyID:          partyID,
			Role:             blueprint.Role,
			Position:         position,
			DefaultMookCount: blueprint.DefaultMookCount,
			CreatedAt:        fromMillis(now),
			UpdatedAt:        fromMillis(now),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace slots: %w", err)
	}
	return slots, nil
}

// InsertSlot appends the slot at the party's next free position.
func (s *Store) InsertSlot(ctx context.Context, slot domain.Slot) (domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Slot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Slot{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(slot.ID) == "" {
		return domain.Slot{}, fmt.Errorf("slot id is required")
	}
	if strings.TrimSpace(slot.PartyID) == "" {
		return domain.Slot{}, fmt.Errorf("party id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Slot{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := partyExists(ctx, tx, slot.PartyID); err != nil {
		return domain.Slot{}, err
	}

	var position int
	if err := tx.QueryRowContext(
		ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM slots WHERE party_id = ?",
		slot.PartyID,
	).Scan(&position); err != nil {
		return domain.Slot{}, fmt.Errorf("next slot position: %w", err)
	}
	slot.Position = position

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO slots (id, party_id, role, position, character_id, vehicle_id, default_mook_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.ID,
		slot.PartyID,
		slot.Role,
		slot.Position,
		toNullString(slot.CharacterID),
		toNullString(slot.VehicleID),
		toNullInt(slot.DefaultMookCount),
		toMillis(slot.CreatedAt),
		toMillis(slot.UpdatedAt),
	); err != nil {
		return domain.Slot{}, fmt.Errorf("insert slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Slot{}, fmt.Errorf("commit insert slot: %w", err)
	}
	return slot, nil
}

// UpdateSlot applies a partial update to one slot of the party. A slot id
// held by a different party reports storage.ErrNotFound.
func (s *Store) UpdateSlot(ctx context.Context, partyID, slotID string, update domain.SlotUpdate) (domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Slot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Slot{}, fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return domain.Slot{}, fmt.Errorf("party id is required")
	}
	slotID = strings.TrimSpace(slotID)
	if slotID == "" {
		return domain.Slot{}, fmt.Errorf("slot id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Slot{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := partyExists(ctx, tx, partyID); err != nil {
		return domain.Slot{}, err
	}

	slot, err := scanSlot(tx.QueryRowContext(
		ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = ? AND party_id = ?`,
		slotID,
		partyID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Slot{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Slot{}, fmt.Errorf("load slot: %w", err)
	}

	updated, err := update.Apply(slot, s.now)
	if err != nil {
		return domain.Slot{}, err
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE slots
		 SET role = ?, character_id = ?, vehicle_id = ?, default_mook_count = ?, updated_at = ?
		 WHERE id = ?`,
		updated.Role,
		toNullString(updated.CharacterID),
		toNullString(updated.VehicleID),
		toNullInt(updated.DefaultMookCount),
		toMillis(updated.UpdatedAt),
		updated.ID,
	); err != nil {
		return domain.Slot{}, fmt.Errorf("update slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Slot{}, fmt.Errorf("commit update slot: %w", err)
	}
	return updated, nil
}

// DeleteSlot removes one slot of the party and renumbers the survivors
// contiguously from zero, preserving their relative order.
func (s *Store) DeleteSlot(ctx context.Context, partyID, slotID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return fmt.Errorf("party id is required")
	}
	slotID = strings.TrimSpace(slotID)
	if slotID == "" {
		return fmt.Errorf("slot id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := partyExists(ctx, tx, partyID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM slots WHERE id = ? AND party_id = ?", slotID, partyID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	survivors, err := listSlotsTx(ctx, tx, partyID)
	if err != nil {
		return err
	}
	for index, slot := range survivors {
		if slot.Position == index {
			continue
		}
		if _, err := tx.ExecContext(ctx, "UPDATE slots SET position = ? WHERE id = ?", index, slot.ID); err != nil {
			return fmt.Errorf("renumber slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete slot: %w", err)
	}
	return nil
}

// ReorderSlots rewrites every slot's position to its index in orderedSlotIDs
// and returns the slots in the new order.
func (s *Store) ReorderSlots(ctx context.Context, partyID string, orderedSlotIDs []string) ([]domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, fmt.Errorf("party id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := partyExists(ctx, tx, partyID); err != nil {
		return nil, err
	}

	slots, err := listSlotsTx(ctx, tx, partyID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateReorder(slots, orderedSlotIDs); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Slot, len(slots))
	for _, slot := range slots {
		byID[slot.ID] = slot
	}

	now := toMillis(s.now())
	reordered := make([]domain.Slot, 0, len(orderedSlotIDs))
	for position, slotID := range orderedSlotIDs {
		slot := byID[slotID]
		if slot.Position != position {
			slot.Position = position
			slot.UpdatedAt = fromMillis(now)
			if _, err := tx.ExecContext(
				ctx,
				"UPDATE slots SET position = ?, updated_at = ? WHERE id = ?",
				position,
				now,
				slotID,
			); err != nil {
				return nil, fmt.Errorf("reorder slot: %w", err)
			}
		}
		reordered = append(reordered, slot)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reorder slots: %w", err)
	}
	return reordered, nil
}
