package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/progressions/shot-server/internal/services/encounter/domain"
	"github.com/progressions/shot-server/internal/services/encounter/storage"
)

// kindColumn maps a participant kind to its shots column.
func kindColumn(kind domain.ParticipantKind) (string, error) {
	switch kind {
	case domain.ParticipantKindCharacter:
		return "character_id", nil
	case domain.ParticipantKindVehicle:
		return "vehicle_id", nil
	default:
		return "", domain.ErrInvalidKind
	}
}

func scanShots(rows *sql.Rows) ([]domain.Shot, error) {
	var shots []domain.Shot
	for rows.Next() {
		var shot domain.Shot
		var characterID, vehicleID sql.NullString
		var initiative sql.NullInt64
		var createdAt, updatedAt int64
		if err := rows.Scan(&shot.ID, &shot.FightID, &characterID, &vehicleID, &initiative, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan shot row: %w", err)
		}
		shot.CharacterID = fromNullString(characterID)
		shot.VehicleID = fromNullString(vehicleID)
		shot.Initiative = fromNullInt(initiative)
		shot.CreatedAt = fromMillis(createdAt)
		shot.UpdatedAt = fromMillis(updatedAt)
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shot rows: %w", err)
	}
	return shots, nil
}

// ListShots returns the fight's shots ordered oldest first. The rowid
// tie-break keeps ordering deterministic for shots created inside one
// transaction, which share a created_at millisecond.
func (s *Store) ListShots(ctx context.Context, fightID string) ([]domain.Shot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return nil, fmt.Errorf("fight id is required")
	}

	if err := fightExists(ctx, s.sqlDB, fightID); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, fight_id, character_id, vehicle_id, initiative, created_at, updated_at
		 FROM shots
		 WHERE fight_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		fightID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shots: %w", err)
	}
	defer rows.Close()

	return scanShots(rows)
}

// ReconcileShots aligns the fight's shots of one kind with the desired
// participant multiset inside a single transaction. The read of the current
// state and every write share the transaction, so concurrent reconciliations
// of the same fight serialize instead of interleaving.
func (s *Store) ReconcileShots(ctx context.Context, fightID string, kind domain.ParticipantKind, desiredIDs []string) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, 0, fmt.Errorf("storage is not configured")
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return 0, 0, fmt.Errorf("fight id is required")
	}
	column, err := kindColumn(kind)
	if err != nil {
		return 0, 0, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fightExists(ctx, tx, fightID); err != nil {
		return 0, 0, err
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, fight_id, character_id, vehicle_id, initiative, created_at, updated_at
		 FROM shots
		 WHERE fight_id = ? AND `+column+` IS NOT NULL
		 ORDER BY created_at ASC, rowid ASC`,
		fightID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("load existing shots: %w", err)
	}
	existing, err := scanShots(rows)
	rows.Close()
	if err != nil {
		return 0, 0, err
	}

	plan, err := domain.PlanReconcile(kind, existing, desiredIDs)
	if err != nil {
		return 0, 0, err
	}

	now := toMillis(s.now())
	for _, participantID := range plan.CreateIDs {
		shotID, err := s.newID()
		if err != nil {
			return 0, 0, fmt.Errorf("generate shot id: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO shots (id, fight_id, `+column+`, initiative, created_at, updated_at)
			 VALUES (?, ?, ?, NULL, ?, ?)`,
			shotID,
			fightID,
			participantID,
			now,
			now,
		); err != nil {
			return 0, 0, fmt.Errorf("insert shot for %s: %w", participantID, err)
		}
	}
	for _, shotID := range plan.DeleteShotIDs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM shots WHERE id = ?", shotID); err != nil {
			return 0, 0, fmt.Errorf("delete shot %s: %w", shotID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit reconcile: %w", err)
	}
	return len(plan.CreateIDs), len(plan.DeleteShotIDs), nil
}

// SetShotInitiative stores or clears the initiative value on one shot of the
// fight. A shot id held by a different fight reports storage.ErrNotFound.
func (s *Store) SetShotInitiative(ctx context.Context, fightID, shotID string, initiative *int) (domain.Shot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Shot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Shot{}, fmt.Errorf("storage is not configured")
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return domain.Shot{}, fmt.Errorf("fight id is required")
	}
	shotID = strings.TrimSpace(shotID)
	if shotID == "" {
		return domain.Shot{}, fmt.Errorf("shot id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Shot{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fightExists(ctx, tx, fightID); err != nil {
		return domain.Shot{}, err
	}

	now := toMillis(s.now())
	result, err := tx.ExecContext(
		ctx,
		"UPDATE shots SET initiative = ?, updated_at = ? WHERE id = ? AND fight_id = ?",
		toNullInt(initiative),
		now,
		shotID,
		fightID,
	)
	if err != nil {
		return domain.Shot{}, fmt.Errorf("set shot initiative: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Shot{}, fmt.Errorf("set shot initiative rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Shot{}, storage.ErrNotFound
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, fight_id, character_id, vehicle_id, initiative, created_at, updated_at
		 FROM shots
		 WHERE id = ?`,
		shotID,
	)
	if err != nil {
		return domain.Shot{}, fmt.Errorf("load updated shot: %w", err)
	}
	shots, err := scanShots(rows)
	rows.Close()
	if err != nil {
		return domain.Shot{}, err
	}
	if len(shots) != 1 {
		return domain.Shot{}, storage.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return domain.Shot{}, fmt.Errorf("commit set initiative: %w", err)
	}
	return shots[0], nil
}

// AppendPartyShots adds one shot per bound slot of the party to the fight in
// slot order. It never inspects or removes existing shots; adding the same
// party twice appends a second copy of each bound participant.
func (s *Store) AppendPartyShots(ctx context.Context, fightID, partyID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return 0, fmt.Errorf("fight id is required")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return 0, fmt.Errorf("party id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fightExists(ctx, tx, fightID); err != nil {
		return 0, err
	}
	if err := partyExists(ctx, tx, partyID); err != nil {
		return 0, err
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT character_id, vehicle_id
		 FROM slots
		 WHERE party_id = ?
		 ORDER BY position ASC`,
		partyID,
	)
	if err != nil {
		return 0, fmt.Errorf("load party slots: %w", err)
	}

	type binding struct {
		characterID string
		vehicleID   string
	}
	var bindings []binding
	for rows.Next() {
		var characterID, vehicleID sql.NullString
		if err := rows.Scan(&characterID, &vehicleID); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan slot binding: %w", err)
		}
		bindings = append(bindings, binding{
			characterID: fromNullString(characterID),
			vehicleID:   fromNullString(vehicleID),
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate slot bindings: %w", err)
	}
	rows.Close()

	now := toMillis(s.now())
	created := 0
	for _, bound := range bindings {
		if bound.characterID == "" && bound.vehicleID == "" {
			continue
		}
		shotID, err := s.newID()
		if err != nil {
			return 0, fmt.Errorf("generate shot id: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO shots (id, fight_id, character_id, vehicle_id, initiative, created_at, updated_at)
			 VALUES (?, ?, ?, ?, NULL, ?, ?)`,
			shotID,
			fightID,
			toNullString(bound.characterID),
			toNullString(bound.vehicleID),
			now,
			now,
		); err != nil {
			return 0, fmt.Errorf("insert party shot: %w", err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add party: %w", err)
	}
	return created, nil
}
