package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/progressions/shot-server/internal/services/encounter/domain"
	"github.com/progressions/shot-server/internal/services/encounter/storage"
)

// PutFight upserts one fight record.
func (s *Store) PutFight(ctx context.Context, fight domain.Fight) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(fight.ID) == "" {
		return fmt.Errorf("fight id is required")
	}
	if strings.TrimSpace(fight.CampaignID) == "" {
		return fmt.Errorf("campaign id is required")
	}
	if strings.TrimSpace(fight.Name) == "" {
		return fmt.Errorf("fight name is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO fights (id, campaign_id, name, sequence, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   sequence = excluded.sequence,
		   updated_at = excluded.updated_at`,
		fight.ID,
		fight.CampaignID,
		fight.Name,
		fight.Sequence,
		toMillis(fight.CreatedAt),
		toMillis(fight.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put fight: %w", err)
	}
	return nil
}

// GetFight returns one fight record.
func (s *Store) GetFight(ctx context.Context, fightID string) (domain.Fight, error) {
	if err := ctx.Err(); err != nil {
		return domain.Fight{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Fight{}, fmt.Errorf("storage is not configured")
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return domain.Fight{}, fmt.Errorf("fight id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, campaign_id, name, sequence, created_at, updated_at
		 FROM fights
		 WHERE id = ?`,
		fightID,
	)

	var fight domain.Fight
	var createdAt, updatedAt int64
	if err := row.Scan(&fight.ID, &fight.CampaignID, &fight.Name, &fight.Sequence, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Fight{}, storage.ErrNotFound
		}
		return domain.Fight{}, fmt.Errorf("get fight: %w", err)
	}
	fight.CreatedAt = fromMillis(createdAt)
	fight.UpdatedAt = fromMillis(updatedAt)
	return fight, nil
}

// DeleteFight removes one fight; its shots cascade.
func (s *Store) DeleteFight(ctx context.Context, fightID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	fightID = strings.TrimSpace(fightID)
	if fightID == "" {
		return fmt.Errorf("fight id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM fights WHERE id = ?", fightID)
	if err != nil {
		return fmt.Errorf("delete fight: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fight rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PutParty upserts one party record.
func (s *Store) PutParty(ctx context.Context, party domain.Party) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(party.ID) == "" {
		return fmt.Errorf("party id is required")
	}
	if strings.TrimSpace(party.CampaignID) == "" {
		return fmt.Errorf("campaign id is required")
	}
	if strings.TrimSpace(party.Name) == "" {
		return fmt.Errorf("party name is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO parties (id, campaign_id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   updated_at = excluded.updated_at`,
		party.ID,
		party.CampaignID,
		party.Name,
		party.Description,
		toMillis(party.CreatedAt),
		toMillis(party.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put party: %w", err)
	}
	return nil
}

// GetParty returns one party record.
func (s *Store) GetParty(ctx context.Context, partyID string) (domain.Party, error) {
	if err := ctx.Err(); err != nil {
		return domain.Party{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Party{}, fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return domain.Party{}, fmt.Errorf("party id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, campaign_id, name, description, created_at, updated_at
		 FROM parties
		 WHERE id = ?`,
		partyID,
	)

	var party domain.Party
	var createdAt, updatedAt int64
	if err := row.Scan(&party.ID, &party.CampaignID, &party.Name, &party.Description, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Party{}, storage.ErrNotFound
		}
		return domain.Party{}, fmt.Errorf("get party: %w", err)
	}
	party.CreatedAt = fromMillis(createdAt)
	party.UpdatedAt = fromMillis(updatedAt)
	return party, nil
}

// DeleteParty removes one party; its slots cascade.
func (s *Store) DeleteParty(ctx context.Context, partyID string) error {
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

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM parties WHERE id = ?", partyID)
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete party rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
