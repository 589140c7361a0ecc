// Package seed populates an encounter database with a demo campaign fixture.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	entrypoint "github.com/progressions/shot-server/internal/platform/cmd"
	"github.com/progressions/shot-server/internal/services/encounter/domain"
	"github.com/progressions/shot-server/internal/services/encounter/engine"
	encountersqlite "github.com/progressions/shot-server/internal/services/encounter/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath      string `env:"SHOT_SERVER_ENCOUNTER_DB_PATH"`
	TemplateKey string
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "encounter.db")
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the encounter database")
	fs.StringVar(&cfg.TemplateKey, "template", "big_boss_showdown", "party template for the demo party")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run seeds a demo fight and party through the engine so the data passes the
// same validation as live traffic.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	store, err := encountersqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open encounter store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()
	eng := engine.New(store)

	fight, err := eng.CreateFight(ctx, domain.CreateFightInput{
		CampaignID: "demo-campaign",
		Name:       "Dockside Shootout",
	})
	if err != nil {
		return fmt.Errorf("seed fight: %w", err)
	}
	fmt.Fprintf(out, "fight %s (%s)\n", fight.ID, fight.Name)

	party, err := eng.CreateParty(ctx, domain.CreatePartyInput{
		CampaignID:  "demo-campaign",
		Name:        "The Jade Wheel",
		Description: "Triad enforcers with a getaway van",
	})
	if err != nil {
		return fmt.Errorf("seed party: %w", err)
	}
	fmt.Fprintf(out, "party %s (%s)\n", party.ID, party.Name)

	slots, err := eng.ApplyTemplate(ctx, party.ID, cfg.TemplateKey)
	if err != nil {
		return fmt.Errorf("apply template %s: %w", cfg.TemplateKey, err)
	}
	fmt.Fprintf(out, "template %s stamped %d slots\n", cfg.TemplateKey, len(slots))

	// Bind the first two slots so add-party produces roster entries.
	demoParticipants := []string{"demo-boss", "demo-enforcer"}
	for i, participantID := range demoParticipants {
		if i >= len(slots) {
			break
		}
		characterID := participantID
		if _, err := eng.UpdateSlot(ctx, party.ID, slots[i].ID, domain.SlotUpdate{
			CharacterID: &characterID,
		}); err != nil {
			return fmt.Errorf("bind slot %s: %w", slots[i].ID, err)
		}
	}

	created, err := eng.AddPartyToFight(ctx, fight.ID, party.ID)
	if err != nil {
		return fmt.Errorf("add party to fight: %w", err)
	}
	fmt.Fprintf(out, "added %d party participants to fight %s\n", created, fight.ID)

	result, err := eng.Reconcile(ctx, engine.ReconcileRequest{
		FightID:        fight.ID,
		Kind:           domain.ParticipantKindVehicle,
		ParticipantIDs: []string{"demo-van"},
	})
	if err != nil {
		return fmt.Errorf("seed vehicle roster: %w", err)
	}
	fmt.Fprintf(out, "roster holds %d shots\n", len(result.Shots))
	return nil
}
