package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/progressions/shot-server/internal/platform/id"
)

var (
	// ErrEmptyFightName indicates a missing fight name.
	ErrEmptyFightName = errors.New("fight name is required")
	// ErrEmptyCampaignID indicates a missing campaign reference.
	ErrEmptyCampaignID = errors.New("campaign id is required")
)

// Fight identifies a combat encounter within a campaign. It owns its shots
// exclusively; deleting a fight cascades into them.
type Fight struct {
	ID         string
	CampaignID string
	Name       string
	// Sequence carries the encounter's running shot-counter sequence. The
	// engine stores it untouched; initiative arithmetic happens elsewhere.
	Sequence  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateFightInput describes the metadata needed to create a fight.
type CreateFightInput struct {
	CampaignID string
	Name       string
}

// CreateFight creates a new fight with a generated ID and timestamps.
func CreateFight(input CreateFightInput, now func() time.Time, idGenerator func() (string, error)) (Fight, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	campaignID := strings.TrimSpace(input.CampaignID)
	if campaignID == "" {
		return Fight{}, ErrEmptyCampaignID
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Fight{}, ErrEmptyFightName
	}

	fightID, err := idGenerator()
	if err != nil {
		return Fight{}, fmt.Errorf("generate fight id: %w", err)
	}

	createdAt := now().UTC()
	return Fight{
		ID:         fightID,
		CampaignID: campaignID,
		Name:       name,
		Sequence:   1,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}
