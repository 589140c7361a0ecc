package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/progressions/shot-server/internal/platform/id"
)

// ErrEmptyPartyName indicates a missing party name.
var ErrEmptyPartyName = errors.New("party name is required")

// Party is a named, reusable composition of role slots scoped to a campaign.
// It owns its slots exclusively; deleting a party cascades into them.
type Party struct {
	ID          string
	CampaignID  string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePartyInput describes the metadata needed to create a party.
type CreatePartyInput struct {
	CampaignID  string
	Name        string
	Description string
}

// CreateParty creates a new party with a generated ID and timestamps.
func CreateParty(input CreatePartyInput, now func() time.Time, idGenerator func() (string, error)) (Party, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	campaignID := strings.TrimSpace(input.CampaignID)
	if campaignID == "" {
		return Party{}, ErrEmptyCampaignID
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Party{}, ErrEmptyPartyName
	}

	partyID, err := idGenerator()
	if err != nil {
		return Party{}, fmt.Errorf("generate party id: %w", err)
	}

	createdAt := now().UTC()
	return Party{
		ID:          partyID,
		CampaignID:  campaignID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}
