package domain

import "time"

// Shot represents one participant instance in one fight. A fight may hold
// several shots referencing the same character or vehicle; duplicates are how
// identical mooks appear on the roster. A shot bound to neither is a
// placeholder entry.
type Shot struct {
	ID          string
	FightID     string
	CharacterID string
	VehicleID   string
	// Initiative is the entry's current shot value. It is optional game
	// metadata here; reconciliation creates entries with it unset.
	Initiative *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParticipantID returns the bound participant id for the given kind, or empty
// when the shot is not bound to that kind.
func (s Shot) ParticipantID(kind ParticipantKind) string {
	switch kind {
	case ParticipantKindCharacter:
		return s.CharacterID
	case ParticipantKindVehicle:
		return s.VehicleID
	default:
		return ""
	}
}
