package domain

import "errors"

// ParticipantKind describes which participant category a roster operation
// pertains to.
type ParticipantKind int

const (
	// ParticipantKindUnspecified represents an invalid participant kind.
	ParticipantKindUnspecified ParticipantKind = iota
	// ParticipantKindCharacter selects character-bound roster entries.
	ParticipantKindCharacter
	// ParticipantKindVehicle selects vehicle-bound roster entries.
	ParticipantKindVehicle
)

// ErrInvalidKind indicates a missing or unknown participant kind.
var ErrInvalidKind = errors.New("participant kind is required")

// String returns the lowercase kind name used in persistence and telemetry.
func (k ParticipantKind) String() string {
	switch k {
	case ParticipantKindCharacter:
		return "character"
	case ParticipantKindVehicle:
		return "vehicle"
	default:
		return "unspecified"
	}
}

// Valid reports whether the kind is one of the known participant categories.
func (k ParticipantKind) Valid() bool {
	return k == ParticipantKindCharacter || k == ParticipantKindVehicle
}
