// Package domain holds the encounter service's entities and pure
// roster-composition logic: fights and their shot multisets, parties and
// their ordered role slots, and the static party template catalog.
package domain
