// Package event defines the notifications recorded for characters after a fight.
package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	// TitleParticipated is recorded for a character who attacked alone.
	TitleParticipated = "Vous avez participé à un combat"
	// TitleLedAttack is recorded for a character who led an affinity attack.
	TitleLedAttack = "Vous avez participé à une attaque"
	// TitleSuffered is recorded for every other participant.
	TitleSuffered = "Vous avez subit une attaque"
)

// Event is a story delivered to one character.
type Event struct {
	ID          uuid.UUID `json:"id"`
	CharacterID string    `json:"character_id"`
	Title       string    `json:"title"`
	Read        bool      `json:"read"`
	Story       []string  `json:"story"`
	CreatedAt   time.Time `json:"created_at"`
}

// New builds an Event with a fresh id.
//
// Postcondition: ID is a random v4 uuid and Story is a copy of story.
func New(characterID, title string, story []string, read bool, now time.Time) Event {
	return Event{
		ID:          uuid.New(),
		CharacterID: characterID,
		Title:       title,
		Read:        read,
		Story:       append([]string(nil), story...),
		CreatedAt:   now,
	}
}
