package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/rolling/internal/game/event"
	"github.com/cory-johannsen/rolling/internal/storage"
)

// EventRepository provides event persistence.
type EventRepository struct {
	db DBTX
}

// NewEventRepository creates an EventRepository backed by db.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

// Add inserts e.
//
// Postcondition: Returns an error wrapping storage.ErrCharacterNotFound when
// e.CharacterID matches no character.
func (r *EventRepository) Add(ctx context.Context, e event.Event) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO events (id, character_id, title, read, story, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.CharacterID, e.Title, e.Read, e.Story, e.CreatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("character %s: %w", e.CharacterID, storage.ErrCharacterNotFound)
		}
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// ForCharacter returns the events of characterID, oldest first.
func (r *EventRepository) ForCharacter(ctx context.Context, characterID string) ([]event.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, character_id, title, read, story, created_at
		FROM events WHERE character_id = $1 ORDER BY created_at, id`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events of %s: %w", characterID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (event.Event, error) {
		var e event.Event
		err := row.Scan(&e.ID, &e.CharacterID, &e.Title, &e.Read, &e.Story, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning events of %s: %w", characterID, err)
	}
	return out, nil
}
