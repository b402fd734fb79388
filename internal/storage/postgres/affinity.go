package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/storage"
)

// ErrAffinityNameTaken is returned when creating an affinity with a name already in use.
var ErrAffinityNameTaken = errors.New("affinity name already taken")

// AffinityRepository provides affinity and relation persistence.
type AffinityRepository struct {
	db DBTX
}

// NewAffinityRepository creates an AffinityRepository backed by db.
func NewAffinityRepository(db DBTX) *AffinityRepository {
	return &AffinityRepository{db: db}
}

// Create inserts a and sets its ID.
//
// Postcondition: Returns ErrAffinityNameTaken on a duplicate name.
func (r *AffinityRepository) Create(ctx context.Context, a *affinity.Affinity) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO affinities (name, description) VALUES ($1, $2) RETURNING id`,
		a.Name, a.Description,
	).Scan(&a.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAffinityNameTaken
		}
		return fmt.Errorf("inserting affinity: %w", err)
	}
	return nil
}

// PutRelation inserts rel or replaces the relation between the same
// character and affinity.
func (r *AffinityRepository) PutRelation(ctx context.Context, rel affinity.Relation) error {
	var status *string
	if rel.Status != "" {
		s := string(rel.Status)
		status = &s
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO affinity_relations
			(character_id, affinity_id, request, accepted, rejected, disallowed, fighter, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (character_id, affinity_id) DO UPDATE SET
			request = $3, accepted = $4, rejected = $5, disallowed = $6, fighter = $7, status = $8`,
		rel.CharacterID, rel.AffinityID, rel.Request, rel.Accepted, rel.Rejected, rel.Disallowed, rel.Fighter, status,
	)
	if err != nil {
		return fmt.Errorf("saving relation %s/%d: %w", rel.CharacterID, rel.AffinityID, err)
	}
	return nil
}

// Get retrieves an affinity by id.
//
// Postcondition: Returns the Affinity or an error wrapping storage.ErrAffinityNotFound.
func (r *AffinityRepository) Get(ctx context.Context, id int64) (*affinity.Affinity, error) {
	var a affinity.Affinity
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description FROM affinities WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("affinity %d: %w", id, storage.ErrAffinityNotFound)
		}
		return nil, fmt.Errorf("querying affinity: %w", err)
	}
	return &a, nil
}

// GetMultiple returns the affinities with ids ordered by id, skipping unknown ids.
func (r *AffinityRepository) GetMultiple(ctx context.Context, ids []int64) ([]*affinity.Affinity, error) {
	if len(ids) == 0 {
		return []*affinity.Affinity{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, name, description FROM affinities WHERE id = ANY($1) ORDER BY id`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("querying affinities: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*affinity.Affinity, error) {
		var a affinity.Affinity
		err := row.Scan(&a.ID, &a.Name, &a.Description)
		return &a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning affinities: %w", err)
	}
	return out, nil
}

// Relations returns every relation of characterID ordered by affinity id.
func (r *AffinityRepository) Relations(ctx context.Context, characterID string) ([]affinity.Relation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT character_id, affinity_id, request, accepted, rejected, disallowed, fighter, status
		FROM affinity_relations WHERE character_id = $1 ORDER BY affinity_id`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying relations of %s: %w", characterID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (affinity.Relation, error) {
		var (
			rel    affinity.Relation
			status *string
		)
		err := row.Scan(&rel.CharacterID, &rel.AffinityID, &rel.Request, &rel.Accepted,
			&rel.Rejected, &rel.Disallowed, &rel.Fighter, &status)
		if status != nil {
			rel.Status = affinity.Status(*status)
		}
		return rel, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning relations of %s: %w", characterID, err)
	}
	return out, nil
}

// FighterIDs returns the ids of the accepted fighters of affinityID, sorted.
func (r *AffinityRepository) FighterIDs(ctx context.Context, affinityID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT character_id FROM affinity_relations
		WHERE affinity_id = $1 AND accepted AND fighter
		ORDER BY character_id`,
		affinityID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying fighters of affinity %d: %w", affinityID, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning fighters of affinity %d: %w", affinityID, err)
	}
	return out, nil
}
