package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
	"github.com/cory-johannsen/rolling/internal/storage"
)

const (
	usedAsWeapon = "weapon"
	usedAsShield = "shield"
	usedAsArmor  = "armor"
)

// ErrStuffSlotTaken is returned when equipping a slot already holding an item.
var ErrStuffSlotTaken = errors.New("stuff slot already taken")

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db DBTX
}

// NewCharacterRepository creates a CharacterRepository backed by db.
//
// Precondition: db must be an open pool or a live transaction.
func NewCharacterRepository(db DBTX) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts c with its skills and equipment. The ids of the equipped
// stuff are set on c.
//
// Precondition: c.ID and c.Name must be non-empty.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO characters
			(id, name, alive, world_row, world_col, zone_row, zone_col,
			 life_points, action_points, tiredness)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.Name, c.Alive, c.World.Row, c.World.Col, c.Zone.Row, c.Zone.Col,
		c.LifePoints, c.ActionPoints, c.Tiredness,
	)
	if err != nil {
		return fmt.Errorf("inserting character: %w", err)
	}
	for id, s := range c.Skills {
		if err := r.putSkill(ctx, c.ID, id, s); err != nil {
			return err
		}
	}
	for usedAs, s := range map[string]*stuff.Stuff{usedAsWeapon: c.Weapon, usedAsShield: c.Shield, usedAsArmor: c.Armor} {
		if s == nil {
			continue
		}
		if err := r.equip(ctx, c.ID, usedAs, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *CharacterRepository) equip(ctx context.Context, characterID, usedAs string, s *stuff.Stuff) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO stuff
			(properties_id, name, damages, sharp, estoc, blunt,
			 protect_sharp, protect_estoc, protect_blunt, owner_id, used_as)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		s.PropertiesID, s.Name, s.Damages, s.Sharp, s.Estoc, s.Blunt,
		s.ProtectSharp, s.ProtectEstoc, s.ProtectBlunt, characterID, usedAs,
	).Scan(&s.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s of %s: %w", usedAs, characterID, ErrStuffSlotTaken)
		}
		return fmt.Errorf("inserting stuff: %w", err)
	}
	return nil
}

func (r *CharacterRepository) putSkill(ctx context.Context, characterID, skillID string, s character.Skill) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO character_skills (character_id, skill_id, value, counter)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (character_id, skill_id) DO UPDATE SET value = $3, counter = $4`,
		characterID, skillID, s.Value, s.Counter,
	)
	if err != nil {
		return fmt.Errorf("saving skill %s of %s: %w", skillID, characterID, err)
	}
	return nil
}

// Get retrieves a character with its skills and equipment.
//
// Postcondition: Returns the Character or an error wrapping storage.ErrCharacterNotFound.
func (r *CharacterRepository) Get(ctx context.Context, id string) (*character.Character, error) {
	cs, err := r.GetMultiple(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return cs[0], nil
}

// GetMultiple returns the characters with ids, in ids order.
//
// Postcondition: Returns an error wrapping storage.ErrCharacterNotFound when
// any id matches no row.
func (r *CharacterRepository) GetMultiple(ctx context.Context, ids []string) ([]*character.Character, error) {
	if len(ids) == 0 {
		return []*character.Character{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, name, alive, world_row, world_col, zone_row, zone_col,
		       life_points, action_points, tiredness
		FROM characters WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	byID := make(map[string]*character.Character, len(ids))
	for rows.Next() {
		var c character.Character
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Alive, &c.World.Row, &c.World.Col, &c.Zone.Row, &c.Zone.Col,
			&c.LifePoints, &c.ActionPoints, &c.Tiredness,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		c.Skills = make(map[string]character.Skill)
		byID[c.ID] = &c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}

	out := make([]*character.Character, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
		}
		out = append(out, c)
	}
	if err := r.loadSkills(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadEquipment(ctx, ids, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CharacterRepository) loadSkills(ctx context.Context, ids []string, byID map[string]*character.Character) error {
	rows, err := r.db.Query(ctx, `
		SELECT character_id, skill_id, value, counter
		FROM character_skills WHERE character_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("querying skills: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			characterID, skillID string
			s                    character.Skill
		)
		if err := rows.Scan(&characterID, &skillID, &s.Value, &s.Counter); err != nil {
			return fmt.Errorf("scanning skill row: %w", err)
		}
		byID[characterID].Skills[skillID] = s
	}
	return rows.Err()
}

func (r *CharacterRepository) loadEquipment(ctx context.Context, ids []string, byID map[string]*character.Character) error {
	rows, err := r.db.Query(ctx, `
		SELECT owner_id, used_as, id, properties_id, name, damages, sharp, estoc, blunt,
		       protect_sharp, protect_estoc, protect_blunt
		FROM stuff WHERE owner_id = ANY($1) AND used_as IS NOT NULL`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("querying equipment: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ownerID, usedAs string
			s               stuff.Stuff
		)
		if err := rows.Scan(
			&ownerID, &usedAs, &s.ID, &s.PropertiesID, &s.Name, &s.Damages, &s.Sharp, &s.Estoc, &s.Blunt,
			&s.ProtectSharp, &s.ProtectEstoc, &s.ProtectBlunt,
		); err != nil {
			return fmt.Errorf("scanning stuff row: %w", err)
		}
		c := byID[ownerID]
		switch usedAs {
		case usedAsWeapon:
			c.Weapon = &s
		case usedAsShield:
			c.Shield = &s
		case usedAsArmor:
			c.Armor = &s
		}
	}
	return rows.Err()
}

// AliveIDsAt returns the ids of living characters among ids standing at
// coord, in ids order.
func (r *CharacterRepository) AliveIDsAt(ctx context.Context, ids []string, coord character.WorldCoord) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id FROM characters
		WHERE id = ANY($1) AND alive AND world_row = $2 AND world_col = $3
		ORDER BY array_position($1::text[], id)`,
		ids, coord.Row, coord.Col,
	)
	if err != nil {
		return nil, fmt.Errorf("querying present characters: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning present characters: %w", err)
	}
	return out, nil
}

func (r *CharacterRepository) add(ctx context.Context, column, id string, value float64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE characters SET `+column+` = `+column+` + $2, updated_at = NOW() WHERE id = $1`,
		id, value,
	)
	if err != nil {
		return fmt.Errorf("updating %s of %s: %w", column, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
	}
	return nil
}

// ReduceActionPoints subtracts value from the action points of id.
func (r *CharacterRepository) ReduceActionPoints(ctx context.Context, id string, value float64) error {
	return r.add(ctx, "action_points", id, -value)
}

// IncreaseTiredness adds value to the tiredness of id.
func (r *CharacterRepository) IncreaseTiredness(ctx context.Context, id string, value float64) error {
	return r.add(ctx, "tiredness", id, value)
}

// ReduceLifePoints subtracts value from the life points of id and returns
// what is left.
func (r *CharacterRepository) ReduceLifePoints(ctx context.Context, id string, value float64) (float64, error) {
	var left float64
	err := r.db.QueryRow(ctx, `
		UPDATE characters SET life_points = life_points - $2, updated_at = NOW()
		WHERE id = $1 RETURNING life_points`,
		id, value,
	).Scan(&left)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
		}
		return 0, fmt.Errorf("reducing life points of %s: %w", id, err)
	}
	return left, nil
}

// IncreaseSkill grows the training counter of skillID for id, starting
// from the base skill when the character never trained it.
func (r *CharacterRepository) IncreaseSkill(ctx context.Context, id, skillID string, increment float64) error {
	s := character.Skill{Value: character.BaseSkillValue, Counter: character.BaseSkillCounter}
	err := r.db.QueryRow(ctx, `
		SELECT value, counter FROM character_skills
		WHERE character_id = $1 AND skill_id = $2 FOR UPDATE`,
		id, skillID,
	).Scan(&s.Value, &s.Counter)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("querying skill %s of %s: %w", skillID, id, err)
	}
	if err := r.putSkill(ctx, id, skillID, s.Grow(increment)); err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
		}
		return err
	}
	return nil
}

// Kill marks id dead, drops everything it carries and its corpse on its
// tile and severs its affinity relations, all or nothing.
func (r *CharacterRepository) Kill(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var (
			name  string
			world character.WorldCoord
			zone  character.ZoneCoord
		)
		err := tx.QueryRow(ctx, `
			UPDATE characters SET alive = FALSE, updated_at = NOW()
			WHERE id = $1 RETURNING name, world_row, world_col, zone_row, zone_col`,
			id,
		).Scan(&name, &world.Row, &world.Col, &zone.Row, &zone.Col)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
			}
			return fmt.Errorf("killing %s: %w", id, err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE stuff SET owner_id = NULL, used_as = NULL,
			       world_row = $2, world_col = $3, zone_row = $4, zone_col = $5
			WHERE owner_id = $1`,
			id, world.Row, world.Col, zone.Row, zone.Col,
		)
		if err != nil {
			return fmt.Errorf("dropping stuff of %s: %w", id, err)
		}
		corpse := stuff.Corpse(name)
		_, err = tx.Exec(ctx, `
			INSERT INTO stuff (properties_id, name, world_row, world_col, zone_row, zone_col)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			corpse.PropertiesID, corpse.Name, world.Row, world.Col, zone.Row, zone.Col,
		)
		if err != nil {
			return fmt.Errorf("leaving corpse of %s: %w", id, err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE affinity_relations SET request = FALSE, accepted = FALSE, fighter = FALSE
			WHERE character_id = $1`,
			id,
		)
		if err != nil {
			return fmt.Errorf("severing relations of %s: %w", id, err)
		}
		return nil
	})
}

// StuffOnGround returns the items lying on the world tile coord, by id.
func (r *CharacterRepository) StuffOnGround(ctx context.Context, coord character.WorldCoord) ([]stuff.Stuff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, properties_id, name, damages, sharp, estoc, blunt,
		       protect_sharp, protect_estoc, protect_blunt
		FROM stuff WHERE owner_id IS NULL AND world_row = $1 AND world_col = $2
		ORDER BY id`,
		coord.Row, coord.Col,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stuff on ground: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stuff.Stuff, error) {
		var s stuff.Stuff
		err := row.Scan(&s.ID, &s.PropertiesID, &s.Name, &s.Damages, &s.Sharp, &s.Estoc, &s.Blunt,
			&s.ProtectSharp, &s.ProtectEstoc, &s.ProtectBlunt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning stuff on ground: %w", err)
	}
	return out, nil
}
