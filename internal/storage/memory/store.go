// Package memory provides mutex-guarded in-memory stores with the same
// behaviour as the postgres repositories.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/event"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
	"github.com/cory-johannsen/rolling/internal/storage"
)

// DroppedStuff records an item left on the ground by a dead character.
type DroppedStuff struct {
	Stuff stuff.Stuff
	World character.WorldCoord
	Zone  character.ZoneCoord
}

type state struct {
	mu         sync.RWMutex
	characters map[string]*character.Character
	affinities map[int64]*affinity.Affinity
	relations  []affinity.Relation
	events     []event.Event
	dropped    []DroppedStuff
}

// Store bundles the repositories over one shared state.
type Store struct {
	Characters *Characters
	Affinities *Affinities
	Events     *Events
	st         *state
}

// NewStore returns an empty Store.
func NewStore() *Store {
	st := &state{
		characters: make(map[string]*character.Character),
		affinities: make(map[int64]*affinity.Affinity),
	}
	return &Store{
		Characters: &Characters{st: st},
		Affinities: &Affinities{st: st},
		Events:     &Events{st: st},
		st:         st,
	}
}

// PutCharacter inserts or replaces c.
func (s *Store) PutCharacter(c *character.Character) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.characters[c.ID] = c.Clone()
}

// PutAffinity inserts or replaces a.
func (s *Store) PutAffinity(a *affinity.Affinity) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	cp := *a
	s.st.affinities[a.ID] = &cp
}

// PutRelation inserts r, replacing any relation between the same character
// and affinity.
func (s *Store) PutRelation(r affinity.Relation) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for i, existing := range s.st.relations {
		if existing.CharacterID == r.CharacterID && existing.AffinityID == r.AffinityID {
			s.st.relations[i] = r
			return
		}
	}
	s.st.relations = append(s.st.relations, r)
}

// Dropped returns the items dropped by dead characters.
func (s *Store) Dropped() []DroppedStuff {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	return append([]DroppedStuff(nil), s.st.dropped...)
}

// Characters is the in-memory character repository.
type Characters struct {
	st *state
}

// Get returns a copy of the character with id.
func (r *Characters) Get(_ context.Context, id string) (*character.Character, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	c, ok := r.st.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
	}
	return c.Clone(), nil
}

// GetMultiple returns copies of the characters with ids, in ids order.
func (r *Characters) GetMultiple(_ context.Context, ids []string) ([]*character.Character, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*character.Character, 0, len(ids))
	for _, id := range ids {
		c, ok := r.st.characters[id]
		if !ok {
			return nil, fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

// AliveIDsAt returns the ids of living characters among ids standing at coord.
func (r *Characters) AliveIDsAt(_ context.Context, ids []string, coord character.WorldCoord) ([]string, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []string
	for _, id := range ids {
		c, ok := r.st.characters[id]
		if ok && c.Alive && c.World == coord {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *Characters) update(id string, fn func(c *character.Character)) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.characters[id]
	if !ok {
		return fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
	}
	fn(c)
	return nil
}

func (r *Characters) ReduceActionPoints(_ context.Context, id string, value float64) error {
	return r.update(id, func(c *character.Character) { c.ActionPoints -= value })
}

func (r *Characters) IncreaseTiredness(_ context.Context, id string, value float64) error {
	return r.update(id, func(c *character.Character) { c.Tiredness += value })
}

func (r *Characters) ReduceLifePoints(_ context.Context, id string, value float64) (float64, error) {
	var left float64
	err := r.update(id, func(c *character.Character) {
		c.LifePoints -= value
		left = c.LifePoints
	})
	return left, err
}

func (r *Characters) IncreaseSkill(_ context.Context, id, skillID string, increment float64) error {
	return r.update(id, func(c *character.Character) { c.GrowSkill(skillID, increment) })
}

// Kill marks the character dead, drops its equipment and its corpse where it
// stands and severs its affinity relations.
func (r *Characters) Kill(_ context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.characters[id]
	if !ok {
		return fmt.Errorf("character %s: %w", id, storage.ErrCharacterNotFound)
	}
	c.Alive = false
	for _, s := range []*stuff.Stuff{c.Weapon, c.Shield, c.Armor} {
		if s != nil {
			r.st.dropped = append(r.st.dropped, DroppedStuff{Stuff: *s, World: c.World, Zone: c.Zone})
		}
	}
	c.Weapon, c.Shield, c.Armor = nil, nil, nil
	r.st.dropped = append(r.st.dropped, DroppedStuff{Stuff: stuff.Corpse(c.Name), World: c.World, Zone: c.Zone})
	for i, rel := range r.st.relations {
		if rel.CharacterID == id {
			r.st.relations[i] = rel.Severed()
		}
	}
	return nil
}

// Affinities is the in-memory affinity repository.
type Affinities struct {
	st *state
}

// Get returns a copy of the affinity with id.
func (r *Affinities) Get(_ context.Context, id int64) (*affinity.Affinity, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	a, ok := r.st.affinities[id]
	if !ok {
		return nil, fmt.Errorf("affinity %d: %w", id, storage.ErrAffinityNotFound)
	}
	cp := *a
	return &cp, nil
}

// GetMultiple returns copies of the affinities with ids, skipping unknown ids.
func (r *Affinities) GetMultiple(_ context.Context, ids []int64) ([]*affinity.Affinity, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*affinity.Affinity, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.st.affinities[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Relations returns every relation of characterID.
func (r *Affinities) Relations(_ context.Context, characterID string) ([]affinity.Relation, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []affinity.Relation
	for _, rel := range r.st.relations {
		if rel.CharacterID == characterID {
			out = append(out, rel)
		}
	}
	return out, nil
}

// FighterIDs returns the ids of the accepted fighters of affinityID.
func (r *Affinities) FighterIDs(_ context.Context, affinityID int64) ([]string, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []string
	for _, rel := range r.st.relations {
		if rel.AffinityID == affinityID && rel.IsFighter() {
			out = append(out, rel.CharacterID)
		}
	}
	return out, nil
}

// Events is the in-memory event repository.
type Events struct {
	st *state
}

// Add stores e.
func (r *Events) Add(_ context.Context, e event.Event) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.events = append(r.st.events, e)
	return nil
}

// ForCharacter returns the events of characterID in insertion order.
func (r *Events) ForCharacter(_ context.Context, characterID string) ([]event.Event, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []event.Event
	for _, e := range r.st.events {
		if e.CharacterID == characterID {
			out = append(out, e)
		}
	}
	return out, nil
}
