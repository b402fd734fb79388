package memory_test

import (
	"context"
	"testing"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/event"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
	"github.com/cory-johannsen/rolling/internal/storage"
	"github.com/cory-johannsen/rolling/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var here = character.WorldCoord{Row: 1, Col: 1}

func TestCharacters_GetReturnsCopies(t *testing.T) {
	s := memory.NewStore()
	s.PutCharacter(&character.Character{ID: "a", Name: "A", LifePoints: 10, Alive: true})

	c, err := s.Characters.Get(context.Background(), "a")
	require.NoError(t, err)
	c.LifePoints = 0

	again, err := s.Characters.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 10.0, again.LifePoints)
}

func TestCharacters_NotFound(t *testing.T) {
	s := memory.NewStore()
	_, err := s.Characters.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)
	_, err = s.Characters.GetMultiple(context.Background(), []string{"nope"})
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)
	assert.ErrorIs(t, s.Characters.Kill(context.Background(), "nope"), storage.ErrCharacterNotFound)
}

func TestCharacters_AliveIDsAt(t *testing.T) {
	s := memory.NewStore()
	s.PutCharacter(&character.Character{ID: "a", Alive: true, World: here})
	s.PutCharacter(&character.Character{ID: "b", Alive: false, World: here})
	s.PutCharacter(&character.Character{ID: "c", Alive: true, World: character.WorldCoord{Row: 2}})

	ids, err := s.Characters.AliveIDsAt(context.Background(), []string{"a", "b", "c", "d"}, here)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestCharacters_Mutations(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	s.PutCharacter(&character.Character{ID: "a", LifePoints: 5, ActionPoints: 10, Alive: true})

	require.NoError(t, s.Characters.ReduceActionPoints(ctx, "a", 2))
	require.NoError(t, s.Characters.IncreaseTiredness(ctx, "a", 35))
	left, err := s.Characters.ReduceLifePoints(ctx, "a", 7.5)
	require.NoError(t, err)
	assert.Equal(t, -2.5, left)
	require.NoError(t, s.Characters.IncreaseSkill(ctx, "a", "agility", 1))

	c, err := s.Characters.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 8.0, c.ActionPoints)
	assert.Equal(t, 35.0, c.Tiredness)
	assert.Equal(t, 5.0, c.Skills["agility"].Counter)
}

func TestCharacters_KillDropsStuff(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	s.PutCharacter(&character.Character{
		ID: "a", Name: "A", Alive: true, World: here,
		Weapon: &stuff.Stuff{ID: 1, Name: "Hache"},
		Armor:  &stuff.Stuff{ID: 2, Name: "Veste"},
	})

	require.NoError(t, s.Characters.Kill(ctx, "a"))

	c, err := s.Characters.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, c.Alive)
	assert.Nil(t, c.Weapon)
	dropped := s.Dropped()
	require.Len(t, dropped, 3)
	assert.Equal(t, here, dropped[0].World)
	assert.Equal(t, stuff.Corpse("A"), dropped[2].Stuff)
	assert.Equal(t, here, dropped[2].World)
}

func TestCharacters_KillSeversRelations(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	s.PutAffinity(&affinity.Affinity{ID: 1, Name: "France"})
	s.PutCharacter(&character.Character{ID: "a", Name: "A", Alive: true, World: here})
	s.PutRelation(affinity.Relation{CharacterID: "a", AffinityID: 1, Accepted: true, Fighter: true, Status: affinity.StatusChief})
	s.PutRelation(affinity.Relation{CharacterID: "b", AffinityID: 1, Accepted: true, Fighter: true})

	require.NoError(t, s.Characters.Kill(ctx, "a"))

	rels, err := s.Affinities.Relations(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.False(t, rels[0].Accepted)
	assert.False(t, rels[0].Request)
	assert.False(t, rels[0].Fighter)
	assert.Equal(t, affinity.StatusChief, rels[0].Status)

	ids, err := s.Affinities.FighterIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestAffinities(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	s.PutAffinity(&affinity.Affinity{ID: 1, Name: "France"})
	s.PutRelation(affinity.Relation{CharacterID: "a", AffinityID: 1, Accepted: true, Fighter: true})
	s.PutRelation(affinity.Relation{CharacterID: "b", AffinityID: 1, Accepted: true})
	s.PutRelation(affinity.Relation{CharacterID: "c", AffinityID: 1, Request: true, Fighter: true})

	ids, err := s.Affinities.FighterIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	s.PutRelation(affinity.Relation{CharacterID: "b", AffinityID: 1, Accepted: true, Fighter: true})
	ids, err = s.Affinities.FighterIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	rels, err := s.Affinities.Relations(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, rels, 1)

	_, err = s.Affinities.Get(ctx, 9)
	assert.ErrorIs(t, err, storage.ErrAffinityNotFound)

	affs, err := s.Affinities.GetMultiple(ctx, []int64{1, 9})
	require.NoError(t, err)
	require.Len(t, affs, 1)
	assert.Equal(t, "France", affs[0].Name)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Events.Add(ctx, event.Event{CharacterID: "a", Title: "x"}))
	require.NoError(t, s.Events.Add(ctx, event.Event{CharacterID: "b", Title: "y"}))

	evs, err := s.Events.ForCharacter(ctx, "a")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "x", evs[0].Title)
}
