// Package gameserver exposes the attack dialog over HTTP and pushes the
// resulting events to connected players over WebSocket.
package gameserver

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/game/attack"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/combat"
	"github.com/cory-johannsen/rolling/internal/game/dice"
	"github.com/cory-johannsen/rolling/internal/game/event"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
	"github.com/cory-johannsen/rolling/internal/storage/memory"
	"github.com/cory-johannsen/rolling/internal/storage/postgres"
)

// CharacterStore is the character repository a request works with.
type CharacterStore interface {
	attack.Characters
	Get(ctx context.Context, id string) (*character.Character, error)
}

// Stores is the set of repositories bound to one request.
type Stores struct {
	Characters CharacterStore
	Affinities attack.Affinities
	Events     attack.Events
}

// Transactor runs fn against repositories sharing one transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}

// PostgresTransactor runs requests in PostgreSQL transactions.
type PostgresTransactor struct {
	Pool *postgres.Pool
}

// InTx commits when fn returns nil and rolls back otherwise.
func (t PostgresTransactor) InTx(ctx context.Context, fn func(s Stores) error) error {
	return t.Pool.InTx(ctx, func(s *postgres.Store) error {
		return fn(Stores{Characters: s.Characters, Affinities: s.Affinities, Events: s.Events})
	})
}

// MemoryTransactor runs requests one at a time against an in-memory store.
// Changes made before a failure are kept.
type MemoryTransactor struct {
	Store *memory.Store
	mu    sync.Mutex
}

// InTx runs fn while holding the transactor lock.
func (t *MemoryTransactor) InTx(_ context.Context, fn func(s Stores) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(Stores{Characters: t.Store.Characters, Affinities: t.Store.Affinities, Events: t.Store.Events})
}

// Fights builds the attack dialog over the repositories of a request.
type Fights struct {
	Catalog   *stuff.Catalog
	Modifiers combat.Modifiers
	Rules     combat.Rules
	Source    dice.Source
}

// Action returns an attack dialog bound to s logging to logger.
func (f *Fights) Action(s Stores, logger *zap.Logger) *attack.Action {
	resolver := combat.NewResolver(s.Characters, s.Affinities, f.Rules.Readiness)
	engine := combat.NewEngine(s.Characters, f.Catalog, f.Modifiers, f.Rules, f.Source, logger)
	return attack.NewAction(s.Characters, s.Affinities, s.Events, resolver, engine, f.Rules.Readiness, logger)
}

// recordingEvents remembers the events added during a request so they can
// be published once the transaction commits.
type recordingEvents struct {
	attack.Events
	added []event.Event
}

func (r *recordingEvents) Add(ctx context.Context, e event.Event) error {
	if err := r.Events.Add(ctx, e); err != nil {
		return err
	}
	r.added = append(r.added, e)
	return nil
}
