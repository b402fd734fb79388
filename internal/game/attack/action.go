// Package attack implements the dialog through which a character attacks
// another one, alone or at the head of an affinity.
package attack

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/combat"
	"github.com/cory-johannsen/rolling/internal/game/description"
	"github.com/cory-johannsen/rolling/internal/game/event"
)

// ActionType is the path segment identifying the attack action.
const ActionType = "ATTACK_CHARACTER"

// Characters is the character store port of the attack dialog.
type Characters interface {
	combat.CharacterReader
	combat.Mutator
	// Kill marks the character dead and drops what it carries.
	Kill(ctx context.Context, characterID string) error
}

// Affinities is the affinity store port of the attack dialog.
type Affinities interface {
	combat.AffinityReader
	Get(ctx context.Context, id int64) (*affinity.Affinity, error)
}

// Events records the notifications produced by a fight.
type Events interface {
	Add(ctx context.Context, e event.Event) error
}

// Action runs the attack dialog. Every request is checked from scratch; no
// state is kept between the confirmation and the execution.
type Action struct {
	characters Characters
	affinities Affinities
	events     Events
	resolver   *combat.Resolver
	engine     *combat.Engine
	readiness  character.Readiness
	now        func() time.Time
	logger     *zap.Logger
}

// NewAction creates an Action.
//
// Precondition: all arguments must be non-nil; resolver and engine must be
// built over the same stores as characters and affinities.
func NewAction(
	characters Characters,
	affinities Affinities,
	events Events,
	resolver *combat.Resolver,
	engine *combat.Engine,
	readiness character.Readiness,
	logger *zap.Logger,
) *Action {
	return &Action{
		characters: characters,
		affinities: affinities,
		events:     events,
		resolver:   resolver,
		engine:     engine,
		readiness:  readiness,
		now:        time.Now,
		logger:     logger,
	}
}

// Perform runs the dialog step selected by in for attacker against target.
//
// Precondition: attacker and target must be non-nil and distinct.
// Postcondition: game-rule rejections are returned as *ImpossibleActionError
// and leave the stores untouched.
func (a *Action) Perform(ctx context.Context, attacker, target *character.Character, in Input) (*description.Description, error) {
	state := StateOf(in)
	a.logger.Debug("attack dialog",
		zap.String("attacker", attacker.ID),
		zap.String("target", target.ID),
		zap.Stringer("state", state),
	)
	switch state {
	case StateLonelyConfirm:
		return a.lonelyConfirm(ctx, attacker, target, in)
	case StateLonelyExecute:
		return a.lonelyExecute(ctx, attacker, target)
	case StateAffinityConfirm:
		return a.affinityConfirm(ctx, attacker, target, in)
	case StateAffinityExecute:
		return a.affinityExecute(ctx, attacker, target, in)
	default:
		return a.root(ctx, attacker, target, in)
	}
}

func (a *Action) url(attacker, target *character.Character, in Input) string {
	u := fmt.Sprintf("/character/%s/with-character-action/%s/%s/%s", attacker.ID, ActionType, target.ID, in.DescriptionID)
	if q := in.Query().Encode(); q != "" {
		u += "?" + q
	}
	return u
}

func (a *Action) root(ctx context.Context, attacker, target *character.Character, in Input) (*description.Description, error) {
	relations, err := a.affinities.Relations(ctx, attacker.ID)
	if err != nil {
		return nil, fmt.Errorf("relations of %s: %w", attacker.ID, err)
	}

	items := []description.Part{
		description.Text("Veuillez préciser votre intention:"),
		description.Link("Attaquer seul et en mon nom uniquement",
			a.url(attacker, target, Input{DescriptionID: in.DescriptionID, Lonely: true})),
	}
	for _, rel := range affinity.Leading(relations) {
		ready, err := a.resolver.CountReady(ctx, rel.AffinityID, attacker.World)
		if err != nil {
			return nil, err
		}
		if ready == 0 {
			continue
		}
		aff, err := a.affinities.Get(ctx, rel.AffinityID)
		if err != nil {
			return nil, fmt.Errorf("affinity %d: %w", rel.AffinityID, err)
		}
		items = append(items, description.Link(
			fmt.Sprintf("Attaquer en tant que %s", aff.Name),
			a.url(attacker, target, Input{DescriptionID: in.DescriptionID, AsAffinity: aff.ID}),
		))
	}

	return &description.Description{
		Title:             fmt.Sprintf("Attaquer %s", target.Name),
		Items:             items,
		FooterCharacterID: attacker.ID,
		CanBeBack:         true,
	}, nil
}

// lonelyDefense builds the defense against a lone attacker and checks that
// the fight may happen.
func (a *Action) lonelyDefense(ctx context.Context, attacker, target *character.Character) (combat.DefendDescription, error) {
	if !a.readiness.CanAttack(attacker) {
		return combat.DefendDescription{}, impossible("Vous n'etes pas en état de vous battre")
	}
	defense, err := a.resolver.DefenseDescription(ctx, target, attacker.World, nil)
	if err != nil {
		return combat.DefendDescription{}, err
	}
	if defense.Has(attacker.ID) {
		return combat.DefendDescription{}, affiliatedWithDefense(defense)
	}
	if len(defense.ReadyFighters) == 0 {
		return combat.DefendDescription{}, impossible("Aucun des défenseurs n'est en état de se battre")
	}
	return defense, nil
}

func (a *Action) lonelyConfirm(ctx context.Context, attacker, target *character.Character, in Input) (*description.Description, error) {
	defense, err := a.lonelyDefense(ctx, attacker, target)
	if err != nil {
		return nil, err
	}

	var items []description.Part
	if len(defense.AllFighters) == 1 {
		items = append(items, description.Text(fmt.Sprintf(
			"Engager ce combat implique de vous battre contre %s seul à seul", defense.AllFighters[0].Name)))
	} else {
		items = append(items,
			description.Text(fmt.Sprintf(
				"Engager ce combat implique de vous battre contre %d combattants appartenants aux affinités: %s",
				len(defense.AllFighters), strings.Join(affinity.Names(defense.Affinities), ", "))),
			description.Text(fmt.Sprintf("Défenseurs: %s", strings.Join(names(defense.AllFighters), ", "))),
		)
		items = append(items, helperParts(defense)...)
	}
	items = append(items, description.Link(
		fmt.Sprintf("Je confirme, attaquer %s maintenant !", target.Name),
		a.url(attacker, target, Input{DescriptionID: in.DescriptionID, Lonely: true, Confirm: true}),
	))

	return &description.Description{
		Title:             fmt.Sprintf("Attaquer %s seul", target.Name),
		Items:             items,
		FooterCharacterID: attacker.ID,
	}, nil
}

func (a *Action) lonelyExecute(ctx context.Context, attacker, target *character.Character) (*description.Description, error) {
	defense, err := a.lonelyDefense(ctx, attacker, target)
	if err != nil {
		return nil, err
	}
	story, err := a.engine.Fight(ctx, combat.LoneAttack(attacker), defense)
	if err != nil {
		return nil, fmt.Errorf("fight: %w", err)
	}
	if err := a.conclude(ctx, attacker, participants(attacker, combat.LoneAttack(attacker), defense), event.TitleParticipated, story); err != nil {
		return nil, err
	}
	return &description.Description{
		Title:             fmt.Sprintf("Attaquer %s seul", target.Name),
		Items:             description.Texts(story.Lines),
		FooterCharacterID: attacker.ID,
	}, nil
}

// affinityPair builds the attack led by attacker for in.AsAffinity and the
// matching defense, and checks that the fight may happen.
func (a *Action) affinityPair(
	ctx context.Context,
	attacker, target *character.Character,
	in Input,
) (*affinity.Affinity, combat.AttackDescription, combat.DefendDescription, error) {
	var (
		attack  combat.AttackDescription
		defense combat.DefendDescription
	)
	aff, err := a.affinities.Get(ctx, in.AsAffinity)
	if err != nil {
		return nil, attack, defense, fmt.Errorf("affinity %d: %w", in.AsAffinity, err)
	}

	relations, err := a.affinities.Relations(ctx, attacker.ID)
	if err != nil {
		return nil, attack, defense, fmt.Errorf("relations of %s: %w", attacker.ID, err)
	}
	if rel, ok := affinity.Active(relations, aff.ID); !ok || !rel.Status.CanLead() {
		return nil, attack, defense, impossible(
			"Vous ne pouvez impliquer cette affinité qu'avec le role de Chef ou Chef de guerre")
	}

	ready, err := a.resolver.CountReady(ctx, aff.ID, attacker.World)
	if err != nil {
		return nil, attack, defense, err
	}
	if ready == 0 {
		return nil, attack, defense, impossible("Personne n'est en état de se battre actuellement")
	}

	targetRelations, err := a.affinities.Relations(ctx, target.ID)
	if err != nil {
		return nil, attack, defense, fmt.Errorf("relations of %s: %w", target.ID, err)
	}
	if _, ok := affinity.Active(targetRelations, aff.ID); ok {
		return nil, attack, defense, impossible(
			"Vous ne pouvez pas attaquer %s en tant que %s car il/elle est affilié à %s",
			target.Name, aff.Name, aff.Name)
	}

	defense, err = a.resolver.DefenseDescription(ctx, target, attacker.World, aff)
	if err != nil {
		return nil, attack, defense, err
	}
	attack, err = a.resolver.AttackDescription(ctx, defense, aff, attacker.World)
	if err != nil {
		return nil, attack, defense, err
	}
	defense = combat.ReduceConflicts(attack, defense)

	if found := conflicts(attacker, attack, defense); len(found) > 0 {
		return nil, attack, defense, impossible(
			"Le combat ne peut avoir lieu car des membres de votre parti ont des affinités avec les defenseurs: %s",
			strings.Join(found, "; "))
	}
	if defense.Has(attacker.ID) {
		return nil, attack, defense, affiliatedWithDefense(defense)
	}
	return aff, attack, defense, nil
}

// affiliatedWithDefense refuses a fight whose author would end up defending.
func affiliatedWithDefense(defense combat.DefendDescription) error {
	return impossible(
		"Vous ne pouvez pas mener cette attaque car parmis les defenseur se trouve des personnes "+
			"avec lesquelles vous etes affiliés. Affinités en défense: %s",
		strings.Join(affinity.Names(defense.Affinities), ", "),
	)
}

// conflicts lists, sorted and deduplicated, the leader and the attacking
// fighters pulled into the defense by an alliance.
func conflicts(leader *character.Character, attack combat.AttackDescription, defense combat.DefendDescription) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range append([]*character.Character{leader}, attack.AllFighters...) {
		affs, ok := defense.Helpers[f.ID]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s, car affilié à: %s", f.Name, strings.Join(uniqueSorted(affinity.Names(affs)), ", "))
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}

func (a *Action) affinityConfirm(ctx context.Context, attacker, target *character.Character, in Input) (*description.Description, error) {
	aff, attack, defense, err := a.affinityPair(ctx, attacker, target, in)
	if err != nil {
		return nil, err
	}

	defenseText := fmt.Sprintf("Le parti adverse compte %d combattant(s)", len(defense.AllFighters))
	if len(defense.Affinities) > 0 {
		defenseText += fmt.Sprintf(" représenté(s) par le/les affinité(s): %s",
			strings.Join(affinity.Names(defense.Affinities), ", "))
	}
	items := []description.Part{
		description.Text(fmt.Sprintf("Votre parti est composé de %d combattant(s) dont %d en état de combattre",
			len(attack.AllFighters), len(attack.ReadyFighters))),
		description.Text(defenseText),
	}
	items = append(items, helperParts(defense)...)
	items = append(items, description.Link(
		fmt.Sprintf("Je confirme, attaquer %s maintenant !", target.Name),
		a.url(attacker, target, Input{DescriptionID: in.DescriptionID, AsAffinity: aff.ID, Confirm: true}),
	))

	return &description.Description{
		Title:             fmt.Sprintf("Attaquer %s en tant que %s", target.Name, aff.Name),
		Items:             items,
		FooterCharacterID: attacker.ID,
	}, nil
}

func (a *Action) affinityExecute(ctx context.Context, attacker, target *character.Character, in Input) (*description.Description, error) {
	aff, attack, defense, err := a.affinityPair(ctx, attacker, target, in)
	if err != nil {
		return nil, err
	}
	story, err := a.engine.Fight(ctx, attack, defense)
	if err != nil {
		return nil, fmt.Errorf("fight: %w", err)
	}
	if err := a.conclude(ctx, attacker, participants(attacker, attack, defense), event.TitleLedAttack, story); err != nil {
		return nil, err
	}
	return &description.Description{
		Title:             fmt.Sprintf("Attaquer %s en tant que %s", target.Name, aff.Name),
		Items:             description.Texts(story.Lines),
		FooterCharacterID: attacker.ID,
	}, nil
}

// participants lists the fighters of sides, preceded by author when it fights
// on none of them.
func participants(author *character.Character, sides ...combat.Side) []*character.Character {
	var out []*character.Character
	fights := false
	for _, s := range sides {
		fights = fights || s.Has(author.ID)
		out = append(out, s.Fighters()...)
	}
	if !fights {
		out = append([]*character.Character{author}, out...)
	}
	return out
}

// conclude records one event per participant and kills those left without
// life points. A participant listed twice is handled once.
func (a *Action) conclude(
	ctx context.Context,
	author *character.Character,
	participants []*character.Character,
	authorTitle string,
	story combat.Story,
) error {
	now := a.now()
	seen := make(map[string]struct{}, len(participants))
	var dead []string
	for _, p := range participants {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		title, read := event.TitleSuffered, false
		if p.ID == author.ID {
			title, read = authorTitle, true
		}
		if err := a.events.Add(ctx, event.New(p.ID, title, story.Lines, read, now)); err != nil {
			return fmt.Errorf("event for %s: %w", p.ID, err)
		}
		if p.LifePoints <= 0 {
			if err := a.characters.Kill(ctx, p.ID); err != nil {
				return fmt.Errorf("kill %s: %w", p.ID, err)
			}
			dead = append(dead, p.ID)
		}
	}
	a.logger.Info("attack executed",
		zap.String("author", author.ID),
		zap.Int("participants", len(seen)),
		zap.Strings("dead", dead),
		zap.Int("story_lines", len(story.Lines)),
	)
	return nil
}

func helperParts(defense combat.DefendDescription) []description.Part {
	var parts []description.Part
	for _, f := range defense.AllFighters {
		affs, ok := defense.Helpers[f.ID]
		if !ok {
			continue
		}
		parts = append(parts, description.Text(fmt.Sprintf("%s défend au titre de: %s",
			f.Name, strings.Join(affinity.Names(affs), ", "))))
	}
	return parts
}

func names(cs []*character.Character) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func uniqueSorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i == 0 || s != out[n-1] {
			out[n] = s
			n++
		}
	}
	return out[:n]
}
