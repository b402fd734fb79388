package attack_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/attack"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/combat"
	"github.com/cory-johannsen/rolling/internal/game/description"
	"github.com/cory-johannsen/rolling/internal/game/event"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
	"github.com/cory-johannsen/rolling/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedSource replays queued Intn draws, then returns 0. Float64 is 0.5
// and Shuffle keeps the order.
type scriptedSource struct{ ints []int }

func (s *scriptedSource) Intn(int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v
}
func (s *scriptedSource) Float64() float64            { return 0.5 }
func (s *scriptedSource) Shuffle(int, func(i, j int)) {}

type forceModifiers map[string]float64

func (m forceModifiers) ForceMultiplier(c *character.Character) float64 {
	if v, ok := m[c.ID]; ok {
		return v
	}
	return 1
}
func (m forceModifiers) WeaponCoefficient(*character.Character, combat.Weapon) float64 { return 1 }

var (
	here    = character.WorldCoord{Row: 5, Col: 6}
	france  = &affinity.Affinity{ID: 1, Name: "France"}
	england = &affinity.Affinity{ID: 2, Name: "England"}
	spain   = &affinity.Affinity{ID: 3, Name: "Spain"}
)

type dialog struct {
	store  *memory.Store
	action *attack.Action
}

func newDialog(src *scriptedSource, mods combat.Modifiers) *dialog {
	s := memory.NewStore()
	for _, a := range []*affinity.Affinity{france, england, spain} {
		s.PutAffinity(a)
	}
	rules := combat.DefaultRules()
	resolver := combat.NewResolver(s.Characters, s.Affinities, rules.Readiness)
	engine := combat.NewEngine(s.Characters, nil, mods, rules, src, zap.NewNop())
	return &dialog{
		store:  s,
		action: attack.NewAction(s.Characters, s.Affinities, s.Events, resolver, engine, rules.Readiness, zap.NewNop()),
	}
}

func (d *dialog) add(id string) *character.Character {
	c := &character.Character{ID: id, Name: id, Alive: true, World: here, LifePoints: 10, ActionPoints: 24}
	d.store.PutCharacter(c)
	return c
}

func (d *dialog) join(id string, aff *affinity.Affinity, status affinity.Status) {
	d.store.PutRelation(affinity.Relation{CharacterID: id, AffinityID: aff.ID, Accepted: true, Fighter: true, Status: status})
}

func (d *dialog) get(t *testing.T, id string) *character.Character {
	t.Helper()
	c, err := d.store.Characters.Get(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (d *dialog) events(t *testing.T, id string) []event.Event {
	t.Helper()
	evs, err := d.store.Events.ForCharacter(context.Background(), id)
	require.NoError(t, err)
	return evs
}

func requireImpossible(t *testing.T, err error, contains string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, attack.IsImpossible(err), "want impossible action, got %v", err)
	assert.Contains(t, err.Error(), contains)
}

func texts(d *description.Description) []string {
	var out []string
	for _, p := range d.Items {
		if !p.IsLink {
			out = append(out, p.Text)
		}
	}
	return out
}

func TestRoot_ListsLeadableAffinitiesWithReadyFighters(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	tired := d.add("tired")
	tired.Tiredness = 100
	d.store.PutCharacter(tired)

	d.join("a", france, affinity.StatusChief)
	d.join("tired", england, affinity.StatusMember)
	d.store.PutRelation(affinity.Relation{CharacterID: "a", AffinityID: england.ID, Accepted: true, Status: affinity.StatusWarlord})
	d.join("a", spain, affinity.StatusMember)

	desc, err := d.action.Perform(context.Background(), a, tgt, attack.Input{DescriptionID: "D1"})
	require.NoError(t, err)

	assert.Equal(t, "Attaquer t", desc.Title)
	assert.True(t, desc.CanBeBack)
	require.Len(t, desc.Items, 3)
	assert.Equal(t, "Attaquer seul et en mon nom uniquement", desc.Items[1].Label)
	assert.Equal(t, "/character/a/with-character-action/ATTACK_CHARACTER/t/D1?lonely=1", desc.Items[1].FormAction)
	assert.Equal(t, "Attaquer en tant que France", desc.Items[2].Label)
	assert.Equal(t, "/character/a/with-character-action/ATTACK_CHARACTER/t/D1?as_affinity=1", desc.Items[2].FormAction)
}

func TestLonely_AttackerNotReady(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	a.ActionPoints = 0

	_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{Lonely: true})
	requireImpossible(t, err, "pas en état de vous battre")
}

func TestLonely_SelfConflictDirect(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	d.join("a", france, affinity.StatusMember)
	d.join("t", france, affinity.StatusMember)

	for _, confirm := range []bool{false, true} {
		_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{Lonely: true, Confirm: confirm})
		requireImpossible(t, err, "Affinités en défense: France")
	}
	assert.Empty(t, d.events(t, "a"), "no round was played")
	assert.Equal(t, 24.0, d.get(t, "a").ActionPoints)
}

func TestLonely_SelfConflictTransitive(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	d.add("b")
	d.join("t", france, affinity.StatusMember)
	d.join("b", france, affinity.StatusMember)
	d.join("b", england, affinity.StatusMember)
	d.join("a", england, affinity.StatusMember)

	_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{Lonely: true, Confirm: true})
	requireImpossible(t, err, "Affinités en défense: France, England")
}

func TestLonely_NoReadyDefender(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	tgt.Tiredness = 100
	d.store.PutCharacter(tgt)

	_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{Lonely: true})
	requireImpossible(t, err, "Aucun des défenseurs")
}

func TestLonely_ConfirmOneOnOne(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")

	desc, err := d.action.Perform(context.Background(), a, tgt, attack.Input{DescriptionID: "D1", Lonely: true})
	require.NoError(t, err)
	assert.Equal(t, "Attaquer t seul", desc.Title)
	assert.Equal(t, []string{"Engager ce combat implique de vous battre contre t seul à seul"}, texts(desc))
	last := desc.Items[len(desc.Items)-1]
	assert.Equal(t, "Je confirme, attaquer t maintenant !", last.Label)
	assert.Equal(t, "/character/a/with-character-action/ATTACK_CHARACTER/t/D1?confirm=1&lonely=1", last.FormAction)
}

func TestLonely_ConfirmNamesRoster(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	d.add("mate")
	d.join("t", france, affinity.StatusMember)
	d.join("mate", france, affinity.StatusMember)

	desc, err := d.action.Perform(context.Background(), a, tgt, attack.Input{Lonely: true})
	require.NoError(t, err)
	lines := texts(desc)
	assert.Equal(t, "Engager ce combat implique de vous battre contre 2 combattants appartenants aux affinités: France", lines[0])
	assert.Equal(t, "Défenseurs: t, mate", lines[1])
	assert.Contains(t, lines, "mate défend au titre de: France")
}

func TestLonely_ExecuteBothEvade(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")

	desc, err := d.action.Perform(context.Background(), a, tgt, attack.Input{Lonely: true, Confirm: true})
	require.NoError(t, err)
	require.Len(t, desc.Items, 3)
	assert.Equal(t, "a attaque t avec Main nue mais t parvient à esquiver.", desc.Items[1].Text)

	authorEvents := d.events(t, "a")
	require.Len(t, authorEvents, 1)
	assert.Equal(t, event.TitleParticipated, authorEvents[0].Title)
	assert.True(t, authorEvents[0].Read)
	assert.Len(t, authorEvents[0].Story, 3)

	targetEvents := d.events(t, "t")
	require.Len(t, targetEvents, 1)
	assert.Equal(t, event.TitleSuffered, targetEvents[0].Title)
	assert.False(t, targetEvents[0].Read)

	assert.Equal(t, 22.0, d.get(t, "a").ActionPoints)
	assert.True(t, d.get(t, "t").Alive)
}

func TestLonely_ExecuteKillsTarget(t *testing.T) {
	// group draw, then a roll the target cannot evade
	d := newDialog(&scriptedSource{ints: []int{0, 99}}, forceModifiers{"a": 200})
	a, tgt := d.add("a"), d.add("t")
	tgt.Armor = &stuff.Stuff{ID: 7, Name: "Veste"}
	d.store.PutCharacter(tgt)
	d.join("t", england, affinity.StatusMember)

	desc, err := d.action.Perform(context.Background(), a, tgt, attack.Input{Lonely: true, Confirm: true})
	require.NoError(t, err)
	joined := strings.Join(texts(desc), "\n")
	assert.Contains(t, joined, "Le coup à été fatal pour t.")

	dead := d.get(t, "t")
	assert.False(t, dead.Alive)
	assert.Less(t, dead.LifePoints, 0.0)
	dropped := d.store.Dropped()
	require.Len(t, dropped, 2)
	assert.Equal(t, "Veste", dropped[0].Stuff.Name)
	assert.Equal(t, stuff.CorpsePropertiesID, dropped[1].Stuff.PropertiesID)
	assert.True(t, d.get(t, "a").Alive)

	fighters, err := d.store.Affinities.FighterIDs(context.Background(), england.ID)
	require.NoError(t, err)
	assert.Empty(t, fighters)
}

func TestAffinity_RequiresLeadingStatus(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	d.join("a", france, affinity.StatusMember)

	_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{AsAffinity: france.ID})
	requireImpossible(t, err, "Chef ou Chef de guerre")
}

func TestAffinity_RequiresReadyFighters(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	d.store.PutRelation(affinity.Relation{CharacterID: "a", AffinityID: france.ID, Accepted: true, Status: affinity.StatusChief})

	_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{AsAffinity: france.ID})
	requireImpossible(t, err, "Personne n'est en état de se battre")
}

func TestAffinity_TargetIsMember(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	d.join("a", france, affinity.StatusChief)
	d.join("t", france, affinity.StatusMember)

	_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{AsAffinity: france.ID, Confirm: true})
	requireImpossible(t, err, "car il/elle est affilié à France")
}

func TestAffinity_ConflictDirectAndTransitive(t *testing.T) {
	cases := []struct {
		name  string
		setup func(d *dialog)
		want  string
	}{
		{
			name: "direct",
			setup: func(d *dialog) {
				d.join("s", england, affinity.StatusMember)
			},
			want: "s, car affilié à: England",
		},
		{
			name: "transitive",
			setup: func(d *dialog) {
				d.add("h")
				d.join("h", england, affinity.StatusMember)
				d.join("h", spain, affinity.StatusMember)
				d.join("s", spain, affinity.StatusMember)
			},
			want: "s, car affilié à: Spain",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newDialog(&scriptedSource{}, forceModifiers{})
			a, tgt := d.add("a"), d.add("t")
			d.add("s")
			d.join("a", france, affinity.StatusChief)
			d.join("s", france, affinity.StatusMember)
			d.join("t", england, affinity.StatusMember)
			tc.setup(d)

			_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{AsAffinity: france.ID, Confirm: true})
			requireImpossible(t, err, tc.want)
			assert.Empty(t, d.events(t, "t"))
		})
	}
}

func TestAffinity_LeaderPulledIntoDefense(t *testing.T) {
	cases := []struct {
		name  string
		setup func(d *dialog)
		want  string
	}{
		{
			name: "fighter of the target affinity",
			setup: func(d *dialog) {
				d.join("a", england, affinity.StatusMember)
			},
			want: "a, car affilié à: England",
		},
		{
			name: "reached through an ally",
			setup: func(d *dialog) {
				d.add("h")
				d.join("h", england, affinity.StatusMember)
				d.join("h", spain, affinity.StatusMember)
				d.join("a", spain, affinity.StatusMember)
			},
			want: "a, car affilié à: Spain",
		},
	}
	for _, tc := range cases {
		for _, confirm := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/confirm=%t", tc.name, confirm), func(t *testing.T) {
				d := newDialog(&scriptedSource{}, forceModifiers{})
				a, tgt := d.add("a"), d.add("t")
				d.add("s")
				// a leads France without fighting for it
				d.store.PutRelation(affinity.Relation{CharacterID: "a", AffinityID: france.ID, Accepted: true, Status: affinity.StatusChief})
				d.join("s", france, affinity.StatusMember)
				d.join("t", england, affinity.StatusMember)
				tc.setup(d)

				_, err := d.action.Perform(context.Background(), a, tgt, attack.Input{AsAffinity: france.ID, Confirm: confirm})
				requireImpossible(t, err, tc.want)
				assert.Empty(t, d.events(t, "a"))
				assert.Empty(t, d.events(t, "t"))
				assert.Equal(t, 24.0, d.get(t, "a").ActionPoints)
				assert.Equal(t, 24.0, d.get(t, "s").ActionPoints)
			})
		}
	}
}

func TestAffinity_ConfirmAndExecute(t *testing.T) {
	d := newDialog(&scriptedSource{}, forceModifiers{})
	a, tgt := d.add("a"), d.add("t")
	d.add("s")
	d.add("g")
	d.join("a", france, affinity.StatusChief)
	d.join("s", france, affinity.StatusMember)
	d.join("t", england, affinity.StatusMember)
	d.join("g", england, affinity.StatusMember)

	desc, err := d.action.Perform(context.Background(), a, tgt, attack.Input{DescriptionID: "D1", AsAffinity: france.ID})
	require.NoError(t, err)
	assert.Equal(t, "Attaquer t en tant que France", desc.Title)
	lines := texts(desc)
	assert.Equal(t, "Votre parti est composé de 2 combattant(s) dont 2 en état de combattre", lines[0])
	assert.Equal(t, "Le parti adverse compte 2 combattant(s) représenté(s) par le/les affinité(s): England", lines[1])
	last := desc.Items[len(desc.Items)-1]
	assert.Equal(t, "/character/a/with-character-action/ATTACK_CHARACTER/t/D1?as_affinity=1&confirm=1", last.FormAction)

	desc, err = d.action.Perform(context.Background(), a, tgt, attack.Input{AsAffinity: france.ID, Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, "Un affrontement débute: 2 combattant(s) (France) se lance(nt) à l'assault de 2 combattant(s) (England).", desc.Items[0].Text)

	led := d.events(t, "a")
	require.Len(t, led, 1)
	assert.Equal(t, event.TitleLedAttack, led[0].Title)
	for _, id := range []string{"s", "t", "g"} {
		evs := d.events(t, id)
		require.Len(t, evs, 1, id)
		assert.Equal(t, event.TitleSuffered, evs[0].Title)
	}
}
