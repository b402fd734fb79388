package combat

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/dice"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
)

// Mutator is the character store port through which a round applies its
// side effects. Mutations are committed by the caller.
type Mutator interface {
	ReduceActionPoints(ctx context.Context, characterID string, value float64) error
	IncreaseTiredness(ctx context.Context, characterID string, value float64) error
	// ReduceLifePoints returns the life points left after the reduction.
	ReduceLifePoints(ctx context.Context, characterID string, value float64) (float64, error)
	IncreaseSkill(ctx context.Context, characterID, skillID string, increment float64) error
}

// Rules holds the tunable constants of a round.
type Rules struct {
	Readiness         character.Readiness
	TirednessIncrease float64
	SkillIncrement    float64

	EvadeSkill              string
	EvadeStartProbability   float64
	EvadeMultiplier         float64
	EvadeMaximumProbability float64
}

// DefaultRules returns the rule values used when no configuration overrides them.
func DefaultRules() Rules {
	return Rules{
		Readiness:               character.DefaultReadiness(),
		TirednessIncrease:       35,
		SkillIncrement:          1,
		EvadeSkill:              character.SkillAgility,
		EvadeStartProbability:   50,
		EvadeMultiplier:         6,
		EvadeMaximumProbability: 90,
	}
}

// EvadeProbability returns the percent chance for a defender with skill
// defender to evade an attacker with skill attacker.
//
// Postcondition: non-decreasing in defender-attacker and never above
// EvadeMaximumProbability.
func (r Rules) EvadeProbability(defender, attacker float64) float64 {
	p := r.EvadeStartProbability + (defender-attacker)*r.EvadeMultiplier
	return math.Min(r.EvadeMaximumProbability, p)
}

// Story is the outcome of a round.
type Story struct {
	Lines  []string
	Groups [][]*character.Character
}

func (s *Story) add(format string, args ...any) {
	s.Lines = append(s.Lines, fmt.Sprintf(format, args...))
}

// Engine plays fight rounds.
type Engine struct {
	mutator   Mutator
	catalog   *stuff.Catalog
	modifiers Modifiers
	rules     Rules
	src       dice.Source
	logger    *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: mutator, modifiers, src and logger must be non-nil.
func NewEngine(
	mutator Mutator,
	catalog *stuff.Catalog,
	modifiers Modifiers,
	rules Rules,
	src dice.Source,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		mutator:   mutator,
		catalog:   catalog,
		modifiers: modifiers,
		rules:     rules,
		src:       src,
		logger:    logger,
	}
}

// Fight plays one round between attack and defense: every grouped fighter
// acts once, in group order and shuffled order within a group.
//
// The life points of the fighters held by attack and defense are updated as
// blows land.
//
// Postcondition: Story.Lines starts with the opening line. No damage is
// dealt when defense has no ready fighter.
func (e *Engine) Fight(ctx context.Context, attack AttackDescription, defense DefendDescription) (Story, error) {
	var story Story
	story.add("Un affrontement débute: %d combattant(s)%s se lance(nt) à l'assault de %d combattant(s)%s.",
		len(attack.ReadyFighters), attackAffinityLabel(attack.Affinity),
		len(defense.AllFighters), defenseAffinitiesLabel(defense.Affinities),
	)

	if len(defense.ReadyFighters) == 0 {
		story.add("Aucun des combattants du parti attaqué n'est en état de se battre. Ils sont à la mercie des attaquants.")
		return story, nil
	}
	if len(attack.ReadyFighters) == 0 {
		story.add("Aucun des attaquants n'est en état de se battre.")
		return story, nil
	}
	if missing := len(defense.AllFighters) - len(defense.ReadyFighters); missing > 0 {
		story.add("%d combattant(s) du parti attaqué ne sont pas en état de se battre.", missing)
	}

	story.Groups = Groups(attack, defense, e.src)
	for i, group := range story.Groups {
		e.logger.Debug("fight group",
			zap.Int("group", i+1),
			zap.Strings("fighters", character.IDs(group)),
		)
		e.src.Shuffle(len(group), func(a, b int) { group[a], group[b] = group[b], group[a] })
		for _, fighter := range group {
			if fighter.LifePoints < 0 {
				continue
			}
			opponent := e.opponent(group, fighter, attack, defense)
			if opponent == nil {
				continue
			}
			if err := e.exchange(ctx, &story, fighter, opponent); err != nil {
				return story, err
			}
			if err := e.mutator.ReduceActionPoints(ctx, fighter.ID, e.rules.Readiness.ActionPointCost); err != nil {
				return story, fmt.Errorf("reduce action points of %s: %w", fighter.ID, err)
			}
			if err := e.mutator.IncreaseTiredness(ctx, fighter.ID, e.rules.TirednessIncrease); err != nil {
				return story, fmt.Errorf("increase tiredness of %s: %w", fighter.ID, err)
			}
			fighter.ActionPoints -= e.rules.Readiness.ActionPointCost
			fighter.Tiredness += e.rules.TirednessIncrease
		}
	}
	return story, nil
}

// opponent returns a random living member of group on the other side of
// fighter, or nil.
func (e *Engine) opponent(group []*character.Character, fighter *character.Character, attack AttackDescription, defense DefendDescription) *character.Character {
	var other Side = defense
	if !attack.Has(fighter.ID) {
		other = attack
	}
	candidates := append([]*character.Character(nil), group...)
	e.src.Shuffle(len(candidates), func(a, b int) { candidates[a], candidates[b] = candidates[b], candidates[a] })
	for _, c := range candidates {
		if c.LifePoints < 0 || c.ID == fighter.ID {
			continue
		}
		if other.Has(c.ID) {
			return c
		}
	}
	return nil
}

// exchange resolves one blow from fighter to opponent.
func (e *Engine) exchange(ctx context.Context, story *Story, fighter, opponent *character.Character) error {
	weapon := WeaponOf(fighter.Weapon)
	counter := e.counterWeapon(opponent)

	evadeSkill := opponent.SkillValue(e.rules.EvadeSkill)
	attackSkill := fighter.SkillValue(e.rules.EvadeSkill)
	probability := e.rules.EvadeProbability(evadeSkill, attackSkill)
	roll := e.src.Intn(100)
	evaded := float64(roll) < probability
	e.logger.Debug("evade roll",
		zap.String("attacker", fighter.ID),
		zap.String("defender", opponent.ID),
		zap.String("counter_weapon", counter.Name),
		zap.Float64("defender_skill", evadeSkill),
		zap.Float64("attacker_skill", attackSkill),
		zap.Float64("probability", probability),
		zap.Int("roll", roll),
		zap.Bool("evaded", evaded),
	)
	if evaded {
		story.add("%s attaque %s avec %s mais %s parvient à esquiver.",
			fighter.Name, opponent.Name, weapon.Name, opponent.Name)
		return nil
	}

	damage := e.damage(fighter, weapon)
	armor := ArmorOf(opponent.Armor)
	passes := armor.HowMuchAbsorb(weapon, damage, e.src)
	e.logger.Debug("armor absorb",
		zap.String("armor", armor.Name),
		zap.Strings("bands", bandNames(armor.Bands(weapon))),
		zap.Float64("damage", damage),
		zap.Float64("passes", passes),
	)

	var protection string
	switch {
	case damage > 0 && passes == damage:
		protection = fmt.Sprintf("%s n'a en rien protégé %s.", armor.Name, opponent.Name)
	case passes > 0 && passes < damage:
		protection = fmt.Sprintf("%s à en partie protégé %s.", armor.Name, opponent.Name)
	default:
		protection = fmt.Sprintf("%s à protégé %s.", armor.Name, opponent.Name)
	}

	left, err := e.mutator.ReduceLifePoints(ctx, opponent.ID, passes)
	if err != nil {
		return fmt.Errorf("reduce life points of %s: %w", opponent.ID, err)
	}
	opponent.LifePoints = left

	line := fmt.Sprintf("%s attaque %s avec %s. %s", fighter.Name, opponent.Name, weapon.Name, protection)
	if opponent.LifePoints < 0 {
		line += fmt.Sprintf(" Le coup à été fatal pour %s.", opponent.Name)
	}
	story.Lines = append(story.Lines, line)

	for _, skill := range weapon.BonusSkills(e.catalog) {
		if err := e.mutator.IncreaseSkill(ctx, fighter.ID, skill, e.rules.SkillIncrement); err != nil {
			return fmt.Errorf("increase skill %s of %s: %w", skill, fighter.ID, err)
		}
		fighter.GrowSkill(skill, e.rules.SkillIncrement)
	}
	return nil
}

// counterWeapon is the shield, else the weapon, else bare hands.
func (e *Engine) counterWeapon(c *character.Character) Weapon {
	if c.Shield != nil {
		return WeaponOf(c.Shield)
	}
	return WeaponOf(c.Weapon)
}

// damage computes the raw damage of a blow, rounded to two decimals.
func (e *Engine) damage(fighter *character.Character, weapon Weapon) float64 {
	force := e.modifiers.ForceMultiplier(fighter)
	base := math.Max(weapon.BaseDamage(), DefaultWeaponDamage)
	coefficient := e.modifiers.WeaponCoefficient(fighter, weapon)
	variance := dice.Between(e.src, 0.8, 1.2)
	damage := math.Round(force*base*coefficient*variance*100) / 100
	e.logger.Debug("damage",
		zap.String("attacker", fighter.ID),
		zap.String("weapon", weapon.Name),
		zap.Float64("force", force),
		zap.Float64("base", base),
		zap.Float64("coefficient", coefficient),
		zap.Float64("variance", variance),
		zap.Float64("damage", damage),
	)
	return damage
}

func attackAffinityLabel(a *affinity.Affinity) string {
	if a == nil {
		return ""
	}
	return " (" + a.Name + ")"
}

func defenseAffinitiesLabel(affs []*affinity.Affinity) string {
	if len(affs) == 0 {
		return ""
	}
	return " (" + strings.Join(affinity.Names(affs), ", ") + ")"
}

func bandNames(bands [3]Band) []string {
	out := make([]string, 0, len(bands))
	for _, b := range bands {
		out = append(out, b.String())
	}
	return out
}
