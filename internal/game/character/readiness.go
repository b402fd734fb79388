package character

// Readiness holds the thresholds deciding whether a character is able to
// attack or defend.
type Readiness struct {
	// ActionPointCost is consumed by every fighter turn.
	ActionPointCost float64
	// ExhaustedAbove is the tiredness past which a character cannot fight.
	ExhaustedAbove float64
	// MinimumLifePoints is the life total a character must exceed to fight.
	MinimumLifePoints float64
}

// DefaultReadiness returns the rule values used when no configuration overrides them.
func DefaultReadiness() Readiness {
	return Readiness{
		ActionPointCost:   2.0,
		ExhaustedAbove:    85.0,
		MinimumLifePoints: 1.0,
	}
}

// IsExhausted reports whether c is too tired to fight.
func (r Readiness) IsExhausted(c *Character) bool {
	return c.Tiredness > r.ExhaustedAbove
}

// CanAttack reports whether c may take part in an attack.
//
// Postcondition: true iff c is not exhausted, has at least ActionPointCost
// action points and more than MinimumLifePoints life points.
func (r Readiness) CanAttack(c *Character) bool {
	return !r.IsExhausted(c) &&
		c.ActionPoints >= r.ActionPointCost &&
		c.LifePoints > r.MinimumLifePoints
}

// CanDefend reports whether c is able to fight back. Action points are not
// required to defend.
func (r Readiness) CanDefend(c *Character) bool {
	return !r.IsExhausted(c) && c.LifePoints > r.MinimumLifePoints
}
