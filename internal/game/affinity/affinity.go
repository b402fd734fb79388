// Package affinity models the factions characters join and the relation
// flags that make a member part of a faction's combat roster.
package affinity

import "sort"

// Status is the rank a character holds inside an affinity.
type Status string

const (
	// StatusChief leads the affinity.
	StatusChief Status = "CHIEF_STATUS"
	// StatusWarlord may lead the affinity into a fight.
	StatusWarlord Status = "WARLORD_STATUS"
	// StatusMember is a regular member.
	StatusMember Status = "MEMBER_STATUS"
)

// CanLead reports whether a character with status s may engage the
// affinity in an attack.
func (s Status) CanLead() bool {
	return s == StatusChief || s == StatusWarlord
}

// Affinity is a named faction.
type Affinity struct {
	ID          int64
	Name        string
	Description string
}

// Relation links a character to an affinity.
type Relation struct {
	CharacterID string
	AffinityID  int64
	Request     bool
	Accepted    bool
	Rejected    bool
	Disallowed  bool
	Fighter     bool
	Status      Status
}

// IsFighter reports whether the relation puts the character on the
// affinity's combat roster.
func (r Relation) IsFighter() bool {
	return r.Accepted && r.Fighter
}

// Severed returns r with its membership and roster flags cleared, as left
// by the death of the character.
func (r Relation) Severed() Relation {
	r.Request, r.Accepted, r.Fighter = false, false, false
	return r
}

// Accepted returns the relations with Accepted set, preserving order.
func Accepted(relations []Relation) []Relation {
	var out []Relation
	for _, r := range relations {
		if r.Accepted {
			out = append(out, r)
		}
	}
	return out
}

// Leading returns the accepted relations whose status allows leading an
// attack.
func Leading(relations []Relation) []Relation {
	var out []Relation
	for _, r := range relations {
		if r.Accepted && r.Status.CanLead() {
			out = append(out, r)
		}
	}
	return out
}

// Active returns the accepted relation to affinityID, if any.
func Active(relations []Relation, affinityID int64) (Relation, bool) {
	for _, r := range relations {
		if r.Accepted && r.AffinityID == affinityID {
			return r, true
		}
	}
	return Relation{}, false
}

// Names returns the names of affinities in order.
func Names(affinities []*Affinity) []string {
	names := make([]string, 0, len(affinities))
	for _, a := range affinities {
		names = append(names, a.Name)
	}
	return names
}

// SortByID sorts affinities by ascending id in place.
func SortByID(affinities []*Affinity) {
	sort.Slice(affinities, func(i, j int) bool { return affinities[i].ID < affinities[j].ID })
}
