package attack

import (
	"fmt"
	"net/url"
	"strconv"
)

// Input selects the step of the attack dialog.
type Input struct {
	// DescriptionID identifies the configured action the links point back to.
	DescriptionID string
	Lonely        bool
	// AsAffinity is zero when the attack is not led for an affinity.
	AsAffinity int64
	Confirm    bool
}

// State is a step of the attack dialog.
type State int

const (
	StateRoot State = iota
	StateLonelyConfirm
	StateLonelyExecute
	StateAffinityConfirm
	StateAffinityExecute
)

func (s State) String() string {
	switch s {
	case StateRoot:
		return "ROOT"
	case StateLonelyConfirm:
		return "LONELY_CONFIRM"
	case StateLonelyExecute:
		return "LONELY_EXECUTE"
	case StateAffinityConfirm:
		return "AFFINITY_CONFIRM"
	case StateAffinityExecute:
		return "AFFINITY_EXECUTE"
	}
	return "UNKNOWN"
}

// StateOf returns the dialog step selected by in. Lonely wins over AsAffinity.
func StateOf(in Input) State {
	switch {
	case in.Lonely && in.Confirm:
		return StateLonelyExecute
	case in.Lonely:
		return StateLonelyConfirm
	case in.AsAffinity != 0 && in.Confirm:
		return StateAffinityExecute
	case in.AsAffinity != 0:
		return StateAffinityConfirm
	default:
		return StateRoot
	}
}

// ParseQuery reads the lonely, as_affinity and confirm query parameters.
// Flags are set by any non-zero integer.
func ParseQuery(q url.Values) (Input, error) {
	var in Input
	var err error
	if in.Lonely, err = flag(q, "lonely"); err != nil {
		return Input{}, err
	}
	if in.Confirm, err = flag(q, "confirm"); err != nil {
		return Input{}, err
	}
	if raw := q.Get("as_affinity"); raw != "" {
		in.AsAffinity, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || in.AsAffinity <= 0 {
			return Input{}, fmt.Errorf("as_affinity: invalid affinity id %q", raw)
		}
	}
	return in, nil
}

func flag(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid flag %q", name, raw)
	}
	return v != 0, nil
}

// Query encodes in back into query parameters.
func (in Input) Query() url.Values {
	q := url.Values{}
	if in.Lonely {
		q.Set("lonely", "1")
	}
	if in.AsAffinity != 0 {
		q.Set("as_affinity", strconv.FormatInt(in.AsAffinity, 10))
	}
	if in.Confirm {
		q.Set("confirm", "1")
	}
	return q
}
