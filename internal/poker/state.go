// state.go - Table-state and recommendation data model

package poker

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Street names, keyed by community-card count. Board lengths outside this
// map (1, 2, >5) are ambiguous and never corrected.
const (
	StreetPreflop = "preflop"
	StreetFlop    = "flop"
	StreetTurn    = "turn"
	StreetRiver   = "river"
)

// StreetForBoard maps board length to the street it implies.
var StreetForBoard = map[int]string{
	0: StreetPreflop,
	3: StreetFlop,
	4: StreetTurn,
	5: StreetRiver,
}

// Streets in order, used for schema enums and prompts.
var Streets = []string{StreetPreflop, StreetFlop, StreetTurn, StreetRiver}

// FlexNumber unmarshals from a JSON number or a numeric string.
// Vision models frequently return "12.5" where 12.5 was asked for.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexNumber(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("cannot unmarshal %s as number or string", string(data))
	}

	str = strings.TrimSpace(str)
	if str == "" {
		*f = 0
		return nil
	}

	num, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fmt.Errorf("cannot parse string %q as number: %w", str, err)
	}

	*f = FlexNumber(num)
	return nil
}

// Stakes holds the blind sizes.
type Stakes struct {
	SB *FlexNumber `json:"sb"`
	BB *FlexNumber `json:"bb"`
}

// Table describes the shared table situation.
type Table struct {
	Game     string      `json:"game"`
	Stakes   Stakes      `json:"stakes"`
	MinRaise *FlexNumber `json:"minRaise"`
	MaxBet   *FlexNumber `json:"maxBet"`
	Pot      *FlexNumber `json:"pot"`
	Board    []string    `json:"board"`
	Street   string      `json:"street"`
}

// Hero is the viewing player.
type Hero struct {
	Seat                *FlexNumber `json:"seat"`
	Position            *string     `json:"position"`
	Stack               *FlexNumber `json:"stack"`
	Hole                []string    `json:"hole"`
	ToAct               bool        `json:"toAct"`
	CommittedThisStreet *FlexNumber `json:"committedThisStreet"`
}

// Player is one seat entry.
type Player struct {
	Seat                *FlexNumber `json:"seat"`
	Position            *string     `json:"position"`
	Stack               *FlexNumber `json:"stack"`
	CommittedThisStreet *FlexNumber `json:"committedThisStreet"`
	InHand              bool        `json:"inHand"`
}

// ActionRecord is one historical action, produced wholesale by the model.
type ActionRecord struct {
	Actor  string      `json:"actor"`
	Action string      `json:"action"`
	Size   *FlexNumber `json:"size"`
	Street string      `json:"street"`
}

// TableState is the canonical extracted snapshot of a hand in progress.
// During the repair pipeline the state lives as a map[string]interface{}
// (corrections are applied in place); this struct documents the shape and
// is the reference for the extraction schema.
type TableState struct {
	Table         Table          `json:"table"`
	Hero          Hero           `json:"hero"`
	Players       []Player       `json:"players"`
	ActionHistory []ActionRecord `json:"actionHistory"`
}

// RecommendationOption is one strategic option with a mixing frequency.
type RecommendationOption struct {
	Action    string      `json:"action"`
	Frequency *FlexNumber `json:"frequency"`
	Size      *string     `json:"size,omitempty"`
}

// Recommendation is the strategy output. Ephemeral, never persisted.
// Frequencies are expected to sum near 100 but that is a prompt
// instruction, not an enforced invariant.
type Recommendation struct {
	Street  string                 `json:"street"`
	Options []RecommendationOption `json:"options"`
	Notes   string                 `json:"notes"`
}

// requiredTopLevel are the fields a usably-shaped extraction must carry.
var requiredTopLevel = []string{"table", "hero", "players"}

// MissingTopLevel reports which of the minimally required fields are absent
// or mistyped in a parsed state. players must be an array; table and hero
// must be objects.
func MissingTopLevel(state map[string]interface{}) []string {
	var missing []string
	for _, key := range requiredTopLevel {
		val, ok := state[key]
		if !ok || val == nil {
			missing = append(missing, key)
			continue
		}
		switch key {
		case "players":
			if _, ok := val.([]interface{}); !ok {
				missing = append(missing, key)
			}
		default:
			if _, ok := val.(map[string]interface{}); !ok {
				missing = append(missing, key)
			}
		}
	}
	return missing
}
