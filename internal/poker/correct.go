// correct.go - Deterministic, non-model corrections for extracted states

package poker

import (
	"fmt"
	"strconv"
	"strings"
)

// repairRule is one independent, order-insensitive fixup. A rule failing
// must never abort the whole repair.
type repairRule struct {
	name  string
	apply func(state map[string]interface{})
}

// RuleFailure records a repair rule that panicked mid-correction.
type RuleFailure struct {
	Rule   string
	Reason string
}

var repairRules = []repairRule{
	{"ensure_board", ensureBoard},
	{"street_from_board", streetFromBoard},
	{"coerce_table_numbers", coerceTableNumbers},
	{"normalize_hero", normalizeHero},
	{"normalize_players", normalizePlayers},
	{"ensure_action_history", ensureActionHistory},
}

// CorrectState applies every repair rule to the parsed state in place.
// Each rule runs inside its own failure boundary: a panicking rule is
// recorded and skipped, the rest still run. The return value lists rule
// failures for diagnostics; the state itself is always usable afterwards,
// best effort.
func CorrectState(state map[string]interface{}) []RuleFailure {
	if state == nil {
		return nil
	}

	var failures []RuleFailure
	for _, rule := range repairRules {
		if reason := runRule(rule, state); reason != "" {
			failures = append(failures, RuleFailure{Rule: rule.name, Reason: reason})
		}
	}
	return failures
}

func runRule(rule repairRule, state map[string]interface{}) (reason string) {
	defer func() {
		if r := recover(); r != nil {
			reason = fmt.Sprintf("%v", r)
		}
	}()
	rule.apply(state)
	return ""
}

// ensureBoard guarantees table.board is an array, never absent.
func ensureBoard(state map[string]interface{}) {
	table, ok := state["table"].(map[string]interface{})
	if !ok {
		return
	}
	if _, ok := table["board"].([]interface{}); !ok {
		table["board"] = []interface{}{}
	}
}

// streetFromBoard recomputes table.street from the board length. The board
// is ground truth: 0 cards is preflop no matter what the model claims.
// Board lengths outside {0,3,4,5} are left alone.
func streetFromBoard(state map[string]interface{}) {
	table, ok := state["table"].(map[string]interface{})
	if !ok {
		return
	}
	board, ok := table["board"].([]interface{})
	if !ok {
		return
	}
	if street, ok := StreetForBoard[len(board)]; ok {
		table["street"] = street
	}
}

// coerceTableNumbers coerces pot, minRaise, maxBet and the blinds to
// numbers when present. null stays null.
func coerceTableNumbers(state map[string]interface{}) {
	table, ok := state["table"].(map[string]interface{})
	if !ok {
		return
	}
	coerceNumericFields(table, "pot", "minRaise", "maxBet")
	if stakes, ok := table["stakes"].(map[string]interface{}); ok {
		coerceNumericFields(stakes, "sb", "bb")
	}
}

// normalizeHero coerces hero numeric fields and defaults hole to an empty
// sequence when it is not an array.
func normalizeHero(state map[string]interface{}) {
	hero, ok := state["hero"].(map[string]interface{})
	if !ok {
		return
	}
	coerceNumericFields(hero, "seat", "stack", "committedThisStreet")
	if _, ok := hero["hole"].([]interface{}); !ok {
		hero["hole"] = []interface{}{}
	}
}

// normalizePlayers guarantees players is an array and normalizes each seat
// entry: numeric coercion, position nulled when absent, inHand forced to a
// strict boolean.
func normalizePlayers(state map[string]interface{}) {
	players, ok := state["players"].([]interface{})
	if !ok {
		state["players"] = []interface{}{}
		return
	}
	for _, entry := range players {
		player, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		coerceNumericFields(player, "seat", "stack", "committedThisStreet")
		if _, ok := player["position"]; !ok {
			player["position"] = nil
		}
		player["inHand"] = asBool(player["inHand"])
	}
}

// ensureActionHistory guarantees actionHistory is an array.
func ensureActionHistory(state map[string]interface{}) {
	if _, ok := state["actionHistory"].([]interface{}); !ok {
		state["actionHistory"] = []interface{}{}
	}
}

// coerceNumericFields converts string-typed numeric values to float64 in
// place. Missing and null values are untouched, as are strings that do not
// parse as numbers (out of scope for correction).
func coerceNumericFields(m map[string]interface{}, keys ...string) {
	for _, key := range keys {
		val, ok := m[key]
		if !ok || val == nil {
			continue
		}
		if coerced, ok := coerceNumber(val); ok {
			m[key] = coerced
		}
	}
}

func coerceNumber(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if num, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return num, true
		}
	}
	return 0, false
}

func asBool(val interface{}) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	case float64:
		return v != 0
	}
	return false
}
