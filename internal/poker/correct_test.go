package poker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateFromJSON(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var state map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	return state
}

func tableOf(state map[string]interface{}) map[string]interface{} {
	return state["table"].(map[string]interface{})
}

func TestCorrectState_StreetFromBoard(t *testing.T) {
	tests := []struct {
		boardLen int
		want     string
	}{
		{0, StreetPreflop},
		{3, StreetFlop},
		{4, StreetTurn},
		{5, StreetRiver},
	}

	for _, tt := range tests {
		board := make([]interface{}, tt.boardLen)
		for i := range board {
			board[i] = "Ah"
		}
		state := map[string]interface{}{
			"table": map[string]interface{}{
				"board":  board,
				"street": "river", // deliberately wrong for most cases
			},
		}

		CorrectState(state)
		assert.Equal(t, tt.want, tableOf(state)["street"], "board length %d", tt.boardLen)
	}
}

func TestCorrectState_AmbiguousBoardLengthLeavesStreet(t *testing.T) {
	state := map[string]interface{}{
		"table": map[string]interface{}{
			"board":  []interface{}{"Ah", "Kd"},
			"street": "flop",
		},
	}

	CorrectState(state)
	assert.Equal(t, "flop", tableOf(state)["street"])
}

func TestCorrectState_MissingBoardBecomesEmptyPreflop(t *testing.T) {
	state := stateFromJSON(t, `{"table": {"street": "turn"}}`)

	CorrectState(state)
	assert.Equal(t, []interface{}{}, tableOf(state)["board"])
	assert.Equal(t, StreetPreflop, tableOf(state)["street"])
}

func TestCorrectState_NumericCoercion(t *testing.T) {
	state := stateFromJSON(t, `{
		"table": {
			"pot": "12.5",
			"minRaise": " 4 ",
			"maxBet": null,
			"stakes": {"sb": "0.5", "bb": 1},
			"board": []
		}
	}`)

	CorrectState(state)

	table := tableOf(state)
	assert.Equal(t, 12.5, table["pot"])
	assert.Equal(t, float64(4), table["minRaise"])
	assert.Nil(t, table["maxBet"])

	stakes := table["stakes"].(map[string]interface{})
	assert.Equal(t, 0.5, stakes["sb"])
	assert.Equal(t, float64(1), stakes["bb"])
}

func TestCorrectState_UnparseableStringLeftAlone(t *testing.T) {
	state := stateFromJSON(t, `{"table": {"pot": "a lot", "board": []}}`)

	CorrectState(state)
	assert.Equal(t, "a lot", tableOf(state)["pot"])
}

func TestCorrectState_HeroDefaults(t *testing.T) {
	state := stateFromJSON(t, `{"hero": {"stack": "250", "seat": "3"}}`)

	CorrectState(state)

	hero := state["hero"].(map[string]interface{})
	assert.Equal(t, float64(250), hero["stack"])
	assert.Equal(t, float64(3), hero["seat"])
	assert.Equal(t, []interface{}{}, hero["hole"])
}

func TestCorrectState_PlayersNormalized(t *testing.T) {
	state := stateFromJSON(t, `{
		"players": [
			{"seat": "1", "stack": "100", "inHand": "true"},
			{"seat": 2, "position": "BTN", "inHand": false}
		]
	}`)

	CorrectState(state)

	players := state["players"].([]interface{})
	first := players[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["seat"])
	assert.Equal(t, float64(100), first["stack"])
	assert.Equal(t, true, first["inHand"])
	assert.Contains(t, first, "position")
	assert.Nil(t, first["position"])

	second := players[1].(map[string]interface{})
	assert.Equal(t, "BTN", second["position"])
	assert.Equal(t, false, second["inHand"])
}

func TestCorrectState_MissingSequencesDefaulted(t *testing.T) {
	state := map[string]interface{}{}

	CorrectState(state)
	assert.Equal(t, []interface{}{}, state["players"])
	assert.Equal(t, []interface{}{}, state["actionHistory"])
}

func TestCorrectState_Idempotent(t *testing.T) {
	raw := `{
		"table": {
			"pot": "12.5",
			"stakes": {"sb": "0.5", "bb": "1"},
			"board": ["Ah", "Kd", "2c"],
			"street": "preflop"
		},
		"hero": {"stack": "99", "toAct": true},
		"players": [{"seat": "1", "inHand": "true"}]
	}`

	once := stateFromJSON(t, raw)
	CorrectState(once)

	twice := stateFromJSON(t, raw)
	CorrectState(twice)
	CorrectState(twice)

	assert.Equal(t, once, twice)
}

func TestCorrectState_NilState(t *testing.T) {
	assert.Nil(t, CorrectState(nil))
}

func TestMissingTopLevel(t *testing.T) {
	complete := stateFromJSON(t, `{"table": {}, "hero": {}, "players": []}`)
	assert.Empty(t, MissingTopLevel(complete))

	empty := map[string]interface{}{}
	assert.ElementsMatch(t, []string{"table", "hero", "players"}, MissingTopLevel(empty))

	mistyped := stateFromJSON(t, `{"table": "oops", "hero": {}, "players": {}}`)
	assert.ElementsMatch(t, []string{"table", "players"}, MissingTopLevel(mistyped))

	nulled := stateFromJSON(t, `{"table": null, "hero": {}, "players": []}`)
	assert.Equal(t, []string{"table"}, MissingTopLevel(nulled))
}
