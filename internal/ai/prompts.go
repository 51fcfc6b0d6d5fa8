// prompts.go - Centralized prompt templates for the pipeline stages

package ai

import "fmt"

// ExtractionSystemInstruction frames the vision model as a table reader,
// not a strategist. Used by both the strict and loose extraction calls.
const ExtractionSystemInstruction = `You are a poker table reader. You are given one screenshot of an online poker table.
Read ONLY what is visible: blinds, pot, board cards, hero hole cards, seats, stacks, bets, and any visible action log.
Never guess hidden cards. Use null for values you cannot read. Card tokens use rank then suit, e.g. "Ah", "Td", "9c".
Do not give strategic advice.`

// StrictExtractionPrompt is the user instruction for the schema-constrained
// call. The shape itself is enforced by the response schema.
const StrictExtractionPrompt = `Extract the complete table state from this screenshot.
List every visible seat in the players array, hero included. Amounts are numbers, not strings.`

// LooseExtractionPrompt asks for the same shape by description only. The
// description is rendered from the schema so the two variants cannot drift.
func LooseExtractionPrompt() string {
	return fmt.Sprintf(`Extract the complete table state from this screenshot and return ONLY one JSON object, no commentary, matching this shape:

%s

Amounts are numbers, not strings. Use null for values you cannot read. List every visible seat in the players array, hero included.`,
		DescribeSchema(TableStateSchema()))
}

// SelfCheckPrompt asks a second model to validate and correct an already
// extracted state. The screenshot is not re-sent: the check reasons over the
// extracted fields only.
func SelfCheckPrompt(stateJSON string) string {
	return fmt.Sprintf(`Below is a poker table state extracted from a screenshot. Check it for internal consistency:
street vs board length, blind sizes vs stakes, committed amounts vs pot, position labels, obviously impossible card tokens.
Fix what is inconsistent and return the FULL corrected state as one JSON object with this exact shape:

%s

If everything is already consistent, return the state unchanged. Return ONLY the JSON object.

State:
%s`, DescribeSchema(TableStateSchema()), stateJSON)
}

// StrategySystemInstruction frames the strategy call.
const StrategySystemInstruction = `You are a no-limit hold'em strategy assistant. You are given a structured table state.
Recommend a mixed strategy for the hero's current decision. Be concise and concrete.`

// StrategyPrompt asks for a recommendation as strict JSON. Frequencies
// summing near 100 and the size format are advisory instructions, not
// enforced invariants.
func StrategyPrompt(stateJSON string) string {
	return fmt.Sprintf(`Given this table state, recommend hero's strategy. Return ONLY one JSON object:

{
  "street": "preflop|flop|turn|river",
  "options": [
    {"action": "fold|check|call|bet|raise|all-in", "frequency": 0-100, "size": "optional size like '2.5bb' or '66%% pot'"}
  ],
  "notes": "max 280 characters of reasoning"
}

Frequencies should sum to roughly 100. Omit "size" for fold/check/call.

Table state:
%s`, stateJSON)
}
