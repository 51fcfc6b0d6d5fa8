// schema.go - Table-state response schema, defined once and derived twice

package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// TableStateSchema is the single source of truth for the extraction shape.
// The strict Gemini call enforces it directly, the OpenAI-compatible call
// enforces the converted JSON-schema form, and the loose prompt embeds the
// rendered text description. All three views come from this one literal.
func TableStateSchema() *genai.Schema {
	nullableNumber := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeNumber,
			Nullable:    true,
			Description: desc,
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"table": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"game": {
						Type:        genai.TypeString,
						Description: "Game label as shown on the table, e.g. 'NLHE 6-max'",
					},
					"stakes": {
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"sb": nullableNumber("Small blind size"),
							"bb": nullableNumber("Big blind size"),
						},
						Required: []string{"sb", "bb"},
					},
					"minRaise": nullableNumber("Minimum raise size if visible, else null"),
					"maxBet":   nullableNumber("Maximum bet size if visible, else null"),
					"pot":      nullableNumber("Current pot size"),
					"board": {
						Type:        genai.TypeArray,
						Description: "Community cards in order, 0-5 tokens like 'Ah', 'Td'",
						Items:       &genai.Schema{Type: genai.TypeString},
					},
					"street": {
						Type:        genai.TypeString,
						Description: "Current betting round",
						Enum:        []string{"preflop", "flop", "turn", "river"},
					},
				},
				Required: []string{"game", "stakes", "pot", "board", "street"},
			},
			"hero": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"seat": nullableNumber("Hero seat number, null if unknown"),
					"position": {
						Type:        genai.TypeString,
						Nullable:    true,
						Description: "Position label like 'BTN', 'SB', null if unknown",
					},
					"stack": nullableNumber("Hero stack size"),
					"hole": {
						Type:        genai.TypeArray,
						Description: "Hero hole cards, 0-2 tokens",
						Items:       &genai.Schema{Type: genai.TypeString},
					},
					"toAct": {
						Type:        genai.TypeBoolean,
						Description: "Whether hero is currently to act",
					},
					"committedThisStreet": nullableNumber("Amount hero committed this street"),
				},
				Required: []string{"hole", "toAct"},
			},
			"players": {
				Type:        genai.TypeArray,
				Description: "Every visible seat, hero included, in seat order",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"seat": nullableNumber("Seat number"),
						"position": {
							Type:        genai.TypeString,
							Nullable:    true,
							Description: "Position label, null if unknown",
						},
						"stack":               nullableNumber("Stack size"),
						"committedThisStreet": nullableNumber("Amount committed this street"),
						"inHand": {
							Type:        genai.TypeBoolean,
							Description: "Whether the player is still in the hand",
						},
					},
					Required: []string{"seat", "inHand"},
				},
			},
			"actionHistory": {
				Type:        genai.TypeArray,
				Description: "Chronological actions so far, if readable from the screenshot",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"actor":  {Type: genai.TypeString, Description: "Seat or position of the actor"},
						"action": {Type: genai.TypeString, Description: "fold, check, call, bet, raise, all-in"},
						"size":   nullableNumber("Action size, null for fold/check"),
						"street": {Type: genai.TypeString, Enum: []string{"preflop", "flop", "turn", "river"}},
					},
					Required: []string{"actor", "action", "street"},
				},
			},
		},
		Required: []string{"table", "hero", "players", "actionHistory"},
	}
}

// DescribeSchema renders a schema as an indented, human-readable shape
// description for loose prompts, so the strict and loose variants can never
// drift apart.
func DescribeSchema(s *genai.Schema) string {
	var b strings.Builder
	describeSchema(&b, s, 0)
	return b.String()
}

func describeSchema(b *strings.Builder, s *genai.Schema, depth int) {
	if s == nil {
		return
	}
	indent := strings.Repeat("  ", depth)

	switch s.Type {
	case genai.TypeObject:
		b.WriteString("{\n")
		for _, key := range sortedKeys(s.Properties) {
			prop := s.Properties[key]
			b.WriteString(fmt.Sprintf("%s  %q: ", indent, key))
			describeSchema(b, prop, depth+1)
			b.WriteString("\n")
		}
		b.WriteString(indent + "}")
	case genai.TypeArray:
		b.WriteString("[")
		describeSchema(b, s.Items, depth)
		b.WriteString(", ...]")
	default:
		b.WriteString(scalarLabel(s))
	}
}

func scalarLabel(s *genai.Schema) string {
	var label string
	switch s.Type {
	case genai.TypeString:
		if len(s.Enum) > 0 {
			label = strings.Join(s.Enum, "|")
		} else {
			label = "string"
		}
	case genai.TypeNumber:
		label = "number"
	case genai.TypeInteger:
		label = "integer"
	case genai.TypeBoolean:
		label = "boolean"
	default:
		label = "value"
	}
	if s.Nullable {
		label += "|null"
	}
	if s.Description != "" {
		label += "  // " + s.Description
	}
	return label
}

func sortedKeys(props map[string]*genai.Schema) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	// Stable order so prompts are deterministic across runs.
	sort.Strings(keys)
	return keys
}

// SchemaToJSONMap converts the genai schema into the plain JSON-schema map
// the OpenAI-compatible endpoint expects for structured output. Objects get
// additionalProperties: false, matching the strict contract.
func SchemaToJSONMap(s *genai.Schema) map[string]interface{} {
	if s == nil {
		return nil
	}

	out := map[string]interface{}{}

	switch s.Type {
	case genai.TypeObject:
		out["type"] = "object"
		props := map[string]interface{}{}
		for name, prop := range s.Properties {
			props[name] = SchemaToJSONMap(prop)
		}
		out["properties"] = props
		if len(s.Required) > 0 {
			out["required"] = s.Required
		}
		out["additionalProperties"] = false
	case genai.TypeArray:
		out["type"] = "array"
		out["items"] = SchemaToJSONMap(s.Items)
	case genai.TypeString:
		out["type"] = "string"
		if len(s.Enum) > 0 {
			out["enum"] = s.Enum
		}
	case genai.TypeNumber:
		out["type"] = "number"
	case genai.TypeInteger:
		out["type"] = "integer"
	case genai.TypeBoolean:
		out["type"] = "boolean"
	}

	if s.Nullable {
		out["type"] = []interface{}{out["type"], "null"}
	}
	if s.Description != "" {
		out["description"] = s.Description
	}

	return out
}
