package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableStateSchema_TopLevelShape(t *testing.T) {
	s := TableStateSchema()
	assert.ElementsMatch(t, []string{"table", "hero", "players", "actionHistory"}, s.Required)
	assert.Contains(t, s.Properties, "table")
	assert.Contains(t, s.Properties, "hero")
	assert.Contains(t, s.Properties, "players")
	assert.Contains(t, s.Properties, "actionHistory")
}

func TestDescribeSchema_ContainsFieldsAndEnums(t *testing.T) {
	desc := DescribeSchema(TableStateSchema())

	assert.Contains(t, desc, `"pot"`)
	assert.Contains(t, desc, `"board"`)
	assert.Contains(t, desc, `"hole"`)
	assert.Contains(t, desc, `"committedThisStreet"`)
	assert.Contains(t, desc, "preflop|flop|turn|river")
	assert.Contains(t, desc, "number|null")
}

func TestDescribeSchema_Deterministic(t *testing.T) {
	first := DescribeSchema(TableStateSchema())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, DescribeSchema(TableStateSchema()))
	}
}

func TestSchemaToJSONMap_ObjectsDisallowExtraProperties(t *testing.T) {
	m := SchemaToJSONMap(TableStateSchema())

	assert.Equal(t, "object", m["type"])
	assert.Equal(t, false, m["additionalProperties"])

	props, ok := m["properties"].(map[string]interface{})
	require.True(t, ok)
	table, ok := props["table"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, table["additionalProperties"])
}

func TestSchemaToJSONMap_NullableBecomesTypeUnion(t *testing.T) {
	m := SchemaToJSONMap(TableStateSchema())
	props := m["properties"].(map[string]interface{})
	table := props["table"].(map[string]interface{})
	tableProps := table["properties"].(map[string]interface{})
	pot := tableProps["pot"].(map[string]interface{})

	assert.Equal(t, []interface{}{"number", "null"}, pot["type"])
}

func TestSchemaToJSONMap_EnumPreserved(t *testing.T) {
	m := SchemaToJSONMap(TableStateSchema())
	props := m["properties"].(map[string]interface{})
	table := props["table"].(map[string]interface{})
	tableProps := table["properties"].(map[string]interface{})
	street := tableProps["street"].(map[string]interface{})

	assert.Equal(t, []string{"preflop", "flop", "turn", "river"}, street["enum"])
}
