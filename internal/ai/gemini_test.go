package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiSchema_FromReflectedReply(t *testing.T) {
	m, err := generateSchema(&priceReply{})
	require.NoError(t, err)

	s := geminiSchema(m)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"price", "reasoning", "confidence"}, s.Required)

	require.Contains(t, s.Properties, "price")
	assert.Equal(t, genai.TypeString, s.Properties["price"].Type)
	assert.Contains(t, s.Properties["price"].Description, "decimal string")

	conf := s.Properties["confidence"]
	require.NotNil(t, conf)
	assert.Equal(t, genai.TypeNumber, conf.Type)
	require.NotNil(t, conf.Minimum)
	require.NotNil(t, conf.Maximum)
	assert.Equal(t, 0.0, *conf.Minimum)
	assert.Equal(t, 1.0, *conf.Maximum)
}

func TestGeminiSchema_EnumsAndArrays(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kind": map[string]any{"type": "string", "enum": []any{"PERCENT", "AMOUNT"}},
			"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"additionalProperties": false,
	})
	assert.Equal(t, []string{"PERCENT", "AMOUNT"}, s.Properties["kind"].Enum)
	require.NotNil(t, s.Properties["tags"].Items)
	assert.Equal(t, genai.TypeArray, s.Properties["tags"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["tags"].Items.Type)
}
