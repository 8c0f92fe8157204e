package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"generic code block", "```\n[\"a\", \"b\"]\n```", `["a", "b"]`},
		{"code block with language", "```javascript\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"plain JSON", `{"key": "value"}`, `{"key": "value"}`},
		{"preamble before object", "As requested, here is the JSON:\n{\"summary\": \"Engineer\"}", `{"summary": "Engineer"}`},
		{"preamble before array", "Here are the skills:\n[\"Go\", \"SQL\"]", `["Go", "SQL"]`},
		{"trailing text", "{\"key\": \"value\"}\n\nLet me know if you need anything else!", `{"key": "value"}`},
		{"escaped quotes", "Result: {\"message\": \"He said \\\"hi\\\"\"}", `{"message": "He said \"hi\""}`},
		{"array of objects", `[{"id": 1}, {"id": 2}] done`, `[{"id": 1}, {"id": 2}]`},
		{"no json", "I cannot help with that.", "I cannot help with that."},
		{"unterminated", `{"key": "value"`, `{"key": "value"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"outer": {"inner": "value"}}`, extractJSONObject(`{"outer": {"inner": "value"}} tail`))
	assert.Equal(t, `{"template": "Hello {name}!"}`, extractJSONObject(`{"template": "Hello {name}!"}`))
	assert.Equal(t, "", extractJSONObject(""))
	assert.Equal(t, "", extractJSONObject("not json"))
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[[1, 2], [3, 4]]`, extractJSONArray(`[[1, 2], [3, 4]]`))
	assert.Equal(t, `["a]", "b"]`, extractJSONArray(`["a]", "b"] extra`))
	assert.Equal(t, "", extractJSONArray("not array"))
}
