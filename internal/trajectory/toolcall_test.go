package trajectory

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
)

func TestFormatToolCall(t *testing.T) {
	t.Run("json-encoded string arguments pretty printed", func(t *testing.T) {
		out := FormatToolCall(1, ToolCall{
			ID: "call_1",
			Function: &ToolFunction{
				Name:      "bash",
				Arguments: jsoniter.RawMessage(`"{\"a\": 1}"`),
			},
		})

		assert.Contains(t, out, "Tool call 1:")
		assert.Contains(t, out, "Function: bash")
		assert.Contains(t, out, "&quot;a&quot;: 1")
		assert.Contains(t, out, "ID: call_1")
	})

	t.Run("structured arguments used as-is", func(t *testing.T) {
		out := FormatToolCall(2, ToolCall{
			ID: "call_2",
			Function: &ToolFunction{
				Name:      "str_replace_editor",
				Arguments: jsoniter.RawMessage(`{"command":"view","path":"/repo"}`),
			},
		})

		assert.Contains(t, out, "Tool call 2:")
		assert.Contains(t, out, "&quot;command&quot;: &quot;view&quot;")
		assert.Contains(t, out, "&quot;path&quot;: &quot;/repo&quot;")
	})

	t.Run("unparseable string arguments shown literally", func(t *testing.T) {
		out := FormatToolCall(1, ToolCall{
			ID: "call_3",
			Function: &ToolFunction{
				Name:      "bash",
				Arguments: jsoniter.RawMessage(`"not json"`),
			},
		})

		assert.Contains(t, out, "not json")
		assert.Contains(t, out, "ID: call_3")
	})

	t.Run("missing function renders identifier only", func(t *testing.T) {
		out := FormatToolCall(3, ToolCall{ID: "call_4"})

		assert.Contains(t, out, "Tool call 3:")
		assert.NotContains(t, out, "Function:")
		assert.NotContains(t, out, "Arguments:")
		assert.Contains(t, out, "ID: call_4")
	})

	t.Run("arguments escaped for embedding", func(t *testing.T) {
		out := FormatToolCall(1, ToolCall{
			Function: &ToolFunction{
				Name:      "bash",
				Arguments: jsoniter.RawMessage(`"<script>"`),
			},
		})

		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "&lt;script&gt;")
	})
}
