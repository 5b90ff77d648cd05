package trajectory

import (
	"html"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeText(t *testing.T) {
	t.Run("all five characters", func(t *testing.T) {
		assert.Equal(t, "&amp;&lt;&gt;&quot;&#39;", EscapeText(`&<>"'`))
	})

	t.Run("ampersand not double escaped", func(t *testing.T) {
		assert.Equal(t, "&amp;lt;", EscapeText("&lt;"))
	})

	t.Run("round trip is lossless", func(t *testing.T) {
		inputs := []string{
			"plain",
			`<div class="x">a & b</div>`,
			"it's <not> \"fine\" & done",
			"",
		}
		for _, in := range inputs {
			assert.Equal(t, in, html.UnescapeString(EscapeText(in)))
		}
	})
}

func TestRenderStep(t *testing.T) {
	t.Run("end to end with image and message", func(t *testing.T) {
		doc, err := ParseDocument([]byte(`{"trajectory":[{` +
			`"response":"R1","action":"A1",` +
			`"observation":"obs with ![pic](data:image/png;base64,QUJD)",` +
			`"query":[{"role":"user","content":"hi"}]}]}`))
		require.NoError(t, err)

		rendered := RenderTrajectory(doc, RenderOptions{})
		require.Len(t, rendered.Steps, 1)
		step := rendered.Steps[0]

		assert.Equal(t, "R1", step.Response)
		assert.Equal(t, "A1", step.Action)
		assert.Contains(t, step.Observation, "[IMAGE: pic]")
		assert.NotContains(t, step.Observation, "QUJD")

		require.Len(t, step.Images, 1)
		assert.Equal(t, "data:image/png;base64,QUJD", step.Images[0].DataURL)

		require.Len(t, step.Messages, 1)
		assert.Equal(t, "user", step.Messages[0].Role)
		assert.Equal(t, "hi", step.Messages[0].Content)
	})

	t.Run("execution time annotation", func(t *testing.T) {
		secs := 2.5
		with := RenderStep(Step{ExecutionTime: &secs}, RenderOptions{})
		assert.True(t, with.HasExecutionTime)
		assert.Equal(t, "2.5s", with.ExecutionLabel)

		without := RenderStep(Step{}, RenderOptions{})
		assert.False(t, without.HasExecutionTime)
		assert.Empty(t, without.ExecutionLabel)
	})

	t.Run("optional panels omitted", func(t *testing.T) {
		step := RenderStep(Step{Response: "r", Observation: "no images here"}, RenderOptions{})
		assert.Empty(t, step.Images)
		assert.Empty(t, step.Messages)
	})

	t.Run("free text escaped", func(t *testing.T) {
		step := RenderStep(Step{
			Response:    `<b>&"'</b>`,
			Action:      "a < b",
			Observation: "x > y",
		}, RenderOptions{})

		assert.Equal(t, "&lt;b&gt;&amp;&quot;&#39;&lt;/b&gt;", step.Response)
		assert.Equal(t, "a &lt; b", step.Action)
		assert.Equal(t, "x &gt; y", step.Observation)
	})

	t.Run("legacy messages rendered after normalization", func(t *testing.T) {
		doc := &Document{Trajectory: []Step{{
			Messages: []Message{{Role: "user", Content: jsoniter.RawMessage(`"legacy"`)}},
		}}}
		rendered := RenderTrajectory(doc, RenderOptions{})

		require.Len(t, rendered.Steps, 1)
		require.Len(t, rendered.Steps[0].Messages, 1)
		assert.Equal(t, "legacy", rendered.Steps[0].Messages[0].Content)
	})

	t.Run("demo marker", func(t *testing.T) {
		step := Step{Query: []Message{
			{Role: "user", Content: jsoniter.RawMessage(`"d"`), IsDemo: true},
			{Role: "user", Content: jsoniter.RawMessage(`"n"`)},
		}}

		marked := RenderStep(step, RenderOptions{MarkDemo: true})
		require.Len(t, marked.Messages, 2)
		assert.True(t, marked.Messages[0].Demo)
		assert.Equal(t, "user [demo]", marked.Messages[0].Role)
		assert.False(t, marked.Messages[1].Demo)
		assert.Equal(t, "user", marked.Messages[1].Role)
		assert.Equal(t, "d", marked.Messages[0].Content)

		unmarked := RenderStep(step, RenderOptions{})
		assert.False(t, unmarked.Messages[0].Demo)
		assert.Equal(t, "user", unmarked.Messages[0].Role)
	})

	t.Run("tool calls formatted per message", func(t *testing.T) {
		step := Step{Query: []Message{{
			Role:    "assistant",
			Content: jsoniter.RawMessage(`"running tools"`),
			ToolCalls: []ToolCall{
				{ID: "a", Function: &ToolFunction{Name: "bash", Arguments: jsoniter.RawMessage(`{"command":"ls"}`)}},
				{ID: "b", Function: &ToolFunction{Name: "submit"}},
			},
		}}}

		rendered := RenderStep(step, RenderOptions{})
		require.Len(t, rendered.Messages, 1)
		require.Len(t, rendered.Messages[0].ToolCalls, 2)
		assert.Contains(t, rendered.Messages[0].ToolCalls[0], "Tool call 1:")
		assert.Contains(t, rendered.Messages[0].ToolCalls[1], "Tool call 2:")
		assert.Contains(t, rendered.Messages[0].ToolCalls[1], "ID: b")
	})

	t.Run("bad tool call does not abort siblings", func(t *testing.T) {
		step := Step{Query: []Message{{
			Role: "assistant",
			ToolCalls: []ToolCall{
				{ID: "bad", Function: &ToolFunction{Name: "x", Arguments: jsoniter.RawMessage(`"{{{"`)}},
				{ID: "good", Function: &ToolFunction{Name: "y", Arguments: jsoniter.RawMessage(`{"k":"v"}`)}},
			},
		}}}

		rendered := RenderStep(step, RenderOptions{})
		require.Len(t, rendered.Messages[0].ToolCalls, 2)
		assert.Contains(t, rendered.Messages[0].ToolCalls[0], "{{{")
		assert.Contains(t, rendered.Messages[0].ToolCalls[1], "&quot;k&quot;: &quot;v&quot;")
	})
}
