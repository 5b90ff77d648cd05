package trajectory

import (
	"strconv"
	"strings"
)

// RenderOptions configures rendering of a trajectory.
type RenderOptions struct {
	// MarkDemo surfaces demo-flagged messages with a distinguishing marker.
	MarkDemo bool
}

// RenderedTrajectory is the display-ready form of a whole document.
type RenderedTrajectory struct {
	Steps []RenderedStep `json:"steps"`
	Info  *Info          `json:"info,omitempty"`
}

// RenderedStep is the display-ready form of one step. All free text is
// escaped for HTML embedding; the observation has inline images replaced by
// placeholders. Optional panels (images, execution time, messages) are nil
// or empty when absent rather than rendered empty.
type RenderedStep struct {
	Response    string `json:"response"`
	Action      string `json:"action"`
	Observation string `json:"observation"`

	Images []ImageBlock `json:"images,omitempty"`

	HasExecutionTime bool    `json:"has_execution_time"`
	ExecutionTime    float64 `json:"execution_time,omitempty"`
	ExecutionLabel   string  `json:"execution_label,omitempty"`

	Messages []RenderedMessage `json:"messages,omitempty"`
}

// ImageBlock is one gallery entry of a rendered step.
type ImageBlock struct {
	ID      string `json:"id"`
	AltText string `json:"alt_text"`
	DataURL string `json:"data_url"`
	Format  string `json:"format"`
}

// RenderedMessage is one entry of the messages panel.
type RenderedMessage struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	ToolCalls []string `json:"tool_calls,omitempty"`
	Demo      bool     `json:"demo,omitempty"`
}

// RenderStep turns one normalized step into its display record. Malformed
// pieces (unparseable tool-call arguments, unrecognized content shapes)
// degrade to literal text for that piece only; rendering never fails.
func RenderStep(step Step, opts RenderOptions) RenderedStep {
	observation, images := ExtractImages(step.Observation)

	out := RenderedStep{
		Response:    EscapeText(step.Response),
		Action:      EscapeText(step.Action),
		Observation: EscapeText(observation),
	}

	for _, img := range images {
		out.Images = append(out.Images, ImageBlock{
			ID:      img.ID,
			AltText: EscapeText(img.AltText),
			DataURL: img.DataURL,
			Format:  img.Format,
		})
	}

	if step.ExecutionTime != nil {
		out.HasExecutionTime = true
		out.ExecutionTime = *step.ExecutionTime
		out.ExecutionLabel = strconv.FormatFloat(*step.ExecutionTime, 'f', -1, 64) + "s"
	}

	for _, msg := range step.Query {
		out.Messages = append(out.Messages, renderMessage(msg, opts))
	}

	return out
}

func renderMessage(msg Message, opts RenderOptions) RenderedMessage {
	rm := RenderedMessage{
		Role:    EscapeText(msg.Role),
		Content: EscapeText(msg.ContentText()),
	}
	if opts.MarkDemo && msg.IsDemo {
		rm.Demo = true
		rm.Role = strings.TrimSpace(rm.Role + " [demo]")
	}
	for i, call := range msg.ToolCalls {
		rm.ToolCalls = append(rm.ToolCalls, FormatToolCall(i+1, call))
	}
	return rm
}

// RenderTrajectory normalizes and renders every step of a document.
func RenderTrajectory(doc *Document, opts RenderOptions) *RenderedTrajectory {
	doc.Normalize()
	out := &RenderedTrajectory{Info: doc.Info}
	for _, step := range doc.Trajectory {
		out.Steps = append(out.Steps, RenderStep(step, opts))
	}
	return out
}
