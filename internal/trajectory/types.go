// Package trajectory parses, normalizes and renders SWE-agent style
// trajectory files. The transforms here are pure: raw document in,
// display-ready records out. Anything that touches the filesystem, the
// network or a UI surface lives elsewhere.
package trajectory

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is one complete recorded agent run as stored in a .traj file.
type Document struct {
	Trajectory []Step `json:"trajectory"`
	Info       *Info  `json:"info,omitempty"`
}

// Info carries run-level metadata written alongside the steps.
type Info struct {
	ExitStatus string      `json:"exit_status,omitempty"`
	Submission string      `json:"submission,omitempty"`
	ModelStats *ModelStats `json:"model_stats,omitempty"`
}

// ModelStats summarizes model usage for a run.
type ModelStats struct {
	APICalls       int     `json:"api_calls,omitempty"`
	InstanceCost   float64 `json:"instance_cost,omitempty"`
	TokensSent     int     `json:"tokens_sent,omitempty"`
	TokensReceived int     `json:"tokens_received,omitempty"`
}

// Step is one interaction turn: model response, derived action, and the
// resulting observation. Query holds the underlying chat messages; Messages
// is the legacy field name older files used for the same data.
type Step struct {
	Response      string    `json:"response"`
	Action        string    `json:"action"`
	Observation   string    `json:"observation"`
	ExecutionTime *float64  `json:"execution_time,omitempty"`
	Query         []Message `json:"query,omitempty"`
	Messages      []Message `json:"messages,omitempty"`
}

// Message is one chat-style entry underlying a step. Content is kept raw
// because files carry it in several shapes; ContentText resolves it.
type Message struct {
	Role      string              `json:"role"`
	Content   jsoniter.RawMessage `json:"content,omitempty"`
	ToolCalls []ToolCall          `json:"tool_calls,omitempty"`
	IsDemo    bool                `json:"is_demo,omitempty"`
}

// ToolCall describes one invoked function and its arguments.
type ToolCall struct {
	ID       string        `json:"id,omitempty"`
	Function *ToolFunction `json:"function,omitempty"`
}

// ToolFunction is the name/arguments pair of a tool call. Arguments may be
// a JSON-encoded string or an already-structured value.
type ToolFunction struct {
	Name      string              `json:"name,omitempty"`
	Arguments jsoniter.RawMessage `json:"arguments,omitempty"`
}

// ParseDocument decodes a trajectory document. An absent or non-array
// "trajectory" field yields an empty run rather than an error; only a
// syntactically broken document fails.
func ParseDocument(data []byte) (*Document, error) {
	var raw struct {
		Trajectory jsoniter.RawMessage `json:"trajectory"`
		Info       *Info               `json:"info"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse trajectory document: %w", err)
	}

	doc := &Document{Info: raw.Info}
	if len(raw.Trajectory) > 0 {
		var steps []Step
		if err := json.Unmarshal(raw.Trajectory, &steps); err == nil {
			doc.Trajectory = steps
		}
	}
	return doc, nil
}

// ContentText resolves the polymorphic content field to display text.
// Recognized shapes: a plain string, or a non-empty array whose first
// element carries a "text" field. Anything else is serialized as-is.
func (m *Message) ContentText() string {
	if len(m.Content) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(m.Content, &str); err == nil {
		return str
	}

	var blocks []jsoniter.RawMessage
	if err := json.Unmarshal(m.Content, &blocks); err == nil && len(blocks) > 0 {
		var first struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(blocks[0], &first); err == nil && first.Text != nil {
			return *first.Text
		}
	}

	return strings.TrimSpace(string(m.Content))
}
