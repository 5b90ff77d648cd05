package trajectory

import (
	"fmt"
	"strings"
)

// FormatToolCall renders one tool call as a text block: the call's 1-based
// position among its siblings, the function name (omitted when the call has
// no function record), the arguments, and the identifier. Arguments that
// coerce to structured JSON are pretty-printed; anything else degrades to
// literal escaped text for that call only.
func FormatToolCall(pos int, call ToolCall) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool call %d:\n", pos)

	if call.Function != nil {
		if call.Function.Name != "" {
			fmt.Fprintf(&b, "  Function: %s\n", EscapeText(call.Function.Name))
		}
		if len(call.Function.Arguments) > 0 {
			b.WriteString("  Arguments:\n")
			b.WriteString(indentLines(formatArguments(call.Function.Arguments), "    "))
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "  ID: %s", EscapeText(call.ID))
	return b.String()
}

// formatArguments coerces an arguments payload to pretty-printed JSON. The
// payload is either structured already, or a string that itself encodes
// JSON. A string that does not parse is shown literally.
func formatArguments(raw []byte) string {
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		var parsed interface{}
		if err := json.Unmarshal([]byte(inner), &parsed); err != nil {
			return EscapeText(inner)
		}
		return prettyJSON(parsed)
	}

	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return EscapeText(string(raw))
	}
	return prettyJSON(parsed)
}

func prettyJSON(v interface{}) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return EscapeText(fmt.Sprintf("%v", v))
	}
	return EscapeText(string(out))
}

func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
