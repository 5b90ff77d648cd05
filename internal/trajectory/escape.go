package trajectory

import "strings"

// escaper substitutes the five characters that matter for HTML embedding.
// strings.Replacer never rescans replaced text, so entities introduced for
// one character are not re-escaped by another.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeText makes free text safe for embedding in an HTML-like display
// surface. The transformation is lossless: unescaping reproduces the input.
func EscapeText(s string) string {
	return escaper.Replace(s)
}
