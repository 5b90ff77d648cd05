package trajectory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// imagePattern matches a markdown image link whose target is a base64 data
// URI: ![alt](data:image/<format>;base64,<payload>).
var imagePattern = regexp.MustCompile(`!\[([^\]\n]*)\]\(data:image/([a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/=]+)\)`)

// EmbeddedImage is an inline image lifted out of observation text. ID is a
// generated view-state handle (expand/collapse tracking); it carries no
// identity semantics.
type EmbeddedImage struct {
	ID      string `json:"id"`
	AltText string `json:"alt_text"`
	Format  string `json:"format"`
	DataURL string `json:"data_url"`
}

// ExtractImages scans text for inline base64 image links and lifts each one
// into an EmbeddedImage, substituting a short placeholder in its place.
// Matches are processed in a single left-to-right pass over match spans, so
// a payload is never re-scanned and duplicate links each get their own
// placeholder and record. Text without matches is returned unchanged.
func ExtractImages(text string) (string, []EmbeddedImage) {
	if text == "" {
		return "", nil
	}

	spans := imagePattern.FindAllStringSubmatchIndex(text, -1)
	if len(spans) == 0 {
		return text, nil
	}

	var (
		out    strings.Builder
		images []EmbeddedImage
		last   int
	)
	for _, span := range spans {
		start, end := span[0], span[1]
		alt := text[span[2]:span[3]]
		format := text[span[4]:span[5]]
		payload := text[span[6]:span[7]]

		if alt == "" {
			alt = "Image"
		}
		images = append(images, EmbeddedImage{
			ID:      uuid.NewString(),
			AltText: alt,
			Format:  format,
			DataURL: fmt.Sprintf("data:image/%s;base64,%s", format, payload),
		})

		out.WriteString(text[last:start])
		out.WriteString(Placeholder(alt))
		last = end
	}
	out.WriteString(text[last:])

	return out.String(), images
}

// Placeholder is the marker left in observation text where an image was
// extracted.
func Placeholder(alt string) string {
	return fmt.Sprintf("[IMAGE: %s]", alt)
}
