package chat

import (
	"fmt"
	"html"
	"strings"

	"github.com/MikeSquared-Agency/parley/internal/backend"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	AttachmentGlyph = "📎"
	UploadComplete  = "Upload complete."
	DocumentAck     = "Document attached. (Processing not yet supported.)"
)

// Bubble contents are markup. Anything that came from the user or the
// server is escaped before it is embedded.

func renderUserText(text string) string {
	return html.EscapeString(text)
}

func renderAttachment(name string) string {
	return AttachmentGlyph + " " + html.EscapeString(name)
}

func renderClassification(res backend.ClassificationResult) string {
	return fmt.Sprintf("<strong>%s</strong><br/>is_true: %s<br/>confidence: %s<br/>%s",
		html.EscapeString(res.Prediction),
		res.IsTrueText(),
		html.EscapeString(res.Confidence),
		html.EscapeString(res.Explanation),
	)
}

func renderClassifyError(err error) string {
	return "Error: " + html.EscapeString(err.Error())
}

func renderTranscription(text string) string {
	return "Transcript: " + html.EscapeString(text)
}

func renderUploadError(err error) string {
	return "Upload failed: " + html.EscapeString(err.Error())
}

// PlainText flattens bubble markup for text-only views: tags are dropped,
// <br> becomes a newline and entities are decoded.
func PlainText(markup string) string {
	var sb strings.Builder
	z := nethtml.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			return sb.String()
		case nethtml.TextToken:
			sb.Write(z.Text())
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Br {
				sb.WriteByte('\n')
			}
		}
	}
}
