package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders t as a Markdown document. Each message is a block
// quote so its text cannot end the message early. Bot text keeps its
// Markdown; user text and quick reply labels render literally.
func Markdown(t *Transcript) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Transcript %s\n\n", t.Session.ID)
	fmt.Fprintf(&b, "- Endpoint: `%s`\n", t.Session.EndpointID)
	fmt.Fprintf(&b, "- Started: %s\n", t.Session.StartedAt.Format(time.RFC3339))
	if t.Session.EndedAt != nil {
		fmt.Fprintf(&b, "- Ended: %s\n", t.Session.EndedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Messages: %d\n", len(t.Messages))

	for _, m := range t.Messages {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "**%s** · %s\n\n", senderLabel(m.Sender), m.CreatedAt.Format("15:04:05"))
		if strings.TrimSpace(m.Text) != "" {
			text := m.Text
			if m.Sender == "user" {
				text = escapeMarkdown(text)
			}
			writeQuote(&b, text)
		}
		if len(m.QuickReplies) > 0 {
			labels := make([]string, len(m.QuickReplies))
			for i, l := range m.QuickReplies {
				labels[i] = escapeMarkdown(l)
			}
			fmt.Fprintf(&b, "\n_Quick replies: %s_\n", strings.Join(labels, " · "))
		}
	}
	return b.String()
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// writeQuote writes text as a block quote. A blank line follows so no
// later line is read as part of it.
func writeQuote(b *strings.Builder, text string) {
	for _, line := range strings.Split(lineBreaks.Replace(text), "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteString(">\n")
			continue
		}
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// markdownSpecial are the characters that can start Markdown syntax.
const markdownSpecial = "\\`*_[]<>#+-!|~=&"

func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func senderLabel(sender string) string {
	if sender == "user" {
		return "User"
	}
	return "Bot"
}

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
)

var pageTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Transcript {{.ID}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
hr { border: none; border-top: 1px solid #e5e7eb; margin: 1.25rem 0; }
pre { padding: .75rem; border-radius: 6px; overflow-x: auto; }
code { font-size: .9em; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders t as a standalone HTML page. Raw HTML in messages is not
// passed through.
func HTML(t *Transcript) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(t)), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		ID   string
		Body template.HTML
	}{ID: t.Session.ID, Body: template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return page.Bytes(), nil
}
