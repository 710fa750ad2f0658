// Package render turns message content into terminal-friendly text and
// formats message-list rows into fixed-width columns.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/net/html"

	"github.com/apastor/mailterm/internal/mailbox"
)

// HTMLToText converts an HTML body into plain text: block elements break
// lines, scripts/styles are dropped, entities are decoded by the parser.
func HTMLToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "br":
				sb.WriteString("\n")
			case "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
				sb.WriteString("\n")
			}
		case html.TextNode:
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return NormalizeText(sb.String())
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText collapses whitespace runs and normalizes newlines.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRuns.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// BodyText picks the best text rendition of a message body: the plain
// part when present, otherwise the HTML part converted.
func BodyText(content *mailbox.Content) string {
	if content == nil {
		return ""
	}
	if strings.TrimSpace(content.PlainText) != "" {
		return NormalizeText(content.PlainText)
	}
	if strings.TrimSpace(content.HTML) != "" {
		return HTMLToText(content.HTML)
	}
	return ""
}

// Truncate trims a string to the given display width, appending an
// ellipsis when something was cut. Widths are cell widths, not rune
// counts, so wide characters are handled correctly.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad truncates or right-pads a string to exactly the given width.
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// ListRowWidths holds the column widths of a message-list row.
type ListRowWidths struct {
	Index   int
	From    int
	Subject int
	Date    int
}

// DefaultListRowWidths distributes a total display width over the list
// columns: fixed index/flag/date columns, ~30% of the rest for the
// sender, the remainder for the subject.
func DefaultListRowWidths(total int) ListRowWidths {
	w := ListRowWidths{Index: 4, Date: 16}
	flags := 4 // unread, attachment and signature markers plus separator
	rest := total - w.Index - w.Date - flags - 3
	if rest < 20 {
		rest = 20
	}
	w.From = rest * 30 / 100
	if w.From < 12 {
		w.From = 12
	}
	w.Subject = rest - w.From
	return w
}

// FormatIndexedRow renders one summary as a fixed-width row carrying its
// 1-based page index.
func FormatIndexedRow(index int, s mailbox.Summary, w ListRowWidths) string {
	flags := []rune{' ', ' ', ' '}
	if s.Unread {
		flags[0] = '*'
	}
	if s.HasAttachments {
		flags[1] = '@'
	}
	switch s.Signature {
	case mailbox.SigSignedTrusted:
		flags[2] = 'S'
	case mailbox.SigSignedUntrusted:
		flags[2] = 's'
	case mailbox.SigSignedInvalid:
		flags[2] = '!'
	}

	from := s.FromName
	if from == "" {
		from = s.FromAddress
	}

	return fmt.Sprintf("%s %s %s %s %s",
		runewidth.FillLeft(fmt.Sprintf("%d", index), w.Index),
		string(flags),
		Pad(from, w.From),
		Pad(s.Subject, w.Subject),
		Pad(FormatDate(s.Date), w.Date),
	)
}

// FormatDate renders a timestamp in local time: time-of-day for today,
// short date otherwise.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.Local()
	now := time.Now()
	if local.Year() == now.Year() && local.YearDay() == now.YearDay() {
		return local.Format("15:04")
	}
	return local.Format("2006-01-02 15:04")
}

// FormatMessage renders a full message for the read view.
func FormatMessage(content *mailbox.Content, width int) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject: %s\n", content.Subject))
	from := content.FromAddress
	if content.FromName != "" {
		from = fmt.Sprintf("%s <%s>", content.FromName, content.FromAddress)
	}
	sb.WriteString(fmt.Sprintf("From:    %s\n", from))
	sb.WriteString(fmt.Sprintf("To:      %s\n", content.ToAddress))
	if !content.Date.IsZero() {
		sb.WriteString(fmt.Sprintf("Date:    %s\n", content.Date.Local().Format(time.RFC1123)))
	}
	if content.Signature != mailbox.SigUnsigned {
		sb.WriteString(fmt.Sprintf("Signed:  %s\n", content.Signature))
	}
	sb.WriteString("\n")
	sb.WriteString(wrapText(BodyText(content), width))
	return sb.String()
}

// QuoteForReply prefixes each line with "> " for inclusion in a reply.
func QuoteForReply(body string) string {
	if body == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n") + "\n"
}

// wrapText wraps long lines at word boundaries, leaving quoted lines
// (">") untouched so reply chains keep their shape.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, ">") || runewidth.StringWidth(line) <= width {
			out = append(out, line)
			continue
		}
		var cur string
		for _, word := range strings.Fields(line) {
			if cur == "" {
				cur = word
				continue
			}
			if runewidth.StringWidth(cur)+1+runewidth.StringWidth(word) > width {
				out = append(out, cur)
				cur = word
			} else {
				cur += " " + word
			}
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	return strings.Join(out, "\n")
}
