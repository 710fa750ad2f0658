package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/apastor/mailterm/internal/mailbox"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{"paragraphs", "<p>first</p><p>second</p>", "first\nsecond"},
		{"line_breaks", "one<br>two<br/>three", "one\ntwo\nthree"},
		{"strips_style", "<style>p{color:red}</style><p>visible</p>", "visible"},
		{"strips_script", "<script>alert(1)</script>hello", "hello"},
		{"entities", "<p>fish &amp; chips</p>", "fish & chips"},
		{"nested_lists", "<ul><li>a</li><li>b</li></ul>", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTMLToText(tt.html))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	in := "a  \t b\r\nc\r\n\n\n\nd   "
	assert.Equal(t, "a b\nc\n\nd", NormalizeText(in))
}

func TestBodyText_PrefersPlainPart(t *testing.T) {
	content := &mailbox.Content{
		PlainText: "plain body",
		HTML:      "<p>html body</p>",
	}
	assert.Equal(t, "plain body", BodyText(content))

	content.PlainText = "  "
	assert.Equal(t, "html body", BodyText(content))

	assert.Empty(t, BodyText(nil))
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hell…", Truncate("hello world", 5))
	assert.Equal(t, "", Truncate("hello", 0))

	padded := Pad("hi", 6)
	assert.Equal(t, 6, len([]rune(padded)))
	assert.True(t, strings.HasPrefix(padded, "hi"))

	// Wide runes count as two cells.
	assert.Equal(t, "日…", Truncate("日本語", 3))
}

func TestDefaultListRowWidths(t *testing.T) {
	w := DefaultListRowWidths(120)
	assert.Equal(t, 4, w.Index)
	assert.Equal(t, 16, w.Date)
	assert.GreaterOrEqual(t, w.From, 12)
	assert.Greater(t, w.Subject, w.From)
}

func TestFormatIndexedRow(t *testing.T) {
	s := mailbox.Summary{
		Subject:        "Hello",
		FromAddress:    "alice@example.com",
		FromName:       "Alice",
		Unread:         true,
		HasAttachments: true,
		Signature:      mailbox.SigSignedUntrusted,
	}
	row := FormatIndexedRow(3, s, DefaultListRowWidths(100))
	assert.Contains(t, row, "3")
	assert.Contains(t, row, "*@s")
	assert.Contains(t, row, "Alice")
	assert.Contains(t, row, "Hello")
}

func TestFormatDate(t *testing.T) {
	assert.Empty(t, FormatDate(time.Time{}))

	today := time.Now()
	assert.Equal(t, today.Local().Format("15:04"), FormatDate(today))

	past := time.Date(2020, 3, 14, 9, 26, 0, 0, time.UTC)
	assert.Contains(t, FormatDate(past), "2020-03-14")
}

func TestFormatMessage(t *testing.T) {
	content := &mailbox.Content{
		Summary: mailbox.Summary{
			Subject:     "Status",
			FromAddress: "alice@example.com",
			FromName:    "Alice",
			ToAddress:   "bob@example.com",
			Date:        time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC),
			Signature:   mailbox.SigSignedUntrusted,
		},
		PlainText: "line one\nline two",
	}
	out := FormatMessage(content, 80)
	assert.Contains(t, out, "Subject: Status")
	assert.Contains(t, out, "Alice <alice@example.com>")
	assert.Contains(t, out, "Signed:  signed-untrusted")
	assert.Contains(t, out, "line one")
}

func TestWrapText_PreservesQuotes(t *testing.T) {
	long := strings.Repeat("word ", 30)
	quoted := "> " + long
	out := wrapText(long+"\n"+quoted, 40)

	lines := strings.Split(out, "\n")
	// The unquoted line is wrapped, the quoted line is left alone.
	assert.Greater(t, len(lines), 2)
	assert.Contains(t, out, quoted)
}

func TestQuoteForReply(t *testing.T) {
	assert.Equal(t, "> one\n> two\n", QuoteForReply("one\ntwo\n"))
	assert.Equal(t, "> > nested\n", QuoteForReply("> nested"))
	assert.Empty(t, QuoteForReply(""))
}
