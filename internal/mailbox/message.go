package mailbox

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// SignatureStatus classifies the S/MIME state of a message as far as the
// client can tell without verifying anything.
type SignatureStatus string

const (
	SigUnsigned        SignatureStatus = "unsigned"
	SigSignedTrusted   SignatureStatus = "signed-trusted"
	SigSignedUntrusted SignatureStatus = "signed-untrusted"
	SigSignedInvalid   SignatureStatus = "signed-invalid"
)

// Summary is the normalized, client-visible facet of one remote message.
// It is produced once at this boundary; the rest of the program never
// touches the raw API shape.
type Summary struct {
	ID             string
	Subject        string
	FromAddress    string
	FromName       string
	ToAddress      string
	Date           time.Time
	Unread         bool
	HasAttachments bool
	Signature      SignatureStatus
}

// Content is a Summary plus the message body in both transport forms.
type Content struct {
	Summary
	PlainText string
	HTML      string
}

// summaryFromMessage normalizes a raw API message. Signature status is
// only derived for the inbox; other folders always report unsigned.
func summaryFromMessage(msg *gmail.Message, folderID string) Summary {
	from := extractHeader(msg, "From")
	fromAddr, fromName := splitAddress(from)

	s := Summary{
		ID:             msg.Id,
		Subject:        extractHeader(msg, "Subject"),
		FromAddress:    fromAddr,
		FromName:       fromName,
		ToAddress:      firstAddress(extractHeader(msg, "To")),
		Date:           extractDate(msg),
		Unread:         hasLabel(msg, "UNREAD"),
		HasAttachments: hasAttachmentParts(msg),
		Signature:      SigUnsigned,
	}
	if folderID == FolderInbox {
		s.Signature = signatureFromContentType(msg)
	}
	return s
}

func extractHeader(msg *gmail.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func extractDate(msg *gmail.Message) time.Time {
	dateStr := extractHeader(msg, "Date")
	if dateStr != "" {
		for _, layout := range []string{time.RFC1123Z, time.RFC1123, "Mon, 2 Jan 2006 15:04:05 -0700", "2 Jan 2006 15:04:05 -0700"} {
			if t, err := time.Parse(layout, dateStr); err == nil {
				return t
			}
		}
	}
	if msg != nil && msg.InternalDate > 0 {
		return time.UnixMilli(msg.InternalDate)
	}
	return time.Time{}
}

// splitAddress separates "Display Name <addr>" into its parts. A bare
// address yields an empty display name.
func splitAddress(header string) (addr, name string) {
	if strings.TrimSpace(header) == "" {
		return "", ""
	}
	parsed, err := mail.ParseAddress(header)
	if err != nil {
		return strings.TrimSpace(header), ""
	}
	return parsed.Address, parsed.Name
}

// firstAddress returns the first recipient of a To header.
func firstAddress(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	list, err := mail.ParseAddressList(header)
	if err != nil || len(list) == 0 {
		if i := strings.Index(header, ","); i >= 0 {
			header = header[:i]
		}
		return strings.TrimSpace(header)
	}
	return list[0].Address
}

func hasLabel(msg *gmail.Message, labelID string) bool {
	if msg == nil {
		return false
	}
	for _, id := range msg.LabelIds {
		if id == labelID {
			return true
		}
	}
	return false
}

// hasAttachmentParts reports attachments from the MIME tree when the
// message was fetched in full, or from the Content-Type header on the
// metadata path (multipart/mixed is the attachment carrier).
func hasAttachmentParts(msg *gmail.Message) bool {
	if msg == nil || msg.Payload == nil {
		return false
	}
	var walk func(p *gmail.MessagePart) bool
	walk = func(p *gmail.MessagePart) bool {
		if p == nil {
			return false
		}
		if p.Body != nil && p.Body.AttachmentId != "" {
			return true
		}
		if p.Filename != "" {
			return true
		}
		for _, c := range p.Parts {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if walk(msg.Payload) {
		return true
	}
	mediaType := contentType(msg)
	return mediaType == "multipart/mixed"
}

// signatureFromContentType sniffs multipart/signed. There is no
// verification, so a signed message is at best signed-untrusted.
func signatureFromContentType(msg *gmail.Message) SignatureStatus {
	if contentType(msg) == "multipart/signed" {
		return SigSignedUntrusted
	}
	return SigUnsigned
}

func contentType(msg *gmail.Message) string {
	ct := extractHeader(msg, "Content-Type")
	if ct == "" && msg != nil && msg.Payload != nil {
		ct = msg.Payload.MimeType
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mediaType
}

// ExtractPlainText extracts the text/plain body from a full-format message.
func ExtractPlainText(msg *gmail.Message) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	return extractBodyPart(msg.Payload, "text/plain")
}

// ExtractHTML extracts the text/html body from a full-format message.
func ExtractHTML(msg *gmail.Message) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	return extractBodyPart(msg.Payload, "text/html")
}

func extractBodyPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.Body != nil && part.Body.Data != "" && strings.EqualFold(part.MimeType, mimeType) {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(string(data))))
		if err == nil {
			return string(decoded)
		}
		return string(data)
	}
	for _, p := range part.Parts {
		if text := extractBodyPart(p, mimeType); text != "" {
			return text
		}
	}
	return ""
}
