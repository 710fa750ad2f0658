// Package mailbox wraps the remote mailbox REST API. All raw API shapes
// are decoded into normalized types here, at the boundary.
package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// Folder label IDs for the remote system folders.
const (
	FolderInbox   = "INBOX"
	FolderDrafts  = "DRAFT"
	FolderSent    = "SENT"
	FolderDeleted = "TRASH"
	FolderJunk    = "SPAM"
)

// Folder pairs a display name with its remote label ID.
type Folder struct {
	ID   string
	Name string
}

// Folders lists the navigable system folders in menu order.
func Folders() []Folder {
	return []Folder{
		{ID: FolderInbox, Name: "Inbox"},
		{ID: FolderDrafts, Name: "Drafts"},
		{ID: FolderSent, Name: "Sent"},
		{ID: FolderDeleted, Name: "Deleted"},
		{ID: FolderJunk, Name: "Junk"},
	}
}

// FolderName returns the display name of a folder ID.
func FolderName(id string) string {
	for _, f := range Folders() {
		if f.ID == id {
			return f.Name
		}
	}
	return id
}

// metadataHeaders are the only headers requested on the plain listing
// path. Content-Type is included so attachment and signature flags can
// be derived without pulling the body.
var metadataHeaders = []string{"Subject", "From", "To", "Date", "Content-Type"}

// Client wraps the gmail.Service and provides convenience methods
type Client struct {
	Service      *gmail.Service
	profileEmail string
}

// NewClient creates a new mailbox client
func NewClient(service *gmail.Service) *Client {
	return &Client{Service: service}
}

// ActiveAccountEmail returns the authenticated account's address,
// caching it after the first call.
func (c *Client) ActiveAccountEmail(ctx context.Context) (string, error) {
	if c == nil || c.Service == nil {
		return "", fmt.Errorf("mailbox client not initialized")
	}
	if c.profileEmail != "" {
		return c.profileEmail, nil
	}
	profile, err := c.Service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("could not fetch profile: %w", err)
	}
	c.profileEmail = profile.EmailAddress
	return c.profileEmail, nil
}

// ListFolderPage returns one page of message summaries for a folder, in
// server order, plus the continuation token for the next page. The body
// is never requested on this path.
func (c *Client) ListFolderPage(ctx context.Context, folderID string, max int64, pageToken string) ([]Summary, string, error) {
	if c == nil || c.Service == nil {
		return nil, "", fmt.Errorf("mailbox client not initialized")
	}
	ids, nextToken, err := c.listIDs(ctx, folderID, max, pageToken)
	if err != nil {
		return nil, "", err
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		msg, err := c.Service.Users.Messages.Get("me", id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).Do()
		if err != nil {
			return nil, "", fmt.Errorf("could not fetch message %s: %w", id, err)
		}
		summaries = append(summaries, summaryFromMessage(msg, folderID))
	}
	return summaries, nextToken, nil
}

// ListFolderPageWithContent returns one page with full bodies, for the
// client-side filter path.
func (c *Client) ListFolderPageWithContent(ctx context.Context, folderID string, max int64, pageToken string) ([]Content, string, error) {
	if c == nil || c.Service == nil {
		return nil, "", fmt.Errorf("mailbox client not initialized")
	}
	ids, nextToken, err := c.listIDs(ctx, folderID, max, pageToken)
	if err != nil {
		return nil, "", err
	}

	contents := make([]Content, 0, len(ids))
	for _, id := range ids {
		content, err := c.GetMessageWithContent(ctx, id, folderID)
		if err != nil {
			return nil, "", err
		}
		contents = append(contents, *content)
	}
	return contents, nextToken, nil
}

func (c *Client) listIDs(ctx context.Context, folderID string, max int64, pageToken string) ([]string, string, error) {
	call := c.Service.Users.Messages.List("me").LabelIds(folderID)
	if max > 0 {
		call = call.MaxResults(max)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("could not list folder %s: %w", folderID, err)
	}
	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, res.NextPageToken, nil
}

// GetMessageWithContent retrieves one message in full format and
// extracts its content.
func (c *Client) GetMessageWithContent(ctx context.Context, id, folderID string) (*Content, error) {
	if c == nil || c.Service == nil {
		return nil, fmt.Errorf("mailbox client not initialized")
	}
	msg, err := c.Service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("could not fetch message %s: %w", id, err)
	}
	return &Content{
		Summary:   summaryFromMessage(msg, folderID),
		PlainText: ExtractPlainText(msg),
		HTML:      ExtractHTML(msg),
	}, nil
}

// MoveMessage relabels a message from one folder to another. Moves in
// and out of the Deleted folder go through trash/untrash so the remote
// system keeps its own bookkeeping consistent.
func (c *Client) MoveMessage(ctx context.Context, id, fromFolderID, toFolderID string) error {
	if c == nil || c.Service == nil {
		return fmt.Errorf("mailbox client not initialized")
	}
	if fromFolderID == toFolderID {
		return nil
	}

	switch {
	case toFolderID == FolderDeleted:
		if _, err := c.Service.Users.Messages.Trash("me", id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("could not move message %s to trash: %w", id, err)
		}
		return nil
	case fromFolderID == FolderDeleted:
		if _, err := c.Service.Users.Messages.Untrash("me", id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("could not restore message %s: %w", id, err)
		}
		return c.modifyLabels(ctx, id, []string{toFolderID}, nil)
	default:
		return c.modifyLabels(ctx, id, []string{toFolderID}, []string{fromFolderID})
	}
}

// DeleteMessage permanently deletes a message. There is no undo on the
// remote side.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	if c == nil || c.Service == nil {
		return fmt.Errorf("mailbox client not initialized")
	}
	if err := c.Service.Users.Messages.Delete("me", id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("could not delete message %s: %w", id, err)
	}
	return nil
}

// MarkAsRead marks a message as read
func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	return c.modifyLabels(ctx, id, nil, []string{"UNREAD"})
}

// MarkAsUnread marks a message as unread
func (c *Client) MarkAsUnread(ctx context.Context, id string) error {
	return c.modifyLabels(ctx, id, []string{"UNREAD"}, nil)
}

func (c *Client) modifyLabels(ctx context.Context, id string, add, remove []string) error {
	if c == nil || c.Service == nil {
		return fmt.Errorf("mailbox client not initialized")
	}
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	if _, err := c.Service.Users.Messages.Modify("me", id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("could not modify labels on message %s: %w", id, err)
	}
	return nil
}

// AttachmentRef identifies one downloadable attachment on a message.
type AttachmentRef struct {
	ID       string
	Filename string
}

// ListAttachments walks the message parts and collects the attachments
// available for download.
func (c *Client) ListAttachments(ctx context.Context, messageID string) ([]AttachmentRef, error) {
	if c == nil || c.Service == nil {
		return nil, fmt.Errorf("mailbox client not initialized")
	}
	msg, err := c.Service.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("could not fetch message %s: %w", messageID, err)
	}

	var refs []AttachmentRef
	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		if part == nil {
			return
		}
		if part.Body != nil && part.Body.AttachmentId != "" {
			name := part.Filename
			if name == "" {
				name = "attachment"
			}
			refs = append(refs, AttachmentRef{ID: part.Body.AttachmentId, Filename: name})
		}
		for _, p := range part.Parts {
			walk(p)
		}
	}
	walk(msg.Payload)
	return refs, nil
}

// GetAttachment downloads an attachment and resolves its filename.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, string, error) {
	if c == nil || c.Service == nil {
		return nil, "", fmt.Errorf("mailbox client not initialized")
	}
	att, err := c.Service.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("could not fetch attachment: %w", err)
	}
	data, err := base64.URLEncoding.DecodeString(att.Data)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode attachment: %w", err)
	}

	filename := "attachment"
	msg, err := c.Service.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err == nil && msg.Payload != nil {
		var find func(part *gmail.MessagePart)
		find = func(part *gmail.MessagePart) {
			if part.Body != nil && part.Body.AttachmentId == attachmentID && part.Filename != "" {
				filename = part.Filename
				return
			}
			for _, p := range part.Parts {
				find(p)
			}
		}
		find(msg.Payload)
	}
	return data, filename, nil
}

// CreateDraft creates a new draft message
func (c *Client) CreateDraft(ctx context.Context, to, subject, body string, cc []string) (string, error) {
	if c == nil || c.Service == nil {
		return "", fmt.Errorf("mailbox client not initialized")
	}
	draft := &gmail.Draft{
		Message: &gmail.Message{Raw: encodeRFC822("me", to, subject, body, cc)},
	}
	created, err := c.Service.Users.Drafts.Create("me", draft).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("could not create draft: %w", err)
	}
	return created.Id, nil
}

// SendMessage sends a message
func (c *Client) SendMessage(ctx context.Context, from, to, subject, body string, cc []string) (string, error) {
	if c == nil || c.Service == nil {
		return "", fmt.Errorf("mailbox client not initialized")
	}
	msg := &gmail.Message{Raw: encodeRFC822(from, to, subject, body, cc)}
	sent, err := c.Service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("could not send message: %w", err)
	}
	return sent.Id, nil
}

func encodeRFC822(from, to, subject, body string, cc []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	if len(cc) > 0 {
		sb.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(cc, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(sb.String()))
}
