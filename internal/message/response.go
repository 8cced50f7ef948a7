package message

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Response is what a task handler produces for a received message. The
// gateway turns it into an outgoing reply with correct threading headers.
type Response struct {
	From    string
	Subject string
	Body    string
}

// ToMessage builds the reply MailMessage for the original message. The
// references list always ends with the Message-ID being replied to, which is
// what mail clients use for thread grouping.
func (r *Response) ToMessage(orig *MailMessage) *MailMessage {
	subject := r.Subject
	if subject == "" {
		subject = orig.Subject
		if !strings.HasPrefix(strings.ToLower(subject), "re:") {
			subject = "Re: " + subject
		}
	}

	references := make([]string, 0, len(orig.References)+1)
	references = append(references, orig.References...)
	references = append(references, orig.MessageID)

	hostname := "localhost"
	if idx := strings.Index(ExtractAddress(r.From), "@"); idx != -1 {
		hostname = ExtractAddress(r.From)[idx+1:]
	}

	return &MailMessage{
		ID:         uuid.New().String(),
		MessageID:  SynthesizeMessageID(hostname),
		From:       r.From,
		To:         []string{orig.From},
		InReplyTo:  orig.MessageID,
		References: references,
		Subject:    subject,
		Body:       r.Body,
		Headers:    map[string]string{},
		Date:       time.Now(),
		Flags:      NewFlagSet(),
	}
}
