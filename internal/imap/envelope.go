package imap

import (
	"fmt"
	"strings"
	"time"

	"mailgate/internal/message"
)

// BuildEnvelope renders the RFC 3501 ENVELOPE structure for a message:
// (date subject from sender reply-to to cc bcc in-reply-to message-id).
// Sender and reply-to default to the from address per the RFC.
func BuildEnvelope(msg *message.MailMessage) string {
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	from := addressList(msg.From)
	to := addressList(msg.To...)

	return fmt.Sprintf("ENVELOPE (%s %s %s %s %s %s NIL NIL %s %s)",
		quoteOrNIL(date.Format("Mon, 2 Jan 2006 15:04:05 -0700")),
		quoteOrNIL(msg.Subject),
		from,
		from,
		from,
		to,
		quoteOrNIL(msg.InReplyTo),
		quoteOrNIL(msg.MessageID),
	)
}

// addressList renders IMAP address structures: ((name NIL mailbox host) ...)
func addressList(addrs ...string) string {
	var rendered []string
	for _, addr := range addrs {
		if strings.TrimSpace(addr) == "" {
			continue
		}
		rendered = append(rendered, addressStructure(addr))
	}
	if len(rendered) == 0 {
		return "NIL"
	}
	return "(" + strings.Join(rendered, " ") + ")"
}

func addressStructure(addr string) string {
	name := ""
	if idx := strings.Index(addr, "<"); idx > 0 {
		name = strings.Trim(strings.TrimSpace(addr[:idx]), `"`)
	}

	bare := message.ExtractAddress(addr)
	mailbox := bare
	host := ""
	if at := strings.LastIndex(bare, "@"); at != -1 {
		mailbox = bare[:at]
		host = bare[at+1:]
	}

	return fmt.Sprintf("(%s NIL %s %s)", quoteOrNIL(name), quoteOrNIL(mailbox), quoteOrNIL(host))
}

// quoteOrNIL renders a quoted string, or NIL for an empty value
func quoteOrNIL(s string) string {
	if s == "" {
		return "NIL"
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
