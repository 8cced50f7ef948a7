package imap

import (
	"fmt"
	"strings"

	"mailgate/internal/message"
)

func handleFetch(s *Server, c *conn, tag, args string, state *clientState, byUID bool) {
	if !state.selected {
		c.Send(fmt.Sprintf("%s NO No mailbox selected", tag))
		return
	}

	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		c.Send(fmt.Sprintf("%s BAD FETCH requires a sequence set and items", tag))
		return
	}

	seqs := s.resolveSequenceSet(parts[0], byUID)
	items := tokenizeFetchItems(parts[1])

	for _, seq := range seqs {
		msg := s.store.MessageBySeq(seq)
		if msg == nil {
			continue
		}
		// Flags are read from a snapshot, never from the shared message;
		// a concurrent STORE on another connection mutates the live set.
		flags := s.store.FlagsBySeq(seq)
		response, markSeen := buildFetchResponse(seq, msg, flags, items, byUID)
		if markSeen && !state.readOnly {
			s.store.UpdateFlags(seq, []message.Flag{message.FlagSeen}, nil)
		}
		c.Send(response)
	}

	cmd := "FETCH"
	if byUID {
		cmd = "UID FETCH"
	}
	c.Send(fmt.Sprintf("%s OK %s completed", tag, cmd))
}

// resolveSequenceSet maps a sequence or UID set to current sequence numbers
func (s *Server) resolveSequenceSet(set string, byUID bool) []int {
	if !byUID {
		return ParseSequenceSet(set, s.store.MessageCount())
	}

	var seqs []int
	for _, uid := range ParseUIDSet(set, s.store.NextUID()) {
		if seq := s.store.SeqForUID(uid); seq > 0 {
			seqs = append(seqs, seq)
		}
	}
	return seqs
}

// buildFetchResponse renders one untagged FETCH line. markSeen reports
// whether a non-PEEK body fetch touched message content.
func buildFetchResponse(seq int, msg *message.MailMessage, flags message.FlagSet, items []string, byUID bool) (string, bool) {
	var out []string
	markSeen := false
	uidIncluded := false

	for _, item := range items {
		upper := strings.ToUpper(item)

		switch {
		case upper == "FLAGS":
			out = append(out, fmt.Sprintf("FLAGS (%s)", flags.String()))
		case upper == "UID":
			out = append(out, fmt.Sprintf("UID %d", msg.UID))
			uidIncluded = true
		case upper == "INTERNALDATE":
			out = append(out, fmt.Sprintf("INTERNALDATE %q", msg.InternalDate()))
		case upper == "RFC822.SIZE":
			out = append(out, fmt.Sprintf("RFC822.SIZE %d", msg.Size()))
		case upper == "ENVELOPE":
			out = append(out, BuildEnvelope(msg))
		case upper == "RFC822":
			out = append(out, literal("RFC822", msg.Render()))
			markSeen = true
		case upper == "RFC822.HEADER":
			out = append(out, literal("RFC822.HEADER", msg.HeaderBlock()+"\r\n"))
		case upper == "RFC822.TEXT":
			out = append(out, literal("RFC822.TEXT", msg.BodyText()))
			markSeen = true
		case strings.HasPrefix(upper, "BODY.PEEK["), strings.HasPrefix(upper, "BODY["):
			peek := strings.HasPrefix(upper, "BODY.PEEK[")
			section := sectionOf(item)
			content, headerOnly := resolveSection(msg, section)
			out = append(out, literal(fmt.Sprintf("BODY[%s]", section), content))
			if !peek && !headerOnly {
				markSeen = true
			}
		}
	}

	// UID FETCH responses always carry the UID per protocol convention
	if byUID && !uidIncluded {
		out = append(out, fmt.Sprintf("UID %d", msg.UID))
	}

	return fmt.Sprintf("* %d FETCH (%s)", seq, strings.Join(out, " ")), markSeen
}

// sectionOf extracts the section text between the brackets of a body item
func sectionOf(item string) string {
	start := strings.Index(item, "[")
	end := strings.LastIndex(item, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return item[start+1 : end]
}

// resolveSection maps a body section to message content. HEADER.FIELDS and
// HEADER.FIELDS.NOT are served as the full header block; field filtering is
// a known simplification. headerOnly suppresses the implicit \Seen.
func resolveSection(msg *message.MailMessage, section string) (string, bool) {
	upper := strings.ToUpper(section)

	switch {
	case section == "":
		return msg.Render(), false
	case upper == "HEADER", strings.HasPrefix(upper, "HEADER.FIELDS"):
		return msg.HeaderBlock() + "\r\n", true
	case upper == "TEXT":
		return msg.BodyText(), false
	default:
		// Numeric sections: the gateway renders single-part messages,
		// so part 1 (and anything deeper) is the text body.
		return msg.BodyText(), false
	}
}

// literal frames content as an IMAP literal: name {length}CRLF content
func literal(name, content string) string {
	return fmt.Sprintf("%s {%d}\r\n%s", name, len(content), content)
}
