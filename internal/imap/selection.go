package imap

import (
	"fmt"
	"strings"
)

func handleSelect(s *Server, c *conn, tag, cmd, args string, state *clientState) {
	if !state.authenticated {
		c.Send(fmt.Sprintf("%s NO Please authenticate first", tag))
		return
	}

	mailbox := strings.Trim(strings.TrimSpace(args), `"`)
	if !strings.EqualFold(mailbox, "INBOX") {
		c.Send(fmt.Sprintf("%s NO Mailbox does not exist", tag))
		return
	}

	count := s.store.MessageCount()
	recent := s.store.RecentCount()
	firstUnseen := s.store.FirstUnseen()

	c.Send(fmt.Sprintf("* %d EXISTS", count))
	c.Send(fmt.Sprintf("* %d RECENT", recent))
	c.Send(fmt.Sprintf("* OK [UIDVALIDITY %d] UIDs valid", s.store.UIDValidity()))
	c.Send(fmt.Sprintf("* OK [UIDNEXT %d] Predicted next UID", s.store.NextUID()))
	if firstUnseen > 0 {
		c.Send(fmt.Sprintf("* OK [UNSEEN %d] Message %d is first unseen", firstUnseen, firstUnseen))
	}
	c.Send(`* FLAGS (\Answered \Flagged \Deleted \Seen \Draft)`)
	c.Send(`* OK [PERMANENTFLAGS (\Answered \Flagged \Deleted \Seen \Draft)] Flags permitted`)

	state.selected = true
	state.selectedMailbox = "INBOX"
	state.readOnly = cmd == "EXAMINE"
	state.lastCount = count

	access := "READ-WRITE"
	if state.readOnly {
		access = "READ-ONLY"
	}
	c.Send(fmt.Sprintf("%s OK [%s] %s completed", tag, access, cmd))
}
