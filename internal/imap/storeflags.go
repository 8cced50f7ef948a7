package imap

import (
	"fmt"
	"strings"

	"mailgate/internal/message"
)

// allSystemFlags is the removal set for the replacing FLAGS operation.
// \Recent stays server-managed and is never replaced away.
var allSystemFlags = []message.Flag{
	message.FlagSeen,
	message.FlagAnswered,
	message.FlagFlagged,
	message.FlagDeleted,
	message.FlagDraft,
}

// handleStoreFlags serves STORE and UID STORE with the +FLAGS, -FLAGS and
// replacing FLAGS operations, optionally .SILENT.
func handleStoreFlags(s *Server, c *conn, tag, args string, state *clientState, byUID bool) {
	if !state.selected {
		c.Send(fmt.Sprintf("%s NO No mailbox selected", tag))
		return
	}
	if state.readOnly {
		c.Send(fmt.Sprintf("%s NO Mailbox is read-only", tag))
		return
	}

	parts := strings.SplitN(strings.TrimSpace(args), " ", 3)
	if len(parts) < 3 {
		c.Send(fmt.Sprintf("%s BAD STORE requires a sequence set, an operation and flags", tag))
		return
	}

	operation := strings.ToUpper(parts[1])
	silent := strings.HasSuffix(operation, ".SILENT")
	operation = strings.TrimSuffix(operation, ".SILENT")

	flags := ParseFlagList(parts[2])

	var add, remove []message.Flag
	switch operation {
	case "+FLAGS":
		add = flags
	case "-FLAGS":
		remove = flags
	case "FLAGS":
		add = flags
		remove = replacementRemovals(flags)
	default:
		c.Send(fmt.Sprintf("%s BAD Unknown STORE operation: %s", tag, operation))
		return
	}

	for _, seq := range s.resolveSequenceSet(parts[0], byUID) {
		// The returned snapshot is this connection's view of the result;
		// reading the live set back would race with other connections.
		updated := s.store.UpdateFlags(seq, add, remove)
		if updated == nil || silent {
			continue
		}
		if byUID {
			msg := s.store.MessageBySeq(seq)
			if msg == nil {
				continue
			}
			c.Send(fmt.Sprintf("* %d FETCH (FLAGS (%s) UID %d)", seq, updated.String(), msg.UID))
		} else {
			c.Send(fmt.Sprintf("* %d FETCH (FLAGS (%s))", seq, updated.String()))
		}
	}

	cmd := "STORE"
	if byUID {
		cmd = "UID STORE"
	}
	c.Send(fmt.Sprintf("%s OK %s completed", tag, cmd))
}

// replacementRemovals returns the system flags not named in the new set
func replacementRemovals(keep []message.Flag) []message.Flag {
	keepSet := make(map[message.Flag]bool, len(keep))
	for _, f := range keep {
		keepSet[f] = true
	}

	var remove []message.Flag
	for _, f := range allSystemFlags {
		if !keepSet[f] {
			remove = append(remove, f)
		}
	}
	return remove
}
