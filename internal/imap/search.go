package imap

import (
	"fmt"
	"strconv"
	"strings"
)

// Only ALL and UNSEEN are recognized; any other criteria fall back to ALL.
// The match is against the whole criteria string, so compound criteria like
// NOT UNSEEN are not misread as UNSEEN.
func handleSearch(s *Server, c *conn, tag, args string, state *clientState, byUID bool) {
	if !state.selected {
		c.Send(fmt.Sprintf("%s NO No mailbox selected", tag))
		return
	}

	var seqs []int
	if strings.EqualFold(strings.TrimSpace(args), "UNSEEN") {
		seqs = s.store.SearchUnseen()
	} else {
		seqs = s.store.SearchAll()
	}

	results := make([]string, 0, len(seqs))
	for _, seq := range seqs {
		if byUID {
			msg := s.store.MessageBySeq(seq)
			if msg == nil {
				continue
			}
			results = append(results, strconv.FormatUint(uint64(msg.UID), 10))
		} else {
			results = append(results, strconv.Itoa(seq))
		}
	}

	response := "* SEARCH"
	if len(results) > 0 {
		response += " " + strings.Join(results, " ")
	}
	c.Send(response)

	cmd := "SEARCH"
	if byUID {
		cmd = "UID SEARCH"
	}
	c.Send(fmt.Sprintf("%s OK %s completed", tag, cmd))
}
