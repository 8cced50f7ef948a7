package imap

import (
	"strconv"
	"strings"

	"mailgate/internal/message"
)

// ParseSequenceSet parses an IMAP sequence set ("n", "n:m", comma-separated
// unions, "*" and open-ended "n:*") into 1-based sequence numbers clipped to
// the mailbox size.
func ParseSequenceSet(sequenceSet string, total int) []int {
	var sequences []int
	if total == 0 {
		return sequences
	}

	// "*" means the last message
	sequenceSet = strings.ReplaceAll(sequenceSet, "*", strconv.Itoa(total))

	for _, part := range strings.Split(sequenceSet, ",") {
		part = strings.TrimSpace(part)

		if strings.Contains(part, ":") {
			rangeParts := strings.Split(part, ":")
			if len(rangeParts) != 2 {
				continue
			}
			start, err1 := strconv.Atoi(rangeParts[0])
			end, err2 := strconv.Atoi(rangeParts[1])
			if err1 != nil || err2 != nil || start < 1 || end < 1 {
				continue
			}
			if start > end {
				start, end = end, start
			}
			for i := start; i <= end && i <= total; i++ {
				sequences = append(sequences, i)
			}
			continue
		}

		num, err := strconv.Atoi(part)
		if err == nil && num > 0 && num <= total {
			sequences = append(sequences, num)
		}
	}

	return sequences
}

// ParseUIDSet parses a UID set the same way, substituting the highest
// assigned UID for "*". The result may name UIDs that no longer exist;
// callers filter against the store.
func ParseUIDSet(uidSet string, nextUID uint32) []uint32 {
	maxUID := int(nextUID) - 1
	if maxUID < 1 {
		return nil
	}

	seqs := ParseSequenceSet(uidSet, maxUID)
	uids := make([]uint32, 0, len(seqs))
	for _, s := range seqs {
		uids = append(uids, uint32(s))
	}
	return uids
}

// ParseFlagList parses a parenthesized (or bare) IMAP flag list into
// canonical flags, dropping tokens that are not system flags.
func ParseFlagList(list string) []message.Flag {
	list = strings.TrimSpace(list)
	list = strings.TrimPrefix(list, "(")
	list = strings.TrimSuffix(list, ")")

	var flags []message.Flag
	for _, token := range strings.Fields(list) {
		if f, ok := message.ParseFlag(token); ok {
			flags = append(flags, f)
		}
	}
	return flags
}

// tokenizeFetchItems splits a FETCH item list on spaces while keeping
// bracketed body sections (which may contain spaces) intact.
func tokenizeFetchItems(items string) []string {
	items = strings.TrimSpace(items)
	items = strings.TrimPrefix(items, "(")
	items = strings.TrimSuffix(items, ")")

	var tokens []string
	var current strings.Builder
	depth := 0

	for _, r := range items {
		switch r {
		case '[':
			depth++
			current.WriteRune(r)
		case ']':
			depth--
			current.WriteRune(r)
		case ' ':
			if depth > 0 {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}
