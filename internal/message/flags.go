package message

import "strings"

// Flag is an IMAP system flag
type Flag string

const (
	FlagSeen     Flag = "\\Seen"
	FlagAnswered Flag = "\\Answered"
	FlagFlagged  Flag = "\\Flagged"
	FlagDeleted  Flag = "\\Deleted"
	FlagDraft    Flag = "\\Draft"
	FlagRecent   Flag = "\\Recent"
)

// systemFlags fixes the rendering order of flags in IMAP responses
var systemFlags = []Flag{FlagSeen, FlagAnswered, FlagFlagged, FlagDeleted, FlagDraft, FlagRecent}

// FlagSet is the set of flags attached to one message
type FlagSet map[Flag]bool

// NewFlagSet returns a set containing the given flags
func NewFlagSet(flags ...Flag) FlagSet {
	fs := make(FlagSet)
	for _, f := range flags {
		fs[f] = true
	}
	return fs
}

// Has reports whether the flag is set
func (fs FlagSet) Has(f Flag) bool {
	return fs[f]
}

// Clone returns an independent copy of the set
func (fs FlagSet) Clone() FlagSet {
	out := make(FlagSet, len(fs))
	for f, set := range fs {
		out[f] = set
	}
	return out
}

// Add sets a flag
func (fs FlagSet) Add(f Flag) {
	fs[f] = true
}

// Remove clears a flag
func (fs FlagSet) Remove(f Flag) {
	delete(fs, f)
}

// String renders the set as an IMAP flag list body, e.g. "\Seen \Recent"
func (fs FlagSet) String() string {
	var out []string
	for _, f := range systemFlags {
		if fs[f] {
			out = append(out, string(f))
		}
	}
	return strings.Join(out, " ")
}

// ParseFlag maps an IMAP flag token to its canonical Flag; ok is false for
// tokens that are not system flags.
func ParseFlag(token string) (Flag, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case `\seen`:
		return FlagSeen, true
	case `\answered`:
		return FlagAnswered, true
	case `\flagged`:
		return FlagFlagged, true
	case `\deleted`:
		return FlagDeleted, true
	case `\draft`:
		return FlagDraft, true
	case `\recent`:
		return FlagRecent, true
	}
	return "", false
}
