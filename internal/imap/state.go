package imap

// clientState is one connection's private protocol state. Two axes:
// authentication and mailbox selection; plus the pending IDLE registration.
type clientState struct {
	authenticated bool

	selected        bool
	selectedMailbox string
	readOnly        bool
	lastCount       int

	idleTag        string
	idleListenerID string
}

func (s *clientState) idling() bool {
	return s.idleListenerID != ""
}
