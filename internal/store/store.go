package store

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"mailgate/internal/message"
)

// Handler consumes an incoming message routed to it
type Handler func(msg *message.MailMessage)

// ReplyListener is notified with the new total reply count after StoreReply
type ReplyListener func(total int)

// Journal is the optional write-only delivery journal (see internal/archive)
type Journal interface {
	Record(kind string, msg *message.MailMessage) error
}

// Store is the single shared mailbox: replies served over IMAP, incoming
// messages routed to handlers. All operations serialize on one mutex and
// never perform network I/O while holding it; handler invocation and
// listener notification happen after the critical section.
type Store struct {
	mu sync.Mutex

	replies    map[string]*message.MailMessage
	replyOrder []string
	incoming   map[string]*message.MailMessage

	nextUID     uint32
	uidValidity uint32

	defaultHandler Handler
	handlers       map[string]Handler

	listeners map[string]ReplyListener

	journal Journal
}

// NewStore creates an empty mailbox. UIDVALIDITY is fixed at construction;
// this gateway never resets a mailbox in place.
func NewStore(uidValidity uint32) *Store {
	return &Store{
		replies:   make(map[string]*message.MailMessage),
		incoming:  make(map[string]*message.MailMessage),
		handlers:  make(map[string]Handler),
		listeners: make(map[string]ReplyListener),

		nextUID:     1,
		uidValidity: uidValidity,
	}
}

// SetJournal installs the optional delivery journal
func (s *Store) SetJournal(j Journal) {
	s.mu.Lock()
	s.journal = j
	s.mu.Unlock()
}

// SetDefaultHandler installs the handler for recipients with no prefix match
func (s *Store) SetDefaultHandler(h Handler) {
	s.mu.Lock()
	s.defaultHandler = h
	s.mu.Unlock()
}

// AddHandler registers a handler for one address local-part. The last
// registration for a given prefix wins.
func (s *Store) AddHandler(prefix string, h Handler) {
	s.mu.Lock()
	s.handlers[prefix] = h
	s.mu.Unlock()
}

// ReceiveIncoming records an incoming message and routes it to the first
// matching per-prefix handler in recipient-list order, falling back to the
// default handler. A message with no matching handler stays recorded but
// unhandled.
func (s *Store) ReceiveIncoming(msg *message.MailMessage) {
	s.mu.Lock()
	s.incoming[msg.MessageID] = msg

	var handler Handler
	for _, localPart := range msg.RecipientLocalParts() {
		if h, ok := s.handlers[localPart]; ok {
			handler = h
			break
		}
	}
	if handler == nil {
		handler = s.defaultHandler
	}
	journal := s.journal
	s.mu.Unlock()

	if journal != nil {
		if err := journal.Record("incoming", msg); err != nil {
			log.Printf("Journal error for incoming %s: %v", msg.MessageID, err)
		}
	}

	if handler == nil {
		log.Printf("No handler for message %s, recorded unhandled", msg.MessageID)
		return
	}
	handler(msg)
}

// StoreReply appends a reply to the mailbox: assigns the next UID, marks it
// \Recent and notifies every registered reply listener with the new total.
func (s *Store) StoreReply(msg *message.MailMessage) {
	s.mu.Lock()
	msg.UID = s.nextUID
	s.nextUID++

	if msg.Flags == nil {
		msg.Flags = message.NewFlagSet()
	}
	msg.Flags.Add(message.FlagRecent)

	s.replies[msg.MessageID] = msg
	s.replyOrder = append(s.replyOrder, msg.MessageID)

	total := len(s.replyOrder)
	notify := make([]ReplyListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		notify = append(notify, l)
	}
	journal := s.journal
	s.mu.Unlock()

	if journal != nil {
		if err := journal.Record("reply", msg); err != nil {
			log.Printf("Journal error for reply %s: %v", msg.MessageID, err)
		}
	}

	for _, l := range notify {
		l(total)
	}
}

// MessageCount returns the number of replies in the mailbox
func (s *Store) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replyOrder)
}

// IncomingCount returns the number of recorded incoming messages
func (s *Store) IncomingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.incoming)
}

// RecentCount returns the number of replies flagged \Recent
func (s *Store) RecentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, id := range s.replyOrder {
		if s.replies[id].Flags.Has(message.FlagRecent) {
			count++
		}
	}
	return count
}

// UnseenCount returns the number of replies lacking \Seen
func (s *Store) UnseenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, id := range s.replyOrder {
		if !s.replies[id].Flags.Has(message.FlagSeen) {
			count++
		}
	}
	return count
}

// FirstUnseen returns the 1-based sequence number of the first reply lacking
// \Seen, or 0 when every reply has been seen.
func (s *Store) FirstUnseen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range s.replyOrder {
		if !s.replies[id].Flags.Has(message.FlagSeen) {
			return i + 1
		}
	}
	return 0
}

// NextUID returns the UID the next stored reply will receive
func (s *Store) NextUID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextUID
}

// UIDValidity returns the mailbox UIDVALIDITY value
func (s *Store) UIDValidity() uint32 {
	return s.uidValidity
}

// MessageBySeq returns the reply at a 1-based sequence number, or nil
func (s *Store) MessageBySeq(seq int) *message.MailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageBySeqLocked(seq)
}

func (s *Store) messageBySeqLocked(seq int) *message.MailMessage {
	if seq < 1 || seq > len(s.replyOrder) {
		return nil
	}
	return s.replies[s.replyOrder[seq-1]]
}

// MessageByUID returns the reply with the given UID, or nil
func (s *Store) MessageByUID(uid uint32) *message.MailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.replyOrder {
		if s.replies[id].UID == uid {
			return s.replies[id]
		}
	}
	return nil
}

// SeqForUID maps a UID to its current 1-based sequence number, or 0
func (s *Store) SeqForUID(uid uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range s.replyOrder {
		if s.replies[id].UID == uid {
			return i + 1
		}
	}
	return 0
}

// MessagesInRange returns the replies in a closed sequence-number range
func (s *Store) MessagesInRange(from, to int) []*message.MailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*message.MailMessage
	for seq := from; seq <= to; seq++ {
		if msg := s.messageBySeqLocked(seq); msg != nil {
			out = append(out, msg)
		}
	}
	return out
}

// IncomingByID returns a recorded incoming message for thread-context
// lookups; incoming messages are never exposed over IMAP.
func (s *Store) IncomingByID(messageID string) *message.MailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incoming[messageID]
}

// IncomingMessages returns a snapshot of all recorded incoming messages
func (s *Store) IncomingMessages() []*message.MailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*message.MailMessage, 0, len(s.incoming))
	for _, msg := range s.incoming {
		out = append(out, msg)
	}
	return out
}

// FlagsBySeq returns a copy of the flag set of the reply at a 1-based
// sequence number, or nil. Callers never see the live set; flag reads on a
// shared message would race with UpdateFlags on another connection.
func (s *Store) FlagsBySeq(seq int) message.FlagSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.messageBySeqLocked(seq)
	if msg == nil {
		return nil
	}
	return msg.Flags.Clone()
}

// UpdateFlags mutates the flag set of the reply at the given sequence
// number and returns a copy of the resulting set. Out-of-range sequence
// numbers are a no-op returning nil.
func (s *Store) UpdateFlags(seq int, add, remove []message.Flag) message.FlagSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.messageBySeqLocked(seq)
	if msg == nil {
		return nil
	}

	for _, f := range add {
		msg.Flags.Add(f)
	}
	for _, f := range remove {
		msg.Flags.Remove(f)
	}
	return msg.Flags.Clone()
}

// Expunge removes every reply flagged \Deleted, scanning in descending
// sequence order so earlier indices stay valid. The returned sequence
// numbers are from the numbering before any removal, ascending, as the IMAP
// EXPUNGE response requires.
func (s *Store) Expunge() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []int
	for i := len(s.replyOrder) - 1; i >= 0; i-- {
		id := s.replyOrder[i]
		if !s.replies[id].Flags.Has(message.FlagDeleted) {
			continue
		}
		removed = append(removed, i+1)
		delete(s.replies, id)
		s.replyOrder = append(s.replyOrder[:i], s.replyOrder[i+1:]...)
	}

	// Collected back-to-front; report ascending
	for i, j := 0, len(removed)-1; i < j; i, j = i+1, j-1 {
		removed[i], removed[j] = removed[j], removed[i]
	}
	return removed
}

// SearchAll returns every current sequence number
func (s *Store) SearchAll() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, len(s.replyOrder))
	for i := range s.replyOrder {
		out[i] = i + 1
	}
	return out
}

// SearchUnseen returns the sequence numbers of replies lacking \Seen
func (s *Store) SearchUnseen() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int
	for i, id := range s.replyOrder {
		if !s.replies[id].Flags.Has(message.FlagSeen) {
			out = append(out, i+1)
		}
	}
	return out
}

// AddReplyListener registers an IDLE push listener and returns its
// registration id for later removal.
func (s *Store) AddReplyListener(l ReplyListener) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.listeners[id] = l
	return id
}

// RemoveReplyListener deregisters an IDLE push listener. Connections must
// call this on DONE, LOGOUT and disconnect or the listener leaks along with
// the connection handle it writes to.
func (s *Store) RemoveReplyListener(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}

// ThreadCount returns the number of distinct conversation threads across
// incoming messages and replies.
func (s *Store) ThreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	roots := make(map[string]bool)
	for _, msg := range s.incoming {
		roots[msg.ThreadRoot()] = true
	}
	for _, id := range s.replyOrder {
		roots[s.replies[id].ThreadRoot()] = true
	}
	return len(roots)
}
