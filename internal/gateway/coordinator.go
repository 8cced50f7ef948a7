package gateway

import (
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"mailgate/internal/archive"
	"mailgate/internal/conf"
	"mailgate/internal/imap"
	"mailgate/internal/message"
	"mailgate/internal/smtp"
	"mailgate/internal/store"
	"mailgate/internal/tlsconf"
)

// Coordinator owns the shared mailbox store and both protocol servers and
// manages their lifecycle as one unit.
type Coordinator struct {
	config *conf.Config
	store  *store.Store

	smtpServer *smtp.Server
	imapServer *imap.Server

	journal *archive.Journal
}

// Status is a point-in-time snapshot of the gateway
type Status struct {
	SMTPRunning  bool
	IMAPRunning  bool
	SMTPPort     int
	IMAPPort     int
	MessageCount int
	ThreadCount  int
}

// NewCoordinator wires the store, the TLS identity and both servers from the
// configuration. Nothing listens until Start.
func NewCoordinator(cfg *conf.Config) (*Coordinator, error) {
	if cfg == nil {
		cfg = conf.DefaultConfig()
	}

	// UIDVALIDITY changes across restarts so clients discard cached UIDs
	st := store.NewStore(uint32(time.Now().Unix()))

	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		if cfg.TLSRequired {
			var err error
			tlsConfig, err = tlsconf.ServerConfig()
			if err != nil {
				return nil, fmt.Errorf("TLS required but unavailable: %w", err)
			}
		} else {
			tlsConfig = tlsconf.ServerConfigOrPlaintext()
		}
	}

	c := &Coordinator{
		config: cfg,
		store:  st,
	}

	if cfg.ArchivePath != "" {
		journal, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("opening archive journal: %w", err)
		}
		c.journal = journal
		st.SetJournal(journal)
	}

	smtpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.SMTPPort)
	imapAddr := fmt.Sprintf("127.0.0.1:%d", cfg.IMAPPort)

	c.smtpServer = smtp.NewServer(smtpAddr, cfg.Hostname, cfg.MaxMessageSize, st, tlsConfig)
	c.imapServer = imap.NewServer(imapAddr, cfg.Hostname, st, tlsConfig)

	return c, nil
}

// Store exposes the shared mailbox store for embedding applications
func (c *Coordinator) Store() *store.Store {
	return c.store
}

// SetTaskHandler installs the default handler invoked for every incoming
// message that no per-address handler claims.
func (c *Coordinator) SetTaskHandler(h store.Handler) {
	c.store.SetDefaultHandler(h)
}

// AddHandler routes incoming mail for one address local-part to a handler
func (c *Coordinator) AddHandler(prefix string, h store.Handler) {
	c.store.AddHandler(prefix, h)
}

// StoreReply makes a reply visible to IMAP clients
func (c *Coordinator) StoreReply(msg *message.MailMessage) {
	c.store.StoreReply(msg)
}

// Start binds both servers. If either fails to bind, the other is shut down
// and the first error is returned.
func (c *Coordinator) Start() error {
	var g errgroup.Group
	g.Go(c.smtpServer.Start)
	g.Go(c.imapServer.Start)

	if err := g.Wait(); err != nil {
		c.Stop()
		return err
	}

	log.Printf("Gateway up: SMTP on %d, IMAP on %d", c.config.SMTPPort, c.config.IMAPPort)
	return nil
}

// Stop shuts down both servers and closes the journal. Safe to call on a
// partially started coordinator.
func (c *Coordinator) Stop() {
	if c.smtpServer != nil {
		c.smtpServer.Shutdown()
	}
	if c.imapServer != nil {
		c.imapServer.Shutdown()
	}
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			log.Printf("Closing archive journal: %v", err)
		}
		c.journal = nil
	}
}

// Status reports whether each server is accepting connections and the
// current mailbox counters.
func (c *Coordinator) Status() Status {
	return Status{
		SMTPRunning:  c.smtpServer.Running(),
		IMAPRunning:  c.imapServer.Running(),
		SMTPPort:     c.config.SMTPPort,
		IMAPPort:     c.config.IMAPPort,
		MessageCount: c.store.MessageCount(),
		ThreadCount:  c.store.ThreadCount(),
	}
}
