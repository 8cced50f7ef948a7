package gateway

import (
	"net"
	"testing"
	"time"

	"mailgate/internal/conf"
	"mailgate/internal/message"
)

func testConfig() *conf.Config {
	cfg := conf.DefaultConfig()
	cfg.SMTPPort = 0
	cfg.IMAPPort = 0
	cfg.TLSEnabled = false
	return cfg
}

func TestStartAndStop(t *testing.T) {
	c, err := NewCoordinator(testConfig())
	if err != nil {
		t.Fatalf("NewCoordinator failed: %v", err)
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	status := c.Status()
	if !status.SMTPRunning {
		t.Error("SMTP server not running after Start")
	}
	if !status.IMAPRunning {
		t.Error("IMAP server not running after Start")
	}

	c.Stop()
	status = c.Status()
	if status.SMTPRunning || status.IMAPRunning {
		t.Error("Servers still running after Stop")
	}
}

func TestStartFailsWhenPortTaken(t *testing.T) {
	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Could not open blocking listener: %v", err)
	}
	defer blocker.Close()

	cfg := testConfig()
	cfg.SMTPPort = blocker.Addr().(*net.TCPAddr).Port

	c, err := NewCoordinator(cfg)
	if err != nil {
		t.Fatalf("NewCoordinator failed: %v", err)
	}

	if err := c.Start(); err == nil {
		c.Stop()
		t.Fatal("Expected Start to fail on occupied port")
	}
}

func TestHandlerReceivesIncomingAndRepliesShowUp(t *testing.T) {
	c, err := NewCoordinator(testConfig())
	if err != nil {
		t.Fatalf("NewCoordinator failed: %v", err)
	}

	received := make(chan *message.MailMessage, 1)
	c.SetTaskHandler(func(msg *message.MailMessage) {
		received <- msg

		c.StoreReply((&message.Response{
			From:    "counsel@impress.local",
			Subject: "Re: " + msg.Subject,
			Body:    "Understood",
		}).ToMessage(msg))
	})

	incoming := &message.MailMessage{
		ID:        "in1",
		MessageID: "<in1@example.com>",
		From:      "alice@example.com",
		To:        []string{"counsel@impress.local"},
		Subject:   "Question",
		Body:      "How do I proceed?",
		Flags:     message.NewFlagSet(),
	}
	c.Store().ReceiveIncoming(incoming)

	select {
	case msg := <-received:
		if msg.Subject != "Question" {
			t.Errorf("Handler got subject %q", msg.Subject)
		}
	case <-time.After(time.Second):
		t.Fatal("Handler never invoked")
	}

	status := c.Status()
	if status.MessageCount != 1 {
		t.Errorf("Expected 1 stored reply, got %d", status.MessageCount)
	}
	if status.ThreadCount != 1 {
		t.Errorf("Expected incoming and reply to share a thread, got %d", status.ThreadCount)
	}
}

func TestArchiveJournalWired(t *testing.T) {
	cfg := testConfig()
	cfg.ArchivePath = t.TempDir() + "/journal.db"

	c, err := NewCoordinator(cfg)
	if err != nil {
		t.Fatalf("NewCoordinator with archive failed: %v", err)
	}
	defer c.Stop()

	c.StoreReply(&message.MailMessage{
		ID:        "r1",
		MessageID: "<r1@impress.local>",
		From:      "counsel@impress.local",
		To:        []string{"alice@example.com"},
		Subject:   "s",
		Body:      "b",
		Flags:     message.NewFlagSet(),
	})

	count, err := c.journal.Count("reply")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 journaled reply, got %d", count)
	}
}
