package archive

import (
	"path/filepath"
	"testing"

	"mailgate/internal/message"
)

func TestJournalRecordAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	msg := &message.MailMessage{
		MessageID: "<m1@test>",
		From:      "alice@example.com",
		To:        []string{"counsel@impress.local"},
		Subject:   "Hi",
		Body:      "Hello",
		Flags:     message.NewFlagSet(),
	}

	if err := j.Record("incoming", msg); err != nil {
		t.Fatalf("Record incoming failed: %v", err)
	}
	if err := j.Record("reply", msg); err != nil {
		t.Fatalf("Record reply failed: %v", err)
	}

	count, err := j.Count("")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 entries, got %d", count)
	}

	incoming, err := j.Count("incoming")
	if err != nil {
		t.Fatalf("Count incoming failed: %v", err)
	}
	if incoming != 1 {
		t.Errorf("Expected 1 incoming entry, got %d", incoming)
	}
}

func TestJournalPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	msg := &message.MailMessage{MessageID: "<m2@test>", Flags: message.NewFlagSet()}
	if err := j.Record("reply", msg); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	j.Close()

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer j2.Close()

	count, err := j2.Count("reply")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 reply entry after reopen, got %d", count)
	}
}
