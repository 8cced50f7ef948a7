package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mailgate/internal/message"
)

// Journal is a write-only delivery journal on SQLite. Every accepted
// incoming message and every stored reply is appended; the mailbox itself
// stays in memory and is never rebuilt from the journal.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at the given path
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS archive (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		message_id TEXT NOT NULL,
		sender TEXT,
		recipients TEXT,
		subject TEXT,
		body TEXT,
		recorded_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends one message to the journal. kind is "incoming" or "reply".
func (j *Journal) Record(kind string, msg *message.MailMessage) error {
	recipients := ""
	for i, r := range msg.To {
		if i > 0 {
			recipients += ", "
		}
		recipients += r
	}

	_, err := j.db.Exec(
		"INSERT INTO archive (kind, message_id, sender, recipients, subject, body, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		kind, msg.MessageID, msg.From, recipients, msg.Subject, msg.Body,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Count returns the number of journal entries of the given kind, or of all
// kinds when kind is empty.
func (j *Journal) Count(kind string) (int, error) {
	var count int
	var err error
	if kind == "" {
		err = j.db.QueryRow("SELECT COUNT(*) FROM archive").Scan(&count)
	} else {
		err = j.db.QueryRow("SELECT COUNT(*) FROM archive WHERE kind = ?", kind).Scan(&count)
	}
	return count, err
}

// Close closes the journal database
func (j *Journal) Close() error {
	return j.db.Close()
}
