package models

import "time"

// Account holds the IMAP settings for one monitored mailbox. The account's
// address doubles as its identifier throughout the pipeline.
type Account struct {
	ID       string // the account's email address
	User     string
	Password string
	Host     string
	Port     int
	TLS      bool
}

// Address is a parsed email address with an optional display name.
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Message is a parsed email as it travels through the ingestion pipeline.
// It is immutable once produced by the parser.
type Message struct {
	MessageID string    // Message-ID header, or a generated fallback
	AccountID string    // originating account's address
	SeqNum    uint32    // IMAP sequence number within the originating session
	Subject   string
	From      Address
	To        []Address
	Date      time.Time
	BodyText  string
	BodyHTML  string
}
