package models

import "time"

// Document is a classified message as stored in the search index and
// returned by the query API.
type Document struct {
	MessageID string    `json:"messageId" db:"message_id"`
	AccountID string    `json:"accountId" db:"account_id"`
	Category  Category  `json:"category" db:"category"`
	Subject   string    `json:"subject" db:"subject"`
	FromName  string    `json:"fromName,omitempty" db:"from_name"`
	FromAddr  string    `json:"from" db:"from_addr"`
	ToAddrs   string    `json:"to" db:"to_addrs"`
	Date      time.Time `json:"date" db:"date"`
	BodyText  string    `json:"text" db:"body_text"`
	BodyHTML  string    `json:"html,omitempty" db:"body_html"`
}
