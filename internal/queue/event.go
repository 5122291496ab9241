// Package queue defines message payloads exchanged over the message broker.
package queue

// MessageSentEvent is published when a direct message is successfully
// appended. It carries enough for downstream consumers to log or notify
// without querying the message store. The text itself is deliberately not
// included so the broker never sees message contents.
type MessageSentEvent struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	SentAt    string `json:"sent_at"`
}
