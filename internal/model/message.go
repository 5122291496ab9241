package model

import "time"

// Message is a direct message between two users. The ID is an opaque string
// so both backing stores fit the same type: the relational store renders its
// AUTO_INCREMENT key as a decimal string, the document store uses the hex
// ObjectID it generated. An ID is unique within a store instance and is
// never reassigned after the message is deleted.
//
// Sender, Recipient and Text are immutable once the message is appended;
// messages are never updated in place. Timestamp is assigned by the server
// in UTC at append time.
type Message struct {
	ID        string    // messages.id / messages._id
	Sender    string    // messages.sender (username)
	Recipient string    // messages.recipient (username)
	Text      string    // messages.text
	Timestamp time.Time // messages.timestamp
}
