// Package repository defines the store contracts for users and messages
// together with the error values shared by all implementations. The
// sentinels let handlers distinguish failure scenarios without inspecting
// backend-specific errors: ErrNotFound maps to HTTP 404,
// ErrUsernameExists to 400 with its own error body, and
// ErrUnknownRecipient to 404 on the send endpoint.
package repository

import "errors"

// ErrNotFound is returned when a user or message with the given key does
// not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned by Create when the username is already
// taken. Registration handlers translate this into an HTTP 400 response
// with a dedicated error body.
var ErrUsernameExists = errors.New("username already exists")

// ErrUnknownRecipient is returned by Append when the recipient username is
// absent from the credential store at send time.
var ErrUnknownRecipient = errors.New("unknown recipient")
