package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/iliyamo/direct-message-service/internal/model"
)

// MessageRepo is the MySQL-backed message store over the 'messages' table.
// AUTO_INCREMENT assigns the monotonic IDs; MySQL never reuses a value
// after a row is deleted, so IDs stay unique for the life of the store.
type MessageRepo struct {
	DB    *sql.DB
	Users UserExister
}

func NewMessageRepo(db *sql.DB, users UserExister) *MessageRepo {
	return &MessageRepo{DB: db, Users: users}
}

var _ MessageStore = (*MessageRepo)(nil)

// Append inserts a message after verifying the recipient exists.
func (r *MessageRepo) Append(ctx context.Context, sender, recipient, text string) (model.Message, error) {
	ok, err := r.Users.Exists(ctx, recipient)
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, ErrUnknownRecipient
	}
	ts := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (sender, recipient, text, timestamp) VALUES (?,?,?,?)",
		sender, recipient, text, ts)
	if err != nil {
		return model.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{
		ID:        strconv.FormatInt(id, 10),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		Timestamp: ts,
	}, nil
}

// ListForRecipient returns the recipient's messages in insertion order.
func (r *MessageRepo) ListForRecipient(ctx context.Context, username string) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,sender,recipient,text,timestamp FROM messages WHERE recipient=? ORDER BY id",
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		var (
			id int64
			m  model.Message
		)
		if err := rows.Scan(&id, &m.Sender, &m.Recipient, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		m.ID = strconv.FormatInt(id, 10)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get fetches a single message by ID.
func (r *MessageRepo) Get(ctx context.Context, id string) (model.Message, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return model.Message{}, ErrNotFound
	}
	var m model.Message
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,sender,recipient,text,timestamp FROM messages WHERE id=? LIMIT 1",
		n).Scan(&n, &m.Sender, &m.Recipient, &m.Text, &m.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		return model.Message{}, err
	}
	m.ID = id
	return m, nil
}

// Delete removes a message row. When two requests race on the same ID the
// first DELETE to commit wins and the loser observes ErrNotFound.
func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM messages WHERE id=?", n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
