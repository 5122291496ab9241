package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/direct-message-service/internal/auth"
	"github.com/iliyamo/direct-message-service/internal/middleware"
	"github.com/iliyamo/direct-message-service/internal/model"
	"github.com/iliyamo/direct-message-service/internal/queue"
	"github.com/iliyamo/direct-message-service/internal/repository"
	"github.com/iliyamo/direct-message-service/internal/service"
)

// MessageHandler bundles dependencies for the message endpoints. Every
// handler follows the same pipeline: the bearer middleware has already
// authenticated the caller, then the ownership policy is consulted, then
// the store is touched, then the outcome is shaped into a response.
type MessageHandler struct {
	Users    repository.UserStore
	Messages repository.MessageStore
	Policy   *auth.Policy
	// Publish is invoked asynchronously after a successful send. Nil
	// disables event publishing (tests, memory-only deployments).
	Publish func(queue.MessageSentEvent)
}

func NewMessageHandler(users repository.UserStore, messages repository.MessageStore, policy *auth.Policy) *MessageHandler {
	return &MessageHandler{
		Users:    users,
		Messages: messages,
		Policy:   policy,
		Publish:  func(ev queue.MessageSentEvent) { _ = service.PublishMessageSent(ev) },
	}
}

// ----- DTOs -----

type sendReq struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

type deleteReq struct {
	MessageID string `json:"message_id"`
}

type messageResp struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type messagesResp struct {
	Messages []messageResp `json:"messages"`
}

func toMessageResp(m model.Message) messageResp {
	return messageResp{
		ID:        m.ID,
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}

// Send appends a message sent as the path user. The caller must be that
// user or the admin; the recorded sender is always the path user. A
// message.sent event is published after the append, fire-and-forget.
func (h *MessageHandler) Send(c echo.Context) error {
	requester := middleware.CurrentUsername(c)
	asUser := c.Param("username")

	if !h.Policy.CanActOn(requester, asUser) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req sendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Recipient = strings.TrimSpace(req.Recipient)
	if req.Recipient == "" || req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient/text required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.Exists(ctx, asUser)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "sender not found"})
	}

	m, err := h.Messages.Append(ctx, asUser, req.Recipient, req.Text)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownRecipient) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recipient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}

	if h.Publish != nil {
		go h.Publish(queue.MessageSentEvent{
			MessageID: m.ID,
			Sender:    m.Sender,
			Recipient: m.Recipient,
			SentAt:    m.Timestamp.Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "Message sent", "message_id": m.ID})
}

// List returns all messages addressed to the path user in insertion order.
// Zero messages is a success with an empty list; only the absence of the
// user itself is a 404.
func (h *MessageHandler) List(c echo.Context) error {
	requester := middleware.CurrentUsername(c)
	username := c.Param("username")

	if !h.Policy.CanActOn(requester, username) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.Exists(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	msgs, err := h.Messages.ListForRecipient(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}

	out := messagesResp{Messages: make([]messageResp, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, toMessageResp(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Delete removes a message by the id in the request body. The resource
// owner for the ownership check is the message's sender.
func (h *MessageHandler) Delete(c echo.Context) error {
	var req deleteReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.MessageID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message_id required"})
	}
	return h.deleteByID(c, strings.TrimSpace(req.MessageID))
}

// DeleteByID removes a message addressed by the path id.
func (h *MessageHandler) DeleteByID(c echo.Context) error {
	return h.deleteByID(c, c.Param("id"))
}

func (h *MessageHandler) deleteByID(c echo.Context, id string) error {
	requester := middleware.CurrentUsername(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if !h.Policy.CanActOn(requester, m.Sender) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only delete your own messages"})
	}

	if err := h.Messages.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// lost the race against a concurrent delete
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Message deleted"})
}
