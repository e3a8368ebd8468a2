// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/danielhkuo/classpulse/auth"
	"github.com/danielhkuo/classpulse/cliparse"
	"github.com/danielhkuo/classpulse/hub"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/poll"
	"github.com/danielhkuo/classpulse/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

// WSHandler upgrades connections and speaks the poll event protocol.
type WSHandler struct {
	manager  *poll.Manager
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(manager *poll.Manager, h *hub.Hub, cfg cliparse.Config) *WSHandler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	allowAll := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &WSHandler{
		manager: manager,
		hub:     h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowAll || allowed[origin]
			},
		},
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		h:    h,
		conn: conn,
		send: make(chan models.Event, sendBufferSize),
		done: make(chan struct{}),
	}

	slog.Info("connection established", "conn_id", c.id, "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump()
}

// client is one websocket session. role/identity/affiliation are only
// touched from the read goroutine; Send may be called from any goroutine.
type client struct {
	id   string
	h    *WSHandler
	conn *websocket.Conn
	send chan models.Event
	done chan struct{}

	role        string
	identity    string
	affiliation string
}

func (c *client) ID() string { return c.id }

// Send enqueues an event, best effort. A consumer that cannot keep up has
// its connection dropped; it can reconnect and re-join to recover state.
func (c *client) Send(e models.Event) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- e:
	default:
		slog.Warn("send buffer full, dropping connection", "conn_id", c.id)
		c.shutdown()
	}
}

func (c *client) shutdown() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *client) readPump() {
	defer func() {
		c.h.hub.Leave(c)
		c.shutdown()
		c.conn.Close()
		slog.Info("connection closed", "conn_id", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev models.ClientEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		c.dispatch(ev)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case e := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) dispatch(ev models.ClientEvent) {
	switch ev.Event {
	case models.EventJoin:
		c.handleJoin(ev.Data)
	case models.EventCreatePoll:
		c.handleCreatePoll(ev.Data)
	case models.EventSubmitVote:
		c.handleSubmitVote(ev.Data)
	case models.EventClosePollNow:
		c.handleClosePoll(ev.Data)
	default:
		slog.Warn("unknown event", "conn_id", c.id, "event", ev.Event)
	}
}

func (c *client) handleJoin(data json.RawMessage) {
	var req models.JoinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("invalid join payload", "conn_id", c.id, "error", err)
		return
	}
	if req.Role != models.RoleVoter && req.Role != models.RolePresenter {
		slog.Warn("join with unknown role", "conn_id", c.id, "role", req.Role)
		return
	}

	c.role = req.Role
	c.identity = req.Identity
	c.affiliation = req.Affiliation

	// Voters without a declared identity get a random token as their
	// voter key, so dedup still works for anonymous participants.
	if c.role == models.RoleVoter && c.identity == "" {
		token, err := auth.GenerateVoterToken()
		if err != nil {
			slog.Error("failed to generate voter token", "conn_id", c.id, "error", err)
			return
		}
		c.identity = token
	}

	c.h.hub.Join(c, c.role, c.affiliation)

	// Late-join replay: the join ack carries the active snapshot (or null),
	// and voters additionally get the regular pollOpened event.
	var active *models.PollSnapshot
	if c.role == models.RoleVoter {
		active = c.h.manager.ActiveSnapshot()
	}
	c.Send(models.Event{Event: models.EventJoined, Data: models.JoinedEvent{
		Role:     c.role,
		Identity: c.identity,
		Active:   active,
	}})
	if active != nil {
		c.Send(models.Event{Event: models.EventPollOpened, Data: *active})
	}
}

func (c *client) handleCreatePoll(data json.RawMessage) {
	if c.role != models.RolePresenter {
		c.reject(models.EventCreatePollRejected, "presenter role required")
		return
	}

	var req models.CreatePollRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reject(models.EventCreatePollRejected, "invalid payload")
		return
	}
	if req.Presenter == "" {
		req.Presenter = c.identity
	}

	pollID, err := c.h.manager.Create(context.Background(), poll.CreateRequest{
		Question:  req.Question,
		Options:   req.Options,
		TimerSec:  req.TimerSec,
		Presenter: req.Presenter,
	})
	if err != nil {
		if errors.Is(err, poll.ErrValidation) {
			c.reject(models.EventCreatePollRejected, err.Error())
		} else {
			slog.Error("create poll failed", "conn_id", c.id, "error", err)
			c.reject(models.EventCreatePollRejected, "server error")
		}
		return
	}

	c.Send(models.Event{Event: models.EventCreatePollAccepted, Data: models.CreatePollAcceptedEvent{PollID: pollID}})
}

func (c *client) handleSubmitVote(data json.RawMessage) {
	if c.role != models.RoleVoter {
		c.reject(models.EventVoteRejected, "voter role required")
		return
	}

	var req models.SubmitVoteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reject(models.EventVoteRejected, "invalid payload")
		return
	}

	voterID := req.VoterID
	if voterID == "" {
		voterID = c.identity
	}

	_, err := c.h.manager.SubmitVote(context.Background(), req.PollID, req.OptionID, voterID)
	if err != nil {
		c.reject(models.EventVoteRejected, voteRejectReason(err))
		if !isDomainErr(err) {
			slog.Error("submit vote failed", "conn_id", c.id, "poll_id", req.PollID, "error", err)
		}
		return
	}

	c.Send(models.Event{Event: models.EventVoteAccepted, Data: models.VoteAcceptedEvent{PollID: req.PollID}})
}

func (c *client) handleClosePoll(data json.RawMessage) {
	if c.role != models.RolePresenter {
		slog.Warn("closePollNow from non-presenter ignored", "conn_id", c.id)
		return
	}

	var req models.ClosePollRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PollID == "" {
		slog.Warn("invalid closePollNow payload", "conn_id", c.id)
		return
	}

	if err := c.h.manager.Close(context.Background(), req.PollID, models.ReasonManual); err != nil {
		slog.Error("manual close failed", "conn_id", c.id, "poll_id", req.PollID, "error", err)
	}
}

// reject is a structured rejection unicast to this connection only;
// it never affects other connections.
func (c *client) reject(event, reason string) {
	c.Send(models.Event{Event: event, Data: models.RejectedEvent{Reason: reason}})
}

func voteRejectReason(err error) string {
	switch {
	case errors.Is(err, store.ErrPollNotFound):
		return "poll not found"
	case errors.Is(err, store.ErrPollClosed):
		return "poll closed"
	case errors.Is(err, store.ErrDuplicateVote):
		return "already voted"
	case errors.Is(err, store.ErrInvalidOption):
		return "invalid option"
	case errors.Is(err, poll.ErrValidation):
		return "invalid payload"
	default:
		return "server error"
	}
}

func isDomainErr(err error) bool {
	return errors.Is(err, store.ErrPollNotFound) ||
		errors.Is(err, store.ErrPollClosed) ||
		errors.Is(err, store.ErrDuplicateVote) ||
		errors.Is(err, store.ErrInvalidOption) ||
		errors.Is(err, poll.ErrValidation)
}
