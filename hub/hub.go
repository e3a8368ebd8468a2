// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package hub

import (
	"log/slog"
	"sync"

	"github.com/danielhkuo/classpulse/models"
)

// Conn is a live participant session. Send must not block; transport
// implementations buffer and drop the connection when the buffer fills
// (delivery is best effort, late joiners recover via the active snapshot).
type Conn interface {
	ID() string
	Send(e models.Event)
}

// Hub tracks connected participants and their group memberships.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]Conn
	member map[string][]string // conn id -> joined groups
}

func New() *Hub {
	return &Hub{
		groups: make(map[string]map[string]Conn),
		member: make(map[string][]string),
	}
}

// Join adds a connection to the groups implied by its role and optional
// class affiliation. Joining again replaces the previous membership.
func (h *Hub) Join(c Conn, role, affiliation string) {
	var groups []string
	switch role {
	case models.RoleVoter:
		groups = append(groups, models.GroupVoters)
	case models.RolePresenter:
		groups = append(groups, models.GroupPresenters)
	default:
		slog.Warn("join with unknown role ignored", "conn_id", c.ID(), "role", role)
		return
	}
	if affiliation != "" {
		groups = append(groups, models.ClassGroup(affiliation))
	}

	h.mu.Lock()
	h.dropLocked(c.ID())
	for _, g := range groups {
		conns, ok := h.groups[g]
		if !ok {
			conns = make(map[string]Conn)
			h.groups[g] = conns
		}
		conns[c.ID()] = c
	}
	h.member[c.ID()] = groups
	h.mu.Unlock()

	slog.Info("connection joined", "conn_id", c.ID(), "role", role, "affiliation", affiliation)
}

// Leave removes a connection from all groups it joined.
func (h *Hub) Leave(c Conn) {
	h.mu.Lock()
	h.dropLocked(c.ID())
	h.mu.Unlock()
}

// Publish delivers the event to exactly the connections joined to the
// group at publish time. There is no retroactive delivery.
func (h *Hub) Publish(group string, e models.Event) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.groups[group]))
	for _, c := range h.groups[group] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Send(e)
	}
}

// Count reports current membership of a group.
func (h *Hub) Count(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) dropLocked(connID string) {
	for _, g := range h.member[connID] {
		delete(h.groups[g], connID)
		if len(h.groups[g]) == 0 {
			delete(h.groups, g)
		}
	}
	delete(h.member, connID)
}
