// Package sse provides Server-Sent Events client management for draft change notifications.
package sse

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TopicDraft carries events about the single stored draft.
const TopicDraft = "draft"

const (
	EventConnected = "connected"
	EventSaved     = "saved"
	EventDeleted   = "deleted"
	EventChanged   = "changed"
)

type Event struct {
	Name string
	Data string
}

// Write encodes ev in the text/event-stream format.
func (ev Event) Write(w io.Writer) error {
	var b strings.Builder
	if ev.Name != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Name)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

type Client struct {
	ID    string
	Msg   chan Event
	Topic string
}

func NewClient(topic string) *Client {
	return &Client{
		ID:    uuid.New().String(),
		Msg:   make(chan Event, 8),
		Topic: topic,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends ev to every client on topic. Clients that are not keeping up
// miss the event.
func (s *SSEClients) Broadcast(topic string, ev Event) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := 0
	for client := range s.clients {
		if client.Topic != topic {
			continue
		}
		select {
		case client.Msg <- ev:
			sent++
		default:
		}
	}
	return sent
}
