// Package client holds the chat-session state the engine reads when it
// accepts a message: who is sending, and which channels are joined.
package client

import (
	"strings"
	"sync"
)

// Session tracks the sender identity and the ordered set of joined
// channels. Safe for concurrent use; join order is preserved so the
// first joined channel stays the default destination.
type Session struct {
	identity string

	mu       sync.RWMutex
	channels []string
}

func NewSession(identity string) *Session {
	return &Session{identity: strings.TrimSpace(identity)}
}

func (s *Session) Identity() string {
	return s.identity
}

// Join adds a channel to the joined set. Re-joining is a no-op and does
// not change the channel's position.
func (s *Session) Join(channel string) {
	normalized := strings.TrimSpace(channel)
	if normalized == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.channels {
		if existing == normalized {
			return
		}
	}
	s.channels = append(s.channels, normalized)
}

func (s *Session) Part(channel string) {
	normalized := strings.TrimSpace(channel)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.channels {
		if existing == normalized {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return
		}
	}
}

// Destination returns the first joined channel, matching where the chat
// client directs messages by default. ok is false when nothing is joined.
func (s *Session) Destination() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.channels) == 0 {
		return "", false
	}
	return s.channels[0], true
}

// Channels returns a copy of the joined channels in join order.
func (s *Session) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]string, len(s.channels))
	copy(channels, s.channels)
	return channels
}
