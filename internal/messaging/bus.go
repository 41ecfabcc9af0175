// Package messaging distributes combat messages over NATS.
//
// Character messages go to <prefix>.char.<id> and room messages to
// <prefix>.room.<room>. Session front ends subscribe to the subjects of the
// characters they host.
package messaging

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
)

// DefaultPrefix is the subject prefix when none is configured.
const DefaultPrefix = "mud"

// Envelope is the payload of every published message.
type Envelope struct {
	// To is the recipient character ID; empty for room messages.
	To   string `json:"to,omitempty"`
	Room string `json:"room,omitempty"`
	Text string `json:"text"`
	// Exclude lists character IDs in Room that must not see Text.
	Exclude []string `json:"exclude,omitempty"`
}

// Excludes reports whether id is excluded from the message.
func (e Envelope) Excludes(id string) bool {
	for _, x := range e.Exclude {
		if x == id {
			return true
		}
	}
	return false
}

// Bus publishes combat messages to NATS. It implements combat.Messenger.
//
// Publish failures are logged at Warn; the combat core never waits on delivery.
type Bus struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

var _ combat.Messenger = (*Bus)(nil)

// NewBus wraps conn. An empty prefix uses DefaultPrefix.
//
// Precondition: conn must be non-nil.
func NewBus(conn *nats.Conn, prefix string, logger *zap.Logger) *Bus {
	if conn == nil {
		panic("messaging.NewBus: conn must not be nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{conn: conn, prefix: prefix, logger: logger}
}

// CharSubject returns the subject for messages to character id.
func (b *Bus) CharSubject(id string) string {
	return b.prefix + ".char." + token(id)
}

// RoomSubject returns the subject for messages to room id.
func (b *Bus) RoomSubject(id string) string {
	return b.prefix + ".room." + token(id)
}

// token makes s safe as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// ToChar implements combat.Messenger.
func (b *Bus) ToChar(c *combat.Combatant, msg string) {
	if c == nil || c.IsNPC() {
		return
	}
	b.publish(b.CharSubject(c.ID), Envelope{To: c.ID, Room: c.Room, Text: msg})
}

// ToRoom implements combat.Messenger.
func (b *Bus) ToRoom(roomID, msg string, exclude ...*combat.Combatant) {
	env := Envelope{Room: roomID, Text: msg}
	for _, c := range exclude {
		if c != nil {
			env.Exclude = append(env.Exclude, c.ID)
		}
	}
	b.publish(b.RoomSubject(roomID), env)
}

func (b *Bus) publish(subject string, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("encoding message", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.Warn("publishing message",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// Subscribe delivers every envelope published on subject to handler.
// Undecodable payloads are logged and dropped. The returned func unsubscribes.
func (b *Bus) Subscribe(subject string, handler func(Envelope)) (func(), error) {
	sub, err := b.conn.Subscribe(subject, func(m *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			b.logger.Warn("dropping malformed message",
				zap.String("subject", m.Subject),
				zap.Error(err),
			)
			return
		}
		handler(env)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %q: %w", subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Debug("unsubscribe", zap.String("subject", subject), zap.Error(err))
		}
	}, nil
}

// Flush waits until the server has processed every published message.
func (b *Bus) Flush() error {
	return b.conn.Flush()
}
