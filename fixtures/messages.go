package fixtures

import (
	"fmt"
	"sync/atomic"

	es "github.com/terraskye/stroming"
)

var idCounter atomic.Uint64

// NextID returns a process-unique, readable message ID.
func NextID() string {
	return fmt.Sprintf("fixture-%d", idCounter.Add(1))
}

// Messages builds one message per type with an empty JSON object as payload.
func Messages(types ...string) []es.MessageData {
	out := make([]es.MessageData, len(types))
	for i, t := range types {
		out[i] = es.MessageData{MessageType: t, Data: []byte("{}")}
	}
	return out
}

// MessageOption is a functional option for configuring a Message.
type MessageOption func(*es.Message)

// NewMessage creates a stored Message of the given type.
func NewMessage(messageType string, opts ...MessageOption) es.Message {
	m := es.Message{
		ID:          NextID(),
		MessageType: messageType,
		Data:        []byte("{}"),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// WithData sets the payload.
func WithData(data string) MessageOption {
	return func(m *es.Message) {
		m.Data = []byte(data)
	}
}

// WithStream sets the owning stream name.
func WithStream(name string) MessageOption {
	return func(m *es.Message) {
		m.StreamName = name
	}
}

// WithPosition sets the global position and revision.
func WithPosition(global, revision uint64) MessageOption {
	return func(m *es.Message) {
		m.Position = es.Position{GlobalPosition: global, Revision: revision}
	}
}
