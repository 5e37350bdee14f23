package stroming

// MessageData is the content of a message as supplied by a writer.
type MessageData struct {
	MessageType string
	Data        []byte
}

// Position locates a written message: its place in the whole store and its
// place within its own stream.
type Position struct {
	GlobalPosition uint64
	Revision       uint64
}

// Message is an immutable record appended to a stream.
type Message struct {
	ID          string
	StreamName  string
	MessageType string
	Data        []byte
	Position    Position
}

// Clone returns a copy of m that does not share its payload.
func (m *Message) Clone() *Message {
	c := *m
	if m.Data != nil {
		c.Data = append([]byte(nil), m.Data...)
	}
	return &c
}
