package rest

import (
	"encoding/json"
	"strconv"

	"github.com/terraskye/stroming"
)

type messageDTO struct {
	MessageType string          `json:"message_type"`
	Data        json.RawMessage `json:"data"`
}

type writeStreamRequest struct {
	Messages        []messageDTO `json:"messages" binding:"required"`
	ExpectedVersion string       `json:"expected_version"`
}

type writeResultResponse struct {
	Position string `json:"position"`
	Revision string `json:"revision"`
}

type streamMessageDTO struct {
	ID          string `json:"id"`
	Stream      string `json:"stream,omitempty"`
	MessageType string `json:"message_type"`
	Data        string `json:"data"`
	Position    string `json:"position"`
	Revision    string `json:"revision"`
}

type readStreamResponse struct {
	Revision string             `json:"revision"`
	Messages []streamMessageDTO `json:"messages"`
}

type readAllResponse struct {
	Messages []streamMessageDTO `json:"messages"`
}

func toStreamMessageDTO(m *stroming.Message, withStream bool) streamMessageDTO {
	dto := streamMessageDTO{
		ID:          m.ID,
		MessageType: m.MessageType,
		Data:        string(m.Data),
		Position:    strconv.FormatUint(m.Position.GlobalPosition, 10),
		Revision:    strconv.FormatUint(m.Position.Revision, 10),
	}
	if withStream {
		dto.Stream = m.StreamName
	}
	return dto
}
