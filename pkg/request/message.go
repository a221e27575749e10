package request

import "fmt"

// Message is a JSON message response.
type Message struct {
	Message string `json:"Message"`
}

// NewMessage creates a new Message. The message is formatted when args are given.
func NewMessage(message string, args ...any) *Message {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &Message{
		Message: message,
	}
}

// MessageError is a message response carrying the error that caused it.
type MessageError struct {
	Message string `json:"Message"`
	Error   string `json:"Error"`
}

// NewMessageError creates a new MessageError.
func NewMessageError(message string, err error) *MessageError {
	return &MessageError{
		Message: message,
		Error:   err.Error(),
	}
}
