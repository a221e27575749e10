package ticketing

import (
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/yupil/pkg/entities"
)

var (
	// ErrNotATicket is returned when the channel has no ticket record.
	ErrNotATicket = errors.New("channel is not a ticket")

	// ErrInvalidTransition is returned when the ticket is not in a state the operation accepts.
	ErrInvalidTransition = errors.New("invalid ticket transition")

	// ErrArchivalFailed is returned when the transcript could not be stored. The channel is kept.
	ErrArchivalFailed = errors.New("transcript archival failed")

	// ErrCategoryUnreachable is returned when the helpdesk category cannot be used to create channels.
	ErrCategoryUnreachable = errors.New("helpdesk category unreachable")

	// ErrBusy is returned when another operation is already running on the same ticket.
	ErrBusy = errors.New("ticket is busy")
)

// TransitionError is returned when an operation does not accept the ticket's current state.
type TransitionError struct {
	// Ticket is the ticket number.
	Ticket int

	// State is the state the ticket was in.
	State entities.TicketState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: ticket #%d is %s", ErrInvalidTransition, e.Ticket, e.State)
}

// Is matches ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
