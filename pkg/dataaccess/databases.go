package dataaccess

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

const mongoDatabase = "yupil"

const (
	collectionTickets      = "tickets"
	collectionRestrictions = "restrictions"
	collectionPanels       = "panels"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// notFound maps the mongo no documents error onto ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("error getting %s: %w", what, err)
}
