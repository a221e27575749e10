package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/yupil/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketDalName = "ticket_dal"

type TicketDal interface {
	// SaveTicket saves a ticket.
	SaveTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetTicket gets a ticket by the channel backing it.
	GetTicket(ctx context.Context, guildID string, channelID string) (*entities.Ticket, error)

	// GetLatestTicket gets the ticket with the highest number.
	GetLatestTicket(ctx context.Context, guildID string) (*entities.Ticket, error)

	// GetTicketsByState gets every ticket in one of the given states.
	GetTicketsByState(ctx context.Context, guildID string, states ...entities.TicketState) ([]*entities.Ticket, error)
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(l *slog.Logger, client *mongo.Client) TicketDal {
	l = l.With(slog.String(logging.KeyDal, ticketDalName))

	if client == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDal{
		l:      l,
		client: client,
	}
}

func (d *ticketDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionTickets)
}

func (d *ticketDal) SaveTicket(ctx context.Context, ticket *entities.Ticket) error {
	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "save_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "save_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx, bson.M{"guild_id": ticket.GuildID, "channel_id": ticket.ChannelID}, bson.M{"$set": ticket}, opts)
	if err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) GetTicket(ctx context.Context, guildID string, channelID string) (*entities.Ticket, error) {
	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":   guildID,
		"channel_id": channelID,
	}).Decode(ticket)
	if err != nil {
		return nil, notFound(err, "ticket")
	}

	return ticket, nil
}

func (d *ticketDal) GetLatestTicket(ctx context.Context, guildID string) (*entities.Ticket, error) {
	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_latest_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_latest_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	opts := options.FindOne().SetSort(bson.M{"id": -1})

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID}, opts).Decode(ticket)
	if err != nil {
		return nil, notFound(err, "latest ticket")
	}

	return ticket, nil
}

func (d *ticketDal) GetTicketsByState(ctx context.Context, guildID string, states ...entities.TicketState) ([]*entities.Ticket, error) {
	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_tickets_by_state", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_tickets_by_state", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	cur, err := d.collection().Find(ctx, bson.M{
		"guild_id": guildID,
		"state":    bson.M{"$in": states},
	}, options.Find().SetSort(bson.M{"id": 1}))
	if err != nil {
		return nil, fmt.Errorf("error finding tickets: %w", err)
	}

	tickets := make([]*entities.Ticket, 0)
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}

	return tickets, nil
}
