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

const restrictionDalName = "restriction_dal"

type RestrictionDal interface {
	// SaveRestriction saves the active restriction for a member.
	SaveRestriction(ctx context.Context, r *entities.Restriction) error

	// GetActiveRestriction gets the restriction for a member that has not been lifted.
	GetActiveRestriction(ctx context.Context, guildID, memberID string) (*entities.Restriction, error)
}

type restrictionDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewRestrictionDal creates a new restriction data access layer.
func NewRestrictionDal(l *slog.Logger, client *mongo.Client) RestrictionDal {
	l = l.With(slog.String(logging.KeyDal, restrictionDalName))

	if client == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &restrictionDalImpl{
		l:      l,
		client: client,
	}
}

func (r *restrictionDalImpl) collection() *mongo.Collection {
	return r.client.Database(mongoDatabase).Collection(collectionRestrictions)
}

// SaveRestriction upserts on guild, member and creation time so lifted restrictions are kept as history.
func (r *restrictionDalImpl) SaveRestriction(ctx context.Context, restriction *entities.Restriction) error {
	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(restrictionDalName, "save_restriction", mongoDatabase, collectionRestrictions).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(restrictionDalName, "save_restriction", mongoDatabase, collectionRestrictions))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{
		"guild_id":   restriction.GuildID,
		"member_id":  restriction.MemberID,
		"created_at": restriction.CreatedAt,
	}
	if _, err := r.collection().UpdateOne(ctx, filter, bson.M{"$set": restriction}, opts); err != nil {
		return fmt.Errorf("error saving restriction: %w", err)
	}
	return nil
}

// GetActiveRestriction gets the most recent restriction for the member that has not been lifted.
func (r *restrictionDalImpl) GetActiveRestriction(ctx context.Context, guildID, memberID string) (*entities.Restriction, error) {
	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(restrictionDalName, "get_active_restriction", mongoDatabase, collectionRestrictions).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(restrictionDalName, "get_active_restriction", mongoDatabase, collectionRestrictions))
	defer t.ObserveDuration()

	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	restriction := new(entities.Restriction)
	err := r.collection().FindOne(ctx, bson.M{
		"guild_id":  guildID,
		"member_id": memberID,
		"lifted_at": nil,
	}, opts).Decode(restriction)
	if err != nil {
		return nil, notFound(err, "restriction")
	}
	return restriction, nil
}
