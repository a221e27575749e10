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

const panelDalName = "panel_dal"

type PanelDal interface {
	// SavePanel saves a panel. There is one panel per guild and action.
	SavePanel(ctx context.Context, panel *entities.Panel) error

	// GetPanels gets every panel in the guild.
	GetPanels(ctx context.Context, guildID string) ([]*entities.Panel, error)
}

type panelDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewPanelDal creates a new panel data access layer.
func NewPanelDal(l *slog.Logger, client *mongo.Client) PanelDal {
	l = l.With(slog.String(logging.KeyDal, panelDalName))

	if client == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &panelDalImpl{
		l:      l,
		client: client,
	}
}

func (p *panelDalImpl) SavePanel(ctx context.Context, panel *entities.Panel) error {
	collection := p.client.Database(mongoDatabase).Collection(collectionPanels)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(panelDalName, "save_panel", mongoDatabase, collectionPanels).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(panelDalName, "save_panel", mongoDatabase, collectionPanels))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"guild_id": panel.GuildID, "action": panel.Action}, bson.M{"$set": panel}, opts)
	if err != nil {
		return fmt.Errorf("error saving panel: %w", err)
	}
	return nil
}

func (p *panelDalImpl) GetPanels(ctx context.Context, guildID string) ([]*entities.Panel, error) {
	collection := p.client.Database(mongoDatabase).Collection(collectionPanels)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(panelDalName, "get_panels", mongoDatabase, collectionPanels).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(panelDalName, "get_panels", mongoDatabase, collectionPanels))
	defer t.ObserveDuration()

	cur, err := collection.Find(ctx, bson.M{"guild_id": guildID})
	if err != nil {
		return nil, fmt.Errorf("error finding panels: %w", err)
	}

	panels := make([]*entities.Panel, 0)
	if err := cur.All(ctx, &panels); err != nil {
		return nil, fmt.Errorf("error decoding panels: %w", err)
	}
	return panels, nil
}
