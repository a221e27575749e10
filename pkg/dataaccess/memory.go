package dataaccess

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Jacobbrewer1/yupil/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
)

// MemoryStore keeps tickets, restrictions and panels in process memory. It is used when no MongoDB is
// configured and in tests. Nothing survives a restart.
type MemoryStore struct {
	mu sync.Mutex

	tickets      map[string]entities.Ticket
	restrictions []entities.Restriction
	panels       map[string]entities.Panel
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]entities.Ticket),
		panels:  make(map[string]entities.Panel),
	}
}

func (m *MemoryStore) SaveTicket(_ context.Context, ticket *entities.Ticket) error {
	monitoring.MemoryTotalRequests.WithLabelValues("save_ticket").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *ticket
	cp.Participants = append([]string(nil), ticket.Participants...)
	m.tickets[ticket.GuildID+"/"+ticket.ChannelID] = cp
	return nil
}

func (m *MemoryStore) GetTicket(_ context.Context, guildID string, channelID string) (*entities.Ticket, error) {
	monitoring.MemoryTotalRequests.WithLabelValues("get_ticket").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[guildID+"/"+channelID]
	if !ok {
		return nil, fmt.Errorf("ticket: %w", ErrNotFound)
	}
	t.Participants = append([]string(nil), t.Participants...)
	return &t, nil
}

func (m *MemoryStore) GetLatestTicket(_ context.Context, guildID string) (*entities.Ticket, error) {
	monitoring.MemoryTotalRequests.WithLabelValues("get_latest_ticket").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *entities.Ticket
	for _, t := range m.tickets {
		if t.GuildID != guildID {
			continue
		}
		if latest == nil || t.ID > latest.ID {
			cp := t
			latest = &cp
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("latest ticket: %w", ErrNotFound)
	}
	return latest, nil
}

func (m *MemoryStore) GetTicketsByState(_ context.Context, guildID string, states ...entities.TicketState) ([]*entities.Ticket, error) {
	monitoring.MemoryTotalRequests.WithLabelValues("get_tickets_by_state").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entities.Ticket, 0)
	for _, t := range m.tickets {
		if t.GuildID != guildID {
			continue
		}
		for _, s := range states {
			if t.State == s {
				cp := t
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveRestriction(_ context.Context, restriction *entities.Restriction) error {
	monitoring.MemoryTotalRequests.WithLabelValues("save_restriction").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *restriction
	for i, r := range m.restrictions {
		if r.GuildID == cp.GuildID && r.MemberID == cp.MemberID && r.CreatedAt.Time().Equal(cp.CreatedAt.Time()) {
			m.restrictions[i] = cp
			return nil
		}
	}
	m.restrictions = append(m.restrictions, cp)
	return nil
}

func (m *MemoryStore) GetActiveRestriction(_ context.Context, guildID, memberID string) (*entities.Restriction, error) {
	monitoring.MemoryTotalRequests.WithLabelValues("get_active_restriction").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.restrictions) - 1; i >= 0; i-- {
		r := m.restrictions[i]
		if r.GuildID == guildID && r.MemberID == memberID && r.Active() {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("active restriction: %w", ErrNotFound)
}

func (m *MemoryStore) SavePanel(_ context.Context, panel *entities.Panel) error {
	monitoring.MemoryTotalRequests.WithLabelValues("save_panel").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.panels[panel.GuildID+"/"+panel.Action] = *panel
	return nil
}

func (m *MemoryStore) GetPanels(_ context.Context, guildID string) ([]*entities.Panel, error) {
	monitoring.MemoryTotalRequests.WithLabelValues("get_panels").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entities.Panel, 0)
	for _, p := range m.panels {
		if p.GuildID == guildID {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out, nil
}

var (
	_ TicketDal      = (*MemoryStore)(nil)
	_ RestrictionDal = (*MemoryStore)(nil)
	_ PanelDal       = (*MemoryStore)(nil)
)
