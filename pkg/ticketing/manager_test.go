package ticketing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/dataaccess"
	"github.com/Jacobbrewer1/yupil/pkg/entities"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/yupil/pkg/transcript"
	"github.com/stretchr/testify/require"
)

const modRoleID = "role-mod"

type archiverFunc func(ctx context.Context, channelID, name string) (string, error)

func (f archiverFunc) Archive(ctx context.Context, channelID, name string) (string, error) {
	return f(ctx, channelID, name)
}

type harness struct {
	f        *platformtest.Fake
	store    *dataaccess.MemoryStore
	m        *Manager
	helpdesk *discordgo.Channel
	staff    *discordgo.Channel
	dir      string
}

func newHarness(t *testing.T, archiver Archiver) *harness {
	t.Helper()

	f := platformtest.New("guild", "bot")
	f.AddRole(modRoleID, "Moderator")
	f.AddMember("alice", "Alice")
	f.AddMember("carol", "Carol")
	f.AddMember("mia", "Mia", modRoleID)
	helpdesk := f.AddChannel("helpdesk", discordgo.ChannelTypeGuildCategory, "")
	staff := f.AddChannel("transcripts", discordgo.ChannelTypeGuildText, "")

	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	dir := t.TempDir()
	if archiver == nil {
		store, err := transcript.NewStore(dir)
		require.NoError(t, err)
		archiver = transcript.NewArchiver(l, f, transcript.NewRenderer(f, time.UTC), store, staff.ID)
	}

	store := dataaccess.NewMemoryStore()
	m := NewManager(l, f, store, archiver, Config{
		HelpdeskCategoryID: helpdesk.ID,
		ModRoleName:        "moderator",
	})
	m.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }

	return &harness{f: f, store: store, m: m, helpdesk: helpdesk, staff: staff, dir: dir}
}

func (h *harness) open(t *testing.T, grant bool) *entities.Ticket {
	t.Helper()
	tk, err := h.m.Open(context.Background(), OpenRequest{
		OwnerID:    "alice",
		Label:      "appeal",
		GrantOwner: grant,
		Origin:     entities.TicketOriginCommand,
	})
	require.NoError(t, err)
	return tk
}

func TestTicketLifecycle_Alice(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	tk := h.open(t, true)
	require.Equal(t, entities.TicketStateOpen, tk.State)
	require.Equal(t, 1, tk.ID)
	require.Equal(t, "20240101-alice", tk.ChannelName)

	require.True(t, h.f.CanRead("alice", tk.ChannelID))
	require.True(t, h.f.CanRead("mia", tk.ChannelID))
	require.False(t, h.f.CanRead("carol", tk.ChannelID))
	require.Equal(t, []string{"alice", "bot", modRoleID}, h.f.Readers(tk.ChannelID))

	h.f.Post(tk.ChannelID, "alice", "please help", time.Now())

	tk, err := h.m.Close(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateClosing, tk.State)
	require.False(t, h.f.CanRead("alice", tk.ChannelID))
	require.True(t, h.f.CanRead("mia", tk.ChannelID))
	require.Equal(t, []string{"bot", modRoleID}, h.f.Readers(tk.ChannelID))
	require.NotEmpty(t, tk.FinishMessageID)
	require.True(t, h.f.HasChannel(tk.ChannelID))

	tk, err = h.m.FinishWithTranscript(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateArchived, tk.State)
	require.Equal(t, "20240101-alice.html", tk.TranscriptRef)
	require.False(t, h.f.HasChannel(tk.ChannelID))

	sent := h.f.SentTo(h.staff.ID)
	require.Len(t, sent, 1)
	require.Contains(t, string(sent[0].Files[tk.TranscriptRef]), "please help")

	local, err := os.ReadFile(filepath.Join(h.dir, tk.TranscriptRef))
	require.NoError(t, err)
	require.Contains(t, string(local), "please help")

	stored, err := h.store.GetTicket(ctx, "guild", tk.ChannelID)
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateArchived, stored.State)
}

func TestOpen_WithoutGrant(t *testing.T) {
	h := newHarness(t, nil)

	tk := h.open(t, false)
	require.False(t, h.f.CanRead("alice", tk.ChannelID))
	require.Equal(t, []string{"bot", modRoleID}, h.f.Readers(tk.ChannelID))
}

func TestOpen_CollidingNames(t *testing.T) {
	h := newHarness(t, nil)

	first := h.open(t, true)
	second := h.open(t, true)
	require.Equal(t, "20240101-alice", first.ChannelName)
	require.Equal(t, "20240101-alice-2", second.ChannelName)
	require.Equal(t, 2, second.ID)
}

func TestOpen_CategoryUnreachable(t *testing.T) {
	h := newHarness(t, nil)
	h.f.Unmanageable(h.helpdesk.ID)

	_, err := h.m.Open(context.Background(), OpenRequest{OwnerID: "alice", Origin: entities.TicketOriginPanel})
	require.ErrorIs(t, err, ErrCategoryUnreachable)

	_, err = h.store.GetLatestTicket(context.Background(), "guild")
	require.ErrorIs(t, err, dataaccess.ErrNotFound)
}

func TestFinishWithTranscript_ArchivalFailureKeepsChannel(t *testing.T) {
	h := newHarness(t, archiverFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("disk full")
	}))
	ctx := context.Background()

	tk := h.open(t, true)
	_, err := h.m.Close(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)

	_, err = h.m.FinishWithTranscript(ctx, tk.ChannelID, "mia")
	require.ErrorIs(t, err, ErrArchivalFailed)
	require.True(t, h.f.HasChannel(tk.ChannelID))

	stored, err := h.m.Get(ctx, tk.ChannelID)
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateClosing, stored.State)
	require.Empty(t, stored.TranscriptRef)

	tk, err = h.m.FinishWithoutTranscript(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateArchived, tk.State)
	require.False(t, h.f.HasChannel(tk.ChannelID))
}

func TestFinishWithTranscript_UploadFailureKeepsChannel(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.f.Fail("send", h.staff.ID, platform.KindTransient)

	tk := h.open(t, true)
	_, err := h.m.Close(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)

	_, err = h.m.FinishWithTranscript(ctx, tk.ChannelID, "mia")
	require.ErrorIs(t, err, ErrArchivalFailed)
	require.True(t, h.f.HasChannel(tk.ChannelID))
}

func TestTransitions_Invalid(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	tk := h.open(t, true)

	_, err := h.m.FinishWithTranscript(ctx, tk.ChannelID, "mia")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.m.FinishWithoutTranscript(ctx, tk.ChannelID, "mia")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.True(t, h.f.HasChannel(tk.ChannelID))

	_, err = h.m.Close(ctx, h.staff.ID, "mia")
	require.ErrorIs(t, err, ErrNotATicket)

	_, err = h.m.Close(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)
	_, err = h.m.Close(ctx, tk.ChannelID, "mia")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.m.AddParticipant(ctx, tk.ChannelID, "carol")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestForceDelete(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	tk := h.open(t, true)

	tk, err := h.m.ForceDelete(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateArchived, tk.State)
	require.Empty(t, tk.TranscriptRef)
	require.False(t, h.f.HasChannel(tk.ChannelID))
	require.Empty(t, h.f.SentTo(h.staff.ID))

	_, err = h.m.ForceDelete(ctx, tk.ChannelID, "mia")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAddParticipant(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	tk := h.open(t, true)

	tk, err := h.m.AddParticipant(ctx, tk.ChannelID, "carol")
	require.NoError(t, err)
	require.Equal(t, []string{"carol"}, tk.Participants)
	require.True(t, h.f.CanRead("carol", tk.ChannelID))

	tk, err = h.m.AddParticipant(ctx, tk.ChannelID, "carol")
	require.NoError(t, err)
	require.Equal(t, []string{"carol"}, tk.Participants)

	_, err = h.m.AddParticipant(ctx, tk.ChannelID, "nobody")
	require.ErrorIs(t, err, platform.ErrNotFound)

	tk, err = h.m.Close(ctx, tk.ChannelID, "mia")
	require.NoError(t, err)
	require.False(t, h.f.CanRead("carol", tk.ChannelID))
}

func TestBusy(t *testing.T) {
	h := newHarness(t, nil)
	tk := h.open(t, true)

	release, err := h.m.acquire(tk.ChannelID)
	require.NoError(t, err)

	_, err = h.m.Close(context.Background(), tk.ChannelID, "mia")
	require.ErrorIs(t, err, ErrBusy)

	release()
	_, err = h.m.Close(context.Background(), tk.ChannelID, "mia")
	require.NoError(t, err)
}

func TestReconcile(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	gone := h.open(t, true)
	closing := h.open(t, true)
	healthy := h.open(t, true)

	_, err := h.m.Close(ctx, closing.ChannelID, "mia")
	require.NoError(t, err)
	closing, err = h.m.Get(ctx, closing.ChannelID)
	require.NoError(t, err)
	require.NoError(t, h.f.DeleteMessage(closing.ChannelID, closing.FinishMessageID))
	require.NoError(t, h.f.DeleteChannel(gone.ChannelID))

	report, err := h.m.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, &ReconcileReport{Checked: 3, Orphaned: 1, Resurfaced: 1}, report)

	stored, err := h.m.Get(ctx, gone.ChannelID)
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateArchived, stored.State)

	stored, err = h.m.Get(ctx, closing.ChannelID)
	require.NoError(t, err)
	require.NotEqual(t, closing.FinishMessageID, stored.FinishMessageID)

	stored, err = h.m.Get(ctx, healthy.ChannelID)
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateOpen, stored.State)
}

func TestTransitionError(t *testing.T) {
	h := newHarness(t, nil)
	tk := h.open(t, true)

	_, err := h.m.FinishWithoutTranscript(context.Background(), tk.ChannelID, "mia")
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, entities.TicketStateOpen, te.State)
	require.Equal(t, tk.ID, te.Ticket)
}
