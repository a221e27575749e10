package transcript

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/platform/platformtest"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func TestRenderer_History(t *testing.T) {
	f := platformtest.New("guild", "bot")
	ch := f.AddChannel("busy", discordgo.ChannelTypeGuildText, "")
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		f.Post(ch.ID, "alice", fmt.Sprintf("message %d", i), start.Add(time.Duration(i)*time.Minute))
	}

	msgs, err := NewRenderer(f, nil).History(context.Background(), ch.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 250)
	require.Equal(t, "message 0", msgs[0].Content)
	require.Equal(t, "message 249", msgs[249].Content)
}

func TestRenderer_Render(t *testing.T) {
	f := platformtest.New("guild", "bot")
	f.AddMember("alice", "alice")
	ch := f.AddChannel("20240101-alice", discordgo.ChannelTypeGuildText, "")
	f.Post(ch.ID, "alice", "<b>hello</b>", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	loc := time.FixedZone("EST", -5*60*60)

	out := new(strings.Builder)
	n, err := NewRenderer(f, loc).Render(context.Background(), ch, out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Contains(t, out.String(), "2024-01-01 07:00:00 EST")
	require.Contains(t, out.String(), "&lt;b&gt;hello&lt;/b&gt;")
	require.Contains(t, out.String(), "#20240101-alice")
}

func TestArchiver_Archive(t *testing.T) {
	f := platformtest.New("guild", "bot")
	staff := f.AddChannel("transcripts", discordgo.ChannelTypeGuildText, "")
	a1 := f.AddChannel("ticket-bob", discordgo.ChannelTypeGuildText, "")
	a2 := f.AddChannel("ticket-bob", discordgo.ChannelTypeGuildText, "")
	f.Post(a1.ID, "bob", "first", time.Now())
	f.Post(a2.ID, "bob", "second", time.Now())

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	a := NewArchiver(l, f, NewRenderer(f, time.UTC), store, staff.ID)

	ref1, err := a.Archive(context.Background(), a1.ID, "")
	require.NoError(t, err)
	ref2, err := a.Archive(context.Background(), a2.ID, "")
	require.NoError(t, err)
	require.Equal(t, "ticket-bob.html", ref1)
	require.Equal(t, "ticket-bob-1.html", ref2)

	sent := f.SentTo(staff.ID)
	require.Len(t, sent, 2)
	require.Contains(t, string(sent[0].Files[ref1]), "first")
	require.Contains(t, string(sent[1].Files[ref2]), "second")

	local, err := os.ReadFile(filepath.Join(store.Dir(), ref2))
	require.NoError(t, err)
	require.Contains(t, string(local), "second")
}

func TestArchiver_UploadFailure(t *testing.T) {
	f := platformtest.New("guild", "bot")
	staff := f.AddChannel("transcripts", discordgo.ChannelTypeGuildText, "")
	ch := f.AddChannel("ticket-bob", discordgo.ChannelTypeGuildText, "")
	f.Fail("send", staff.ID, platform.KindTransient)

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))

	a := NewArchiver(l, f, NewRenderer(f, nil), store, staff.ID)
	_, err = a.Archive(context.Background(), ch.ID, "")
	require.ErrorIs(t, err, platform.ErrTransient)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Empty(t, entries)

	f.Heal("send", staff.ID)
	ref, err := a.Archive(context.Background(), ch.ID, "")
	require.NoError(t, err)
	require.Equal(t, "ticket-bob.html", ref)
}

func largeChannel(t *testing.T, f *platformtest.Fake) *discordgo.Channel {
	t.Helper()
	ch := f.AddChannel("ticket-bob", discordgo.ChannelTypeGuildText, "")
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 300; i++ {
		f.Post(ch.ID, "bob", "please let me back in, I promise to behave", start.Add(time.Duration(i)*time.Second))
	}
	return ch
}

func gunzip(t *testing.T, data []byte) []byte {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.NoError(t, zr.Close())
	return out
}

func TestArchiver_CompressesLargeTranscript(t *testing.T) {
	f := platformtest.New("guild", "bot")
	staff := f.AddChannel("transcripts", discordgo.ChannelTypeGuildText, "")
	ch := largeChannel(t, f)

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	a := NewArchiver(l, f, NewRenderer(f, time.UTC), store, staff.ID)
	a.uploadLimit = 16 << 10

	ref, err := a.Archive(context.Background(), ch.ID, "")
	require.NoError(t, err)

	local, err := os.ReadFile(filepath.Join(store.Dir(), ref))
	require.NoError(t, err)
	require.Greater(t, len(local), a.uploadLimit)

	sent := f.SentTo(staff.ID)
	require.Len(t, sent, 1)
	gz, ok := sent[0].Files[ref+".gz"]
	require.True(t, ok)
	require.LessOrEqual(t, len(gz), a.uploadLimit)
	require.Equal(t, local, gunzip(t, gz))
}

func TestArchiver_SplitsOversizedTranscript(t *testing.T) {
	f := platformtest.New("guild", "bot")
	staff := f.AddChannel("transcripts", discordgo.ChannelTypeGuildText, "")
	ch := largeChannel(t, f)

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	a := NewArchiver(l, f, NewRenderer(f, time.UTC), store, staff.ID)
	a.uploadLimit = 256

	ref, err := a.Archive(context.Background(), ch.ID, "")
	require.NoError(t, err)

	sent := f.SentTo(staff.ID)
	require.Greater(t, len(sent), 1)

	joined := new(bytes.Buffer)
	for i, s := range sent {
		part, ok := s.Files[fmt.Sprintf("%s.gz.%03d", ref, i+1)]
		require.True(t, ok, "part %d", i+1)
		require.LessOrEqual(t, len(part), a.uploadLimit)
		require.Contains(t, s.Message.Content, fmt.Sprintf("part %d of %d", i+1, len(sent)))
		joined.Write(part)
	}

	local, err := os.ReadFile(filepath.Join(store.Dir(), ref))
	require.NoError(t, err)
	require.Equal(t, local, gunzip(t, joined.Bytes()))
}
