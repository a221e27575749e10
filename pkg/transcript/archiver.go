// Package transcript renders a channel's message history to an HTML document and stores it both on
// disk and in the staff transcript channel.
package transcript

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/klauspost/compress/gzip"
)

// DefaultUploadLimit is the largest attachment sent to the staff channel.
const DefaultUploadLimit = 8 << 20

// Archiver renders and stores transcripts.
type Archiver struct {
	// l is the logger.
	l *slog.Logger

	// p is the chat platform.
	p platform.Service

	// renderer renders the history.
	renderer *Renderer

	// store keeps the local copy.
	store *Store

	// channelID is the staff channel transcripts are uploaded to.
	channelID string

	// uploadLimit is the largest attachment uploaded in one piece.
	uploadLimit int
}

// NewArchiver creates an archiver that uploads to the given staff channel.
func NewArchiver(l *slog.Logger, p platform.Service, renderer *Renderer, store *Store, channelID string) *Archiver {
	return &Archiver{
		l:           l.With(slog.String(logging.KeyComponent, "transcript")),
		p:           p,
		renderer:    renderer,
		store:       store,
		channelID:   channelID,
		uploadLimit: DefaultUploadLimit,
	}
}

// Archive renders the channel and stores it locally and in the staff channel. The returned reference
// is the local file name. The call only succeeds once both copies exist.
func (a *Archiver) Archive(ctx context.Context, channelID, name string) (string, error) {
	ch, err := a.p.Channel(channelID)
	if err != nil {
		return "", fmt.Errorf("error getting channel: %w", err)
	}
	if name == "" {
		name = ch.Name
	}

	buf := new(bytes.Buffer)
	count, err := a.renderer.Render(ctx, ch, buf)
	if err != nil {
		return "", err
	}

	ref, err := a.store.Save(name, buf.Bytes())
	if err != nil {
		return "", err
	}

	if err := a.upload(ref, ch.Name, count, buf.Bytes()); err != nil {
		if rmErr := a.store.Remove(ref); rmErr != nil {
			a.l.Warn("Error removing transcript after failed upload",
				slog.String("file", ref),
				slog.String(logging.KeyError, rmErr.Error()),
			)
		}
		return "", err
	}

	a.l.Info("Transcript archived",
		slog.String(logging.KeyChannelID, channelID),
		slog.String("file", ref),
		slog.Int("messages", count),
	)
	return ref, nil
}

// attachment is one file sent to the staff channel.
type attachment struct {
	name        string
	contentType string
	data        []byte
}

// upload sends the transcript to the staff channel, one attachment per message.
func (a *Archiver) upload(ref, channelName string, count int, data []byte) error {
	files, err := a.attachments(ref, data)
	if err != nil {
		return fmt.Errorf("error preparing transcript %s: %w", ref, err)
	}

	for i, f := range files {
		content := fmt.Sprintf("Transcript of #%s (%d message(s))", channelName, count)
		if len(files) > 1 {
			content += fmt.Sprintf(", part %d of %d. Join the parts with `cat` and gunzip the result.", i+1, len(files))
		}

		_, err := a.p.Send(a.channelID, &discordgo.MessageSend{
			Content: content,
			Files: []*discordgo.File{
				{
					Name:        f.name,
					ContentType: f.contentType,
					Reader:      bytes.NewReader(f.data),
				},
			},
		})
		if err != nil {
			return fmt.Errorf("error uploading transcript %s: %w", f.name, err)
		}
	}
	return nil
}

// attachments fits the document under the upload limit. A document over the limit is gzipped, and
// a compressed document still over the limit is split into numbered parts.
func (a *Archiver) attachments(ref string, data []byte) ([]attachment, error) {
	if len(data) <= a.uploadLimit {
		return []attachment{{name: ref, contentType: "text/html", data: data}}, nil
	}

	buf := new(bytes.Buffer)
	zw, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	gz := buf.Bytes()
	name := ref + ".gz"
	if len(gz) <= a.uploadLimit {
		return []attachment{{name: name, contentType: "application/gzip", data: gz}}, nil
	}

	parts := make([]attachment, 0, len(gz)/a.uploadLimit+1)
	for len(gz) > 0 {
		n := min(a.uploadLimit, len(gz))
		parts = append(parts, attachment{
			name:        fmt.Sprintf("%s.%03d", name, len(parts)+1),
			contentType: "application/octet-stream",
			data:        gz[:n],
		})
		gz = gz[n:]
	}
	return parts, nil
}
