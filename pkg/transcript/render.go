package transcript

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
)

// pageSize is the largest page the platform returns.
const pageSize = 100

//go:embed transcript.html.tmpl
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "transcript.html.tmpl"))

// Line is a rendered message.
type Line struct {
	ID          string
	Author      string
	Bot         bool
	Timestamp   string
	Edited      bool
	Content     string
	Attachments []Attachment
	Embeds      []Embed
}

// Attachment is a file attached to a message.
type Attachment struct {
	Name string
	URL  string
}

// Embed is the readable part of a rich embed.
type Embed struct {
	Title       string
	Description string
}

// Document is everything the template needs.
type Document struct {
	Channel     string
	ChannelID   string
	GeneratedAt string
	TimeZone    string
	Lines       []Line
}

// Renderer turns a channel's full history into an HTML document.
type Renderer struct {
	// p is the chat platform.
	p platform.Service

	// loc is the zone every timestamp is shown in.
	loc *time.Location

	// now is the clock.
	now func() time.Time
}

// NewRenderer creates a renderer that shows times in loc. A nil loc means UTC.
func NewRenderer(p platform.Service, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		p:   p,
		loc: loc,
		now: time.Now,
	}
}

// History fetches every message in the channel, oldest first.
func (r *Renderer) History(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	var (
		all    []*discordgo.Message
		before string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgs, err := r.p.Messages(channelID, pageSize, before)
		if err != nil {
			return nil, fmt.Errorf("error fetching messages: %w", err)
		}
		all = append(all, msgs...)
		if len(msgs) < pageSize {
			break
		}
		before = msgs[len(msgs)-1].ID
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// Render writes the channel's history as HTML and returns the number of messages written.
func (r *Renderer) Render(ctx context.Context, ch *discordgo.Channel, w io.Writer) (int, error) {
	msgs, err := r.History(ctx, ch.ID)
	if err != nil {
		return 0, err
	}

	doc := &Document{
		Channel:     ch.Name,
		ChannelID:   ch.ID,
		GeneratedAt: r.format(r.now()),
		TimeZone:    r.loc.String(),
		Lines:       make([]Line, 0, len(msgs)),
	}
	for _, m := range msgs {
		doc.Lines = append(doc.Lines, r.line(m))
	}

	if err := page.Execute(w, doc); err != nil {
		return 0, fmt.Errorf("error rendering transcript: %w", err)
	}
	return len(doc.Lines), nil
}

func (r *Renderer) format(t time.Time) string {
	return t.In(r.loc).Format("2006-01-02 15:04:05 MST")
}

func (r *Renderer) line(m *discordgo.Message) Line {
	l := Line{
		ID:        m.ID,
		Author:    "unknown",
		Timestamp: r.format(m.Timestamp),
		Edited:    m.EditedTimestamp != nil,
		Content:   m.Content,
	}
	if m.Author != nil {
		l.Author = m.Author.Username
		l.Bot = m.Author.Bot
	}
	for _, a := range m.Attachments {
		l.Attachments = append(l.Attachments, Attachment{Name: a.Filename, URL: a.URL})
	}
	for _, e := range m.Embeds {
		if e.Title == "" && e.Description == "" {
			continue
		}
		l.Embeds = append(l.Embeds, Embed{Title: e.Title, Description: e.Description})
	}
	return l
}
