package mirror

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/go-resty/resty/v2"
)

// maxAttachmentBytes is the largest file the bot will forward.
const maxAttachmentBytes = 8 << 20

// Fetcher checks and downloads attachments of deleted messages.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a fetcher. A nil client gets a default with a short timeout.
func NewFetcher(client *resty.Client) *Fetcher {
	if client == nil {
		client = resty.New().SetTimeout(15 * time.Second)
	}
	return &Fetcher{client: client}
}

// Forwardable reports whether an attachment is media worth forwarding.
func Forwardable(a *discordgo.MessageAttachment) bool {
	ct := a.ContentType
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/")
}

// Fetch validates that the URL is still retrievable and downloads it.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	head, err := f.client.R().SetContext(ctx).Head(url)
	if err != nil {
		return nil, fmt.Errorf("error checking attachment: %w", err)
	}
	if head.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("attachment not retrievable: %s", head.Status())
	}
	if n, err := strconv.ParseInt(head.Header().Get("Content-Length"), 10, 64); err == nil && n > maxAttachmentBytes {
		return nil, fmt.Errorf("attachment too large: %d bytes", n)
	}

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("error downloading attachment: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("attachment not retrievable: %s", resp.Status())
	}
	if len(resp.Body()) > maxAttachmentBytes {
		return nil, fmt.Errorf("attachment too large: %d bytes", len(resp.Body()))
	}
	return resp.Body(), nil
}
