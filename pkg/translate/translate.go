// Package translate is a client for a DeepL compatible translation API.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultURL is the free tier endpoint.
const DefaultURL = "https://api-free.deepl.com"

// ErrUnsupportedLanguage is returned when the target language code is not supported.
var ErrUnsupportedLanguage = errors.New("unsupported language code")

// ErrNoTranslation is returned when the service answered without a translation.
var ErrNoTranslation = errors.New("no translation returned")

var supported = map[string]struct{}{
	"AR": {}, "BG": {}, "CS": {}, "DA": {}, "DE": {}, "EL": {}, "EN": {}, "EN-GB": {}, "EN-US": {},
	"ES": {}, "ET": {}, "FI": {}, "FR": {}, "HU": {}, "ID": {}, "IT": {}, "JA": {}, "KO": {},
	"LT": {}, "LV": {}, "NB": {}, "NL": {}, "PL": {}, "PT": {}, "PT-BR": {}, "PT-PT": {}, "RO": {},
	"RU": {}, "SK": {}, "SL": {}, "SV": {}, "TR": {}, "UK": {}, "ZH": {}, "ZH-HANS": {}, "ZH-HANT": {},
}

// Languages returns the supported target language codes, sorted.
func Languages() []string {
	out := make([]string, 0, len(supported))
	for code := range supported {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Result is a translation.
type Result struct {
	// Text is the translated text.
	Text string

	// Source is the detected source language code.
	Source string

	// Target is the language code translated to.
	Target string
}

type response struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Client calls the translation API.
type Client struct {
	client *resty.Client
}

// NewClient creates a client for the API at baseURL authenticated with key.
func NewClient(baseURL, key string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Authorization", "DeepL-Auth-Key "+key).
		SetTimeout(20 * time.Second).
		SetRetryCount(2).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{client: c}
}

// Translate translates text into the target language.
func (c *Client) Translate(ctx context.Context, text, target string) (*Result, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if _, ok := supported[target]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, target)
	}

	res := new(response)
	apiErr := new(errorResponse)
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"text":        text,
			"target_lang": target,
		}).
		SetResult(res).
		SetError(apiErr).
		Post("/v2/translate")
	if err != nil {
		return nil, fmt.Errorf("error calling translation service: %w", err)
	}

	if resp.IsError() {
		if resp.StatusCode() == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "target_lang") {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, target)
		}
		return nil, fmt.Errorf("translation service returned %s: %s", resp.Status(), apiErr.Message)
	}

	if len(res.Translations) == 0 {
		return nil, ErrNoTranslation
	}

	return &Result{
		Text:   res.Translations[0].Text,
		Source: res.Translations[0].DetectedSourceLanguage,
		Target: target,
	}, nil
}
