package collector

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// ErrEmptyTranslation is returned when the translation service answers with
// no translated segments.
var ErrEmptyTranslation = errors.New("empty translation")

// Translator translates short text fields.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Identity returns text unchanged.
type Identity struct{}

func (Identity) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}

// HTTPTranslator calls the public Google translate_a/single endpoint with
// automatic source language detection.
type HTTPTranslator struct {
	client   *Client
	endpoint string
	target   language.Tag
}

// NewHTTPTranslator returns a translator into target.
func NewHTTPTranslator(client *Client, endpoint string, target language.Tag) *HTTPTranslator {
	return &HTTPTranslator{client: client, endpoint: endpoint, target: target}
}

func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	query := url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {t.target.String()},
		"dt":     {"t"},
		"q":      {text},
	}
	var payload []any
	if err := t.client.GetJSON(ctx, t.endpoint, query, &payload); err != nil {
		return "", err
	}
	return parseTranslation(payload)
}

// parseTranslation extracts the translated text from a translate_a/single
// response: [[["translated","original",...],...],...].
func parseTranslation(payload []any) (string, error) {
	if len(payload) == 0 {
		return "", ErrEmptyTranslation
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", ErrEmptyTranslation
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return b.String(), nil
}

// translateText translates text, keeping the original on failure.
// Empty text is returned as is without a call.
func translateText(ctx context.Context, tr Translator, text string) string {
	if text == "" || tr == nil {
		return text
	}
	out, err := tr.Translate(ctx, text)
	if err != nil {
		slog.Warn("translation failed, keeping original",
			"text", text,
			"error", err,
		)
		return text
	}
	return out
}

// translateList translates the non-empty items of items in order.
// Empty items are dropped. The result is never nil.
func translateList(ctx context.Context, tr Translator, items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		out = append(out, translateText(ctx, tr, item))
	}
	return out
}
