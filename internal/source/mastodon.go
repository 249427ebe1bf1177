package source

import (
	"context"
	"fmt"
	"strings"

	"newsbrief/internal/logger"
	"newsbrief/internal/models"
)

// TypeMastodon identifies social-timeline sources resolved through a
// bridge/mirror service. This source type is expected to be intermittently
// unavailable, so total failure is a warning, never an error.
const TypeMastodon = "mastodon"

type mastodonConfig struct {
	// Account is the timeline to follow, e.g. "Mastodon" or "user@host".
	Account string `json:"account" validate:"required"`
	// Bridge is the preferred bridge/mirror base URL serving <base>/<user>/rss.
	Bridge string `json:"bridge" validate:"omitempty,url"`
	// Fallbacks are tried in order when the bridge is unavailable.
	Fallbacks []string `json:"fallbacks" validate:"omitempty,dive,url"`
	Limit     int      `json:"limit" validate:"omitempty,min=1,max=50"`
}

// MastodonAdapter fetches a social timeline as RSS via a configured bridge,
// falling through an ordered list of mirror instances.
type MastodonAdapter struct {
	client     *Client
	excerptLen int
	rss        *RSSAdapter
}

// NewMastodonAdapter wires the shared HTTP client.
func NewMastodonAdapter(client *Client, excerptLen int) *MastodonAdapter {
	return &MastodonAdapter{
		client:     client,
		excerptLen: excerptLen,
		rss:        NewRSSAdapter(client, excerptLen),
	}
}

func (a *MastodonAdapter) Type() string { return TypeMastodon }

func (a *MastodonAdapter) Fetch(ctx context.Context, src models.SourceDescriptor) ([]models.FetchedItem, error) {
	cfg := mastodonConfig{Limit: 10}
	if err := decodeConfig(src, &cfg); err != nil {
		return nil, err
	}

	bases := make([]string, 0, 1+len(cfg.Fallbacks))
	if cfg.Bridge != "" {
		bases = append(bases, cfg.Bridge)
	}
	bases = append(bases, cfg.Fallbacks...)
	if len(bases) == 0 {
		return nil, &ConfigError{Source: src.Name, Err: fmt.Errorf("no bridge or fallback instances configured")}
	}

	var lastErr error
	for _, base := range bases {
		url := strings.TrimRight(base, "/") + "/" + strings.TrimPrefix(cfg.Account, "@") + "/rss"
		body, err := a.client.GetBytes(ctx, url, map[string]string{
			"Accept": "application/rss+xml, application/xml, text/xml, */*",
		})
		if err != nil {
			lastErr = err
			logger.Debug().Err(err).Str("instance", base).Msg("timeline instance unavailable, trying next")
			continue
		}

		items := a.rss.parseStrict(string(body))
		if items == nil {
			items = parseLoose(string(body), a.excerptLen)
		}
		if len(items) == 0 {
			lastErr = fmt.Errorf("no entries from %s", base)
			continue
		}
		if cfg.Limit > 0 && len(items) > cfg.Limit {
			items = items[:cfg.Limit]
		}
		return items, nil
	}

	logger.Warn().Err(lastErr).Str("source", src.Name).
		Int("instances_tried", len(bases)).
		Msg("all timeline instances unavailable, contributing zero items")
	return nil, nil
}
