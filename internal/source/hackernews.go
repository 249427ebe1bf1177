package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"newsbrief/internal/logger"
	"newsbrief/internal/models"
)

// TypeHackerNews identifies the Hacker News ranked-link source.
const TypeHackerNews = "hackernews"

const (
	hnTopStoriesURL = "https://hacker-news.firebaseio.com/v0/topstories.json"
	hnItemURL       = "https://hacker-news.firebaseio.com/v0/item/%d.json"
	hnPostURL       = "https://news.ycombinator.com/item?id=%d"

	hnFetchWorkers = 4
)

type hackerNewsConfig struct {
	MinScore int `json:"min_score" validate:"omitempty,min=0"`
	Limit    int `json:"limit" validate:"omitempty,min=1,max=50"`
}

type hnStory struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Descendants int    `json:"descendants"`
	Type        string `json:"type"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`
}

// HackerNewsAdapter fetches top stories from the HN Firebase API, applies
// the configured score threshold and maps scoring into a uniform
// description annotation.
type HackerNewsAdapter struct {
	client *Client
}

// NewHackerNewsAdapter wires the shared HTTP client.
func NewHackerNewsAdapter(client *Client) *HackerNewsAdapter {
	return &HackerNewsAdapter{client: client}
}

func (a *HackerNewsAdapter) Type() string { return TypeHackerNews }

func (a *HackerNewsAdapter) Fetch(ctx context.Context, src models.SourceDescriptor) ([]models.FetchedItem, error) {
	cfg := hackerNewsConfig{MinScore: 100, Limit: 15}
	if err := decodeConfig(src, &cfg); err != nil {
		return nil, err
	}

	body, err := a.client.GetBytes(ctx, hnTopStoriesURL, nil)
	if err != nil {
		return nil, &FetchError{Source: src.Name, Err: err}
	}
	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, &FetchError{Source: src.Name, Err: fmt.Errorf("decode top story ids: %w", err)}
	}

	// Over-fetch a little so the score threshold still fills the cap.
	if max := cfg.Limit * 3; len(ids) > max {
		ids = ids[:max]
	}

	stories := a.fetchStories(ctx, ids)

	items := make([]models.FetchedItem, 0, cfg.Limit)
	for _, story := range stories {
		if story == nil || story.Dead || story.Deleted || story.Type != "story" {
			continue
		}
		if story.Score < cfg.MinScore {
			continue
		}
		url := story.URL
		if url == "" {
			url = fmt.Sprintf(hnPostURL, story.ID)
		}
		published := time.Unix(story.Time, 0)
		items = append(items, models.FetchedItem{
			Title:       story.Title,
			URL:         url,
			Description: fmt.Sprintf("%d points · %d comments", story.Score, story.Descendants),
			PublishedAt: &published,
			Author:      story.By,
		})
		if len(items) >= cfg.Limit {
			break
		}
	}
	return items, nil
}

// fetchStories resolves ids with a small worker pool, preserving id order in
// the result. Individual story failures are logged and skipped.
func (a *HackerNewsAdapter) fetchStories(ctx context.Context, ids []int) []*hnStory {
	stories := make([]*hnStory, len(ids))

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < hnFetchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				if ctx.Err() != nil {
					return
				}
				body, err := a.client.GetBytes(ctx, fmt.Sprintf(hnItemURL, ids[i]), nil)
				if err != nil {
					logger.Debug().Err(err).Int("id", ids[i]).Msg("hn story fetch failed")
					continue
				}
				var story hnStory
				if err := json.Unmarshal(body, &story); err != nil {
					logger.Debug().Err(err).Int("id", ids[i]).Msg("hn story decode failed")
					continue
				}
				stories[i] = &story
			}
		}()
	}
feed:
	for i := range ids {
		select {
		case idx <- i:
		case <-ctx.Done():
			// Workers stop receiving once the context ends; an unguarded
			// send here would block forever.
			break feed
		}
	}
	close(idx)
	wg.Wait()

	return stories
}
