package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"newsbrief/internal/models"
)

// TypeReddit identifies the reddit link-sharing community source.
const TypeReddit = "reddit"

type redditConfig struct {
	Subreddit string `json:"subreddit" validate:"required,alphanum|containsany=_"`
	MinScore  int    `json:"min_score" validate:"omitempty,min=0"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				URL         string  `json:"url"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Author      string  `json:"author"`
				CreatedUTC  float64 `json:"created_utc"`
				Stickied    bool    `json:"stickied"`
				IsSelf      bool    `json:"is_self"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditAdapter fetches a subreddit's hot listing over the public JSON API
// and maps platform scoring into the uniform description annotation.
type RedditAdapter struct {
	client *Client
}

// NewRedditAdapter wires the shared HTTP client.
func NewRedditAdapter(client *Client) *RedditAdapter {
	return &RedditAdapter{client: client}
}

func (a *RedditAdapter) Type() string { return TypeReddit }

func (a *RedditAdapter) Fetch(ctx context.Context, src models.SourceDescriptor) ([]models.FetchedItem, error) {
	cfg := redditConfig{MinScore: 50, Limit: 15}
	if err := decodeConfig(src, &cfg); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://www.reddit.com/r/%s/hot.json?limit=%d&raw_json=1",
		cfg.Subreddit, cfg.Limit*2)
	body, err := a.client.GetBytes(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, &FetchError{Source: src.Name, Err: err}
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &FetchError{Source: src.Name, Err: fmt.Errorf("decode listing: %w", err)}
	}

	items := make([]models.FetchedItem, 0, cfg.Limit)
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied || post.Score < cfg.MinScore {
			continue
		}
		link := post.URL
		if post.IsSelf || link == "" {
			link = "https://www.reddit.com" + post.Permalink
		}
		published := time.Unix(int64(post.CreatedUTC), 0)
		items = append(items, models.FetchedItem{
			Title:       strings.TrimSpace(post.Title),
			URL:         link,
			Description: fmt.Sprintf("%d points · %d comments", post.Score, post.NumComments),
			PublishedAt: &published,
			Author:      post.Author,
		})
		if len(items) >= cfg.Limit {
			break
		}
	}
	return items, nil
}
