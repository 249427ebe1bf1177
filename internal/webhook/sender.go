// Package webhook delivers synthesized digests to a webhook chat channel
// with request signing, rate limiting and per-message failure isolation.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"newsbrief/internal/ai"
	"newsbrief/internal/logger"
	"newsbrief/internal/models"
)

// PushReport counts one distribution pass. Pushed lists every item whose
// delivery was attempted; the history store records exactly this set.
type PushReport struct {
	Attempted int
	Succeeded int
	Failed    int
	Pushed    []models.SynthItem
}

// Sender pushes messages to one webhook endpoint. Sends are paced with a
// limiter so consecutive messages respect the channel's rate limits.
type Sender struct {
	rest       *resty.Client
	url        string
	secret     string
	limiter    *rate.Limiter
	plainLimit int

	// now is overridable in tests for deterministic signatures.
	now func() time.Time
}

// NewSender builds a sender. secret may be empty: requests are then sent
// unsigned.
func NewSender(url, secret string, delay, timeout time.Duration, plainLimit int) *Sender {
	if delay <= 0 {
		delay = 600 * time.Millisecond
	}
	if plainLimit <= 0 {
		plainLimit = 3500
	}
	return &Sender{
		rest:       resty.New().SetTimeout(timeout),
		url:        url,
		secret:     secret,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		plainLimit: plainLimit,
		now:        time.Now,
	}
}

type textPayload struct {
	Timestamp string `json:"timestamp,omitempty"`
	Sign      string `json:"sign,omitempty"`
	MsgType   string `json:"msg_type"`
	Content   struct {
		Text string `json:"text"`
	} `json:"content"`
}

// providerResponse covers the success-code field names observed across
// webhook providers; whichever is present must be zero.
type providerResponse struct {
	Code       *int   `json:"code"`
	ErrCode    *int   `json:"errcode"`
	StatusCode *int   `json:"StatusCode"`
	Msg        string `json:"msg"`
}

func (r providerResponse) failure() (int, bool) {
	for _, c := range []*int{r.Code, r.ErrCode, r.StatusCode} {
		if c != nil && *c != 0 {
			return *c, true
		}
	}
	return 0, false
}

// Sign computes the request signature for a timestamp: an HMAC-SHA256 of
// "<timestamp>\n<secret>" keyed by the secret, base64-encoded.
func Sign(secret string, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// PushItems sends one overview message followed by one message per item.
// Send failures are logged and counted but never abort the remaining sends.
func (s *Sender) PushItems(ctx context.Context, digestType models.DigestType, items []models.SynthItem) PushReport {
	report := PushReport{Pushed: items}

	if err := s.send(ctx, buildOverview(digestType, items)); err != nil {
		logger.Error().Err(err).Msg("overview message send failed")
	}

	for _, item := range items {
		report.Attempted++
		if err := s.send(ctx, formatItem(item)); err != nil {
			report.Failed++
			logger.Error().Err(err).Str("url", item.URL).Msg("item message send failed")
			continue
		}
		report.Succeeded++
	}
	return report
}

// PushDegraded handles the unstructured fallback: it first re-runs the
// repair cascade over the raw body, and only if that fails sends a single
// truncated plain-text message.
func (s *Sender) PushDegraded(ctx context.Context, digestType models.DigestType, rawText string) PushReport {
	if items, ok := ai.ParseItems(rawText); ok {
		logger.Info().Int("items", len(items)).Msg("recovered structured items from raw digest body")
		return s.PushItems(ctx, digestType, items)
	}

	report := PushReport{Attempted: 1}
	text := truncatePlain(rawText, s.plainLimit)
	if err := s.send(ctx, fmt.Sprintf("%s digest\n\n%s", digestType, text)); err != nil {
		report.Failed++
		logger.Error().Err(err).Msg("plain-text digest send failed")
		return report
	}
	report.Succeeded++
	return report
}

func (s *Sender) send(ctx context.Context, text string) error {
	if s.url == "" {
		return fmt.Errorf("no webhook url configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	var payload textPayload
	payload.MsgType = "text"
	payload.Content.Text = text
	if s.secret != "" {
		ts := s.now().Unix()
		payload.Timestamp = strconv.FormatInt(ts, 10)
		payload.Sign = Sign(s.secret, ts)
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("webhook status %d", resp.StatusCode())
	}

	var pr providerResponse
	if err := json.Unmarshal(resp.Body(), &pr); err == nil {
		if code, failed := pr.failure(); failed {
			return fmt.Errorf("webhook rejected message: code=%d msg=%s", code, pr.Msg)
		}
	}
	return nil
}

func buildOverview(digestType models.DigestType, items []models.SynthItem) string {
	text := fmt.Sprintf("%s digest · %d stories\n", digestType, len(items))
	for i, item := range items {
		text += fmt.Sprintf("%d. %s\n", i+1, item.Title)
	}
	return text
}

func formatItem(item models.SynthItem) string {
	marker := ""
	if item.Category == models.CategoryTop {
		marker = "🔥 "
	}
	return fmt.Sprintf("%s%s\n%s\n%s\n— %s", marker, item.Title, item.Summary, item.URL, item.Source)
}

func truncatePlain(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max]) + "… (truncated)"
}
