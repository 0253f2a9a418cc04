package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// GoogleClient talks to the unofficial translate.google.<suffix> JSON
// endpoint. It needs no credentials but the endpoint is rate-sensitive, so
// every call passes through a limiter.
type GoogleClient struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

type GoogleOptions struct {
	Suffix        string // service domain suffix, e.g. "co.jp"
	BaseURL       string // overrides Suffix when set (tests)
	Timeout       time.Duration
	RatePerSecond float64
}

func NewGoogle(opts GoogleOptions) *GoogleClient {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		suffix := opts.Suffix
		if suffix == "" {
			suffix = "com"
		}
		base = "https://translate.google." + suffix
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perSec := opts.RatePerSecond
	if perSec <= 0 {
		perSec = 2
	}
	return &GoogleClient{
		base:    strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

// Translate converts text into dest, letting the service auto-detect the
// source language.
func (c *GoogleClient) Translate(ctx context.Context, text, dest string) (string, error) {
	payload, err := c.single(ctx, text, dest)
	if err != nil {
		return "", err
	}
	translated, _, err := parseSingle(payload)
	if err != nil {
		return "", err
	}
	return translated, nil
}

// Detect returns the language code the service guessed for text.
func (c *GoogleClient) Detect(ctx context.Context, text string) (string, error) {
	payload, err := c.single(ctx, text, "en")
	if err != nil {
		return "", err
	}
	_, detected, err := parseSingle(payload)
	if err != nil {
		return "", err
	}
	if detected == "" {
		return "", errors.New("google: no detected language in response")
	}
	return detected, nil
}

func (c *GoogleClient) single(ctx context.Context, text, dest string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", dest)
	q.Set("dt", "t")
	q.Set("dj", "0")
	q.Set("q", text)

	endpoint := c.base + "/translate_a/single?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; babel-chat/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "google: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "google: read body")
	}
	return body, nil
}

// parseSingle decodes the loosely-typed array the single endpoint returns:
// index 0 holds translated segment pairs, index 2 the detected language.
func parseSingle(body []byte) (translated, detected string, err error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", "", errors.Wrap(err, "google: decode response")
	}
	if len(payload) == 0 {
		return "", "", errors.New("google: empty response")
	}

	if segments, ok := payload[0].([]any); ok {
		var b strings.Builder
		for _, seg := range segments {
			pair, ok := seg.([]any)
			if !ok || len(pair) == 0 {
				continue
			}
			if part, ok := pair[0].(string); ok {
				b.WriteString(part)
			}
		}
		translated = b.String()
	}

	if len(payload) > 2 {
		if code, ok := payload[2].(string); ok {
			detected = code
		}
	}

	return translated, detected, nil
}
