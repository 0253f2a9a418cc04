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
)

const defaultDeepLEndpoint = "https://api-free.deepl.com/v2/translate"

// DeepLClient calls the DeepL REST API with backend-native language codes
// (upper-case, see lang.DeepLCodes).
type DeepLClient struct {
	authKey  string
	endpoint string
	http     *http.Client
}

type DeepLOptions struct {
	AuthKey  string
	Endpoint string // overrides the default endpoint (tests)
	Timeout  time.Duration
}

func NewDeepL(opts DeepLOptions) *DeepLClient {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultDeepLEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DeepLClient{
		authKey:  opts.AuthKey,
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *DeepLClient) TranslatePair(ctx context.Context, text, source, target string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("source_lang", source)
	form.Set("target_lang", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.authKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "deepl: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return "", fmt.Errorf("deepl: status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "deepl: decode response")
	}
	if len(payload.Translations) == 0 {
		return "", errors.New("deepl: empty translations")
	}
	return payload.Translations[0].Text, nil
}
