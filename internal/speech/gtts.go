package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// GTTS synthesizes speech through the Google Translate TTS endpoint,
// writing one mp3 per task into the temp directory.
type GTTS struct {
	base    string
	tmpDir  string
	http    *http.Client
	counter atomic.Uint64
}

type GTTSOptions struct {
	BaseURL string // overrides the default endpoint (tests)
	TmpDir  string
	Timeout time.Duration
}

func NewGTTS(opts GTTSOptions) *GTTS {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = "https://translate.google.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GTTS{
		base:   strings.TrimRight(base, "/"),
		tmpDir: opts.TmpDir,
		http:   &http.Client{Timeout: timeout},
	}
}

func (g *GTTS) Synthesize(ctx context.Context, text, lang string) (string, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)

	endpoint := g.base + "/translate_tts?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; babel-chat/1.0)")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "gtts: request")
	}
	defer resp.Body.Close()

	// the endpoint answers 400/404 for language codes it cannot speak
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return "", ErrUnsupportedLanguage
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gtts: status %s", resp.Status)
	}

	file := filepath.Join(g.tmpDir, fmt.Sprintf("cnt_%d.mp3", g.counter.Add(1)))
	out, err := os.Create(file)
	if err != nil {
		return "", errors.Wrap(err, "gtts: create temp file")
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(file)
		return "", errors.Wrap(err, "gtts: write audio")
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(file)
		return "", errors.Wrap(err, "gtts: close temp file")
	}
	return file, nil
}

// RecreateTmpDir wipes and recreates the temp audio directory at startup.
func RecreateTmpDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(err, "remove tmp dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create tmp dir")
	}
	return nil
}
