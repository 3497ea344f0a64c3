// Package fetch retrieves job posting pages and reduces them to plain text
// suitable for storage and prompting.
package fetch

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "talentscout/1.0 (+job posting import)"

	// TextCap bounds extracted posting text, matching the store's
	// description cap.
	TextCap = 50_000
)

// Fetcher downloads posting pages. Safe for concurrent use.
type Fetcher struct {
	http   *http.Client
	logger *slog.Logger
}

// New creates a Fetcher. A nil client gets the default 30s-timeout client.
func New(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{http: client, logger: logger}
}

// PostingText fetches url and returns its visible text. HTML is reduced to
// text with scripts and styles skipped; markdown and plain responses pass
// through. Non-2xx responses are network errors.
func (f *Fetcher) PostingText(url string) (string, error) {
	start := time.Now()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", errors.ValidationError("invalid posting url").WithContext("url", url)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, text/markdown, text/plain")

	resp, err := f.http.Do(req)
	if err != nil {
		return "", errors.NetworkError(url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NetworkError(url, fmt.Errorf("unexpected status %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", errors.NetworkError(url, err)
	}

	contentType := resp.Header.Get("Content-Type")
	var text string
	if strings.Contains(contentType, "text/html") || looksLikeHTML(body) {
		text = ExtractText(string(body))
	} else {
		text = collapseWhitespace(string(body))
	}
	if len(text) > TextCap {
		text = text[:TextCap]
	}

	f.logger.Debug("posting fetched",
		logfields.URL(url),
		logfields.Status(resp.StatusCode),
		slog.Int("chars", len(text)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return text, nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// ExtractText walks an HTML document and collects its visible text, skipping
// script, style, and head subtrees.
func ExtractText(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		// Not parseable as HTML after all; treat as plain text.
		return collapseWhitespace(doc)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "br", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteByte('\n')
			}
		}
	}
	walk(root)
	return collapseWhitespace(sb.String())
}

// collapseWhitespace trims lines and squeezes runs of blank lines and
// spaces.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
