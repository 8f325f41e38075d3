// Package web provides page-reading capabilities for the code planner.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/net/html"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

const (
	// ToolName is the name the model uses to call the summarizer.
	ToolName = "summarize_page"
	// DefaultMaxChars bounds the summary returned to the model.
	DefaultMaxChars = 20000
	// DefaultMaxBody bounds how much of a response body is parsed.
	DefaultMaxBody = 4 << 20
	// DefaultUserAgent identifies the fetcher.
	DefaultUserAgent = "scout/1.0 (+https://github.com/aretw0/scout)"
)

// ErrInvalidURL is returned when the requested URL is not absolute http(s).
var ErrInvalidURL = errors.New("invalid page url")

// Summarizer fetches a page and reduces it to title, visible text and links.
type Summarizer struct {
	client    *http.Client
	maxChars  int
	maxBody   int64
	userAgent string
	logger    *slog.Logger
}

var _ ports.Capability = (*Summarizer)(nil)

// Option configures the summarizer.
type Option func(*Summarizer)

// WithHTTPClient sets the client used to fetch pages.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Summarizer) {
		if c != nil {
			s.client = c
		}
	}
}

// WithMaxChars sets the summary budget.
func WithMaxChars(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Summarizer) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSummarizer creates the summarize_page capability.
func NewSummarizer(opts ...Option) *Summarizer {
	s := &Summarizer{
		client:    &http.Client{Timeout: 30 * time.Second},
		maxChars:  DefaultMaxChars,
		maxBody:   DefaultMaxBody,
		userAgent: DefaultUserAgent,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type summarizeArgs struct {
	URL string `mapstructure:"url"`
}

// Spec declares the capability in the web group.
func (s *Summarizer) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        ToolName,
		Description: "Fetches a web page and returns its title, visible text and links, so you can see how the page is structured.",
		Group:       domain.ToolGroupWeb,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "Absolute http(s) URL of the page to read.",
				},
			},
			"required": []any{"url"},
		},
	}
}

// Invoke fetches args["url"] and returns its summary.
func (s *Summarizer) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var in summarizeArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	target, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, in.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}

	page, err := Extract(io.LimitReader(resp.Body, s.maxBody), target)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", target, err)
	}
	s.logger.Debug("page summarized", "url", target.String(), "links", len(page.Links))
	return Truncate(page.String(), s.maxChars), nil
}

// Link is an anchor found on a page, resolved against the page URL.
type Link struct {
	Text string
	Href string
}

// Page is the reduced form of an HTML document.
type Page struct {
	URL   string
	Title string
	Text  []string
	Links []Link
}

// String renders the page as plain text sections.
func (p Page) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", p.URL)
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	if len(p.Text) > 0 {
		b.WriteString("\nText:\n")
		for _, line := range p.Text {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if len(p.Links) > 0 {
		b.WriteString("\nLinks:\n")
		for _, l := range p.Links {
			fmt.Fprintf(&b, "- %s -> %s\n", l.Text, l.Href)
		}
	}
	return b.String()
}

// skipped elements never contribute visible text.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "head": true, "iframe": true,
}

// Extract walks an HTML document collecting its title, text blocks and anchors.
// base resolves relative hrefs; it may be nil.
func Extract(r io.Reader, base *url.URL) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, err
	}
	var p Page
	if base != nil {
		p.URL = base.String()
	}
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "title" && p.Title == "":
				p.Title = collapse(textOf(n))
				return
			case skipped[n.Data]:
				if n.Data == "head" {
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						if c.Type == html.ElementNode && c.Data == "title" {
							walk(c)
						}
					}
				}
				return
			case n.Data == "a":
				href := resolve(base, attr(n, "href"))
				text := collapse(textOf(n))
				if href != "" && !seen[href] {
					seen[href] = true
					p.Links = append(p.Links, Link{Text: text, Href: href})
				}
				if text != "" {
					p.Text = append(p.Text, text)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if t := collapse(n.Data); t != "" {
				p.Text = append(p.Text, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return p, nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && skipped[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes, marking the cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "\n[truncated]"
}
