package scraper

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// maxBodyBytes bounds how much of a listing page we read. Marketplace
	// pages put their meta tags in the head, so 512KB is plenty.
	maxBodyBytes = 512 * 1024

	userAgent = "Mozilla/5.0 (compatible; FliplineBot/1.0; +https://flipline.app)"
)

// Metadata holds Open Graph fields scraped from a listing page.
type Metadata struct {
	Title       string
	Description string
	ImageURL    string
}

// OGScraper fetches listing pages and pulls Open Graph metadata out of
// the raw HTML with regular expressions. Listing sites render meta tags
// server-side, so no DOM parsing is needed.
type OGScraper struct {
	client *http.Client
	logger *slog.Logger
}

func NewOGScraper(timeout time.Duration, logger *slog.Logger) *OGScraper {
	return &OGScraper{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

var (
	// Matches <meta property="og:xxx" content="..."> with the attributes in
	// either order. Groups: 1=property name, 2=content (property-first form),
	// 3=content, 4=property name (content-first form).
	metaPropertyFirst = regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["']((?:og|twitter):[a-z:]+)["'][^>]+content=["']([^"']*)["']`)
	metaContentFirst  = regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']*)["'][^>]+(?:property|name)=["']((?:og|twitter):[a-z:]+)["']`)
	linkImageSrc      = regexp.MustCompile(`(?i)<link[^>]+rel=["']image_src["'][^>]+href=["']([^"']*)["']`)
)

// Fetch retrieves the page at url and extracts Open Graph metadata.
// Failures return an error; callers treat scraping as best-effort.
func (s *OGScraper) Fetch(ctx context.Context, url string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building scrape request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading listing page: %w", err)
	}

	meta := parseMetadata(string(body))
	if meta.Title == "" && meta.ImageURL == "" {
		return nil, fmt.Errorf("no open graph metadata found")
	}

	s.logger.Debug("scraped listing metadata",
		slog.String("url", url),
		slog.Bool("has_image", meta.ImageURL != ""))

	return meta, nil
}

func parseMetadata(body string) *Metadata {
	tags := make(map[string]string)

	for _, m := range metaPropertyFirst.FindAllStringSubmatch(body, -1) {
		key := strings.ToLower(m[1])
		if _, seen := tags[key]; !seen {
			tags[key] = html.UnescapeString(m[2])
		}
	}
	for _, m := range metaContentFirst.FindAllStringSubmatch(body, -1) {
		key := strings.ToLower(m[2])
		if _, seen := tags[key]; !seen {
			tags[key] = html.UnescapeString(m[1])
		}
	}

	meta := &Metadata{
		Title:       tags["og:title"],
		Description: tags["og:description"],
		ImageURL:    tags["og:image"],
	}

	// Fall back through the image sources sites actually publish
	if meta.ImageURL == "" {
		meta.ImageURL = tags["twitter:image"]
	}
	if meta.ImageURL == "" {
		if m := linkImageSrc.FindStringSubmatch(body); m != nil {
			meta.ImageURL = html.UnescapeString(m[1])
		}
	}

	return meta
}
