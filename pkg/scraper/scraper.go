package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cyclone-bot/pkg/urlparser"
)

// Post is the normalized result of scraping any supported source.
type Post struct {
	URL         string
	Category    urlparser.Category
	Title       string
	Description string
	Author      string
	Content     string
	Thumbnail   string
	VideoURL    string
}

// IScraper fetches post metadata and content for a recognized URL.
type IScraper interface {
	Scrape(ctx context.Context, url string) (*Post, error)
}

// Config carries the Apify credentials and actor overrides.
type Config struct {
	APIToken       string
	Timeout        time.Duration
	FacebookActor  string
	InstagramActor string
	ThreadsActor   string
}

type service struct {
	client *http.Client
	apify  *apifyClient
}

func NewService(cfg Config) IScraper {
	client := &http.Client{Timeout: cfg.Timeout}
	s := &service{client: client}
	if cfg.APIToken != "" {
		s.apify = &apifyClient{
			token:  cfg.APIToken,
			client: client,
			actors: actorTable(cfg),
		}
	}
	return s
}

// Scrape routes the URL to its platform fetcher. Social platforms go
// through Apify when a token is configured and fall back to plain meta
// scraping when the actor run fails or no token exists.
func (s *service) Scrape(ctx context.Context, url string) (*Post, error) {
	parsed := urlparser.Parse(url)
	if parsed == nil {
		return nil, fmt.Errorf("無法辨識的網址: %s", url)
	}

	switch parsed.Category {
	case urlparser.CategoryYouTube:
		if post, err := s.scrapeYouTube(ctx, parsed.URL); err == nil {
			return post, nil
		}
		return s.scrapeMeta(ctx, parsed)
	case urlparser.CategoryFacebook, urlparser.CategoryInstagram, urlparser.CategoryThreads:
		if s.apify != nil {
			if post, err := s.apify.scrape(ctx, parsed); err == nil {
				return post, nil
			}
		}
		return s.scrapeMeta(ctx, parsed)
	default:
		return s.scrapeMeta(ctx, parsed)
	}
}
