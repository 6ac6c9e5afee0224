package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"cyclone-bot/pkg/urlparser"
)

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{6,})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{6,})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{6,})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{6,})`),
}

type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// scrapeYouTube uses the public oEmbed endpoint, which needs no API
// key and returns title, channel and thumbnail in one call.
func (s *service) scrapeYouTube(ctx context.Context, videoURL string) (*Post, error) {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(videoURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch oembed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status error, got status %d for oembed", resp.StatusCode)
	}

	var embed oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embed); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}

	post := &Post{
		URL:       videoURL,
		Category:  urlparser.CategoryYouTube,
		Title:     embed.Title,
		Author:    embed.AuthorName,
		Thumbnail: embed.ThumbnailURL,
		VideoURL:  videoURL,
	}
	if id := youtubeVideoID(videoURL); id != "" && post.Thumbnail == "" {
		post.Thumbnail = fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
	}
	return post, nil
}

func youtubeVideoID(videoURL string) string {
	for _, pattern := range youtubeIDPatterns {
		if m := pattern.FindStringSubmatch(videoURL); m != nil {
			return m[1]
		}
	}
	return ""
}
