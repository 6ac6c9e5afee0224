package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cyclone-bot/pkg/urlparser"
)

const apifyBaseURL = "https://api.apify.com/v2"

// Actor ids per platform, "~" is Apify's owner separator.
const (
	defaultFacebookActor  = "apify~facebook-posts-scraper"
	defaultInstagramActor = "apify~instagram-api-scraper"
	defaultThreadsActor   = "apify~threads-scraper"
)

func actorTable(cfg Config) map[urlparser.Category]string {
	actors := map[urlparser.Category]string{
		urlparser.CategoryFacebook:  defaultFacebookActor,
		urlparser.CategoryInstagram: defaultInstagramActor,
		urlparser.CategoryThreads:   defaultThreadsActor,
	}
	if cfg.FacebookActor != "" {
		actors[urlparser.CategoryFacebook] = cfg.FacebookActor
	}
	if cfg.InstagramActor != "" {
		actors[urlparser.CategoryInstagram] = cfg.InstagramActor
	}
	if cfg.ThreadsActor != "" {
		actors[urlparser.CategoryThreads] = cfg.ThreadsActor
	}
	return actors
}

type apifyClient struct {
	token  string
	client *http.Client
	actors map[urlparser.Category]string
}

// scrape runs the platform actor synchronously and maps the first
// dataset item onto a Post.
func (c *apifyClient) scrape(ctx context.Context, parsed *urlparser.Parsed) (*Post, error) {
	actor, ok := c.actors[parsed.Category]
	if !ok {
		return nil, fmt.Errorf("no actor for category %q", parsed.Category)
	}

	input := map[string]interface{}{
		"directUrls":    []string{parsed.URL},
		"startUrls":     []map[string]string{{"url": parsed.URL}},
		"resultsLimit":  1,
		"maxPosts":      1,
		"addParentData": false,
	}
	items, err := c.runActor(ctx, actor, input)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("actor %s returned no items", actor)
	}

	item := items[0]
	post := &Post{
		URL:      parsed.URL,
		Category: parsed.Category,
		Title:    stringField(item, "title", "caption", "text"),
		Author:   stringField(item, "ownerUsername", "ownerFullName", "username", "pageName", "user"),
		Content:  stringField(item, "text", "caption", "content"),
	}
	post.Thumbnail = stringField(item, "displayUrl", "thumbnailUrl", "imageUrl", "picture")
	post.VideoURL = stringField(item, "videoUrl")
	if post.Title == "" {
		post.Title = firstLine(post.Content)
	}
	if post.Title == "" {
		post.Title = urlparser.DisplayName(parsed.Category) + " 貼文"
	}
	post.Description = truncateDescription(post.Content)
	return post, nil
}

func (c *apifyClient) runActor(ctx context.Context, actorID string, input interface{}) ([]map[string]interface{}, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal actor input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?token=%s", apifyBaseURL, actorID, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run actor %s: %w", actorID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status error, got status %d. with response body %s", resp.StatusCode, string(raw))
	}

	var items []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode dataset items: %w", err)
	}
	return items, nil
}

func stringField(item map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := item[key].(string); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

func firstLine(text string) string {
	line := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	runes := []rune(line)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return line
}

func truncateDescription(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > 300 {
		return string(runes[:300]) + "…"
	}
	return string(runes)
}
