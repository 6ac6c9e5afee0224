package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cyclone-bot/pkg/urlparser"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const maxArticleRunes = 3000

// scrapeMeta pulls Open Graph and standard meta tags from the page
// itself. It is the generic path for web articles and the fallback for
// every platform fetcher.
func (s *service) scrapeMeta(ctx context.Context, parsed *urlparser.Parsed) (*Post, error) {
	doc, err := s.fetchDocument(ctx, parsed.URL)
	if err != nil {
		return nil, err
	}

	post := &Post{
		URL:         parsed.URL,
		Category:    parsed.Category,
		Title:       metaContent(doc, "og:title", "twitter:title"),
		Description: metaContent(doc, "og:description", "twitter:description", "description"),
		Author:      metaContent(doc, "og:site_name", "author"),
		Thumbnail:   metaContent(doc, "og:image", "twitter:image"),
	}
	if post.Title == "" {
		post.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if post.Title == "" {
		post.Title = "未知標題"
	}
	if parsed.Category == urlparser.CategoryWeb {
		post.Content = extractArticleText(doc)
	}
	return post, nil
}

func (s *service) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status error, got status %d for %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// metaContent checks both property= and name= attributes, first match
// wins.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		for _, selector := range []string{
			fmt.Sprintf(`meta[property="%s"]`, key),
			fmt.Sprintf(`meta[name="%s"]`, key),
		} {
			if content, ok := doc.Find(selector).First().Attr("content"); ok {
				if content = strings.TrimSpace(content); content != "" {
					return content
				}
			}
		}
	}
	return ""
}

// extractArticleText joins paragraph text from the most article-like
// container, capped so Notion page bodies stay reasonable.
func extractArticleText(doc *goquery.Document) string {
	var paragraphs []string
	total := 0
	for _, container := range []string{"article p", "main p", "p"} {
		doc.Find(container).Each(func(_ int, sel *goquery.Selection) {
			if total >= maxArticleRunes {
				return
			}
			text := strings.TrimSpace(sel.Text())
			if len([]rune(text)) < 10 {
				return
			}
			paragraphs = append(paragraphs, text)
			total += len([]rune(text))
		})
		if len(paragraphs) > 0 {
			break
		}
	}
	joined := strings.Join(paragraphs, "\n\n")
	runes := []rune(joined)
	if len(runes) > maxArticleRunes {
		return string(runes[:maxArticleRunes])
	}
	return joined
}
