package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cyclone-bot/pkg/urlparser"
)

const sampleArticle = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="台北國際書展 2025">
<meta property="og:description" content="六月登場的年度書展">
<meta property="og:image" content="https://example.com/cover.jpg">
<meta name="author" content="聯合報">
</head>
<body>
<article>
<p>台北國際書展將於六月十日登場，為期六天。</p>
<p>短句</p>
<p>今年主題國為義大利，預計有五百家出版社參展。</p>
</article>
</body>
</html>`

func TestMetaContent(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleArticle))
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}

	tests := []struct {
		name   string
		keys   []string
		expect string
	}{
		{"og property", []string{"og:title"}, "台北國際書展 2025"},
		{"name attribute", []string{"author"}, "聯合報"},
		{"first match wins", []string{"og:description", "description"}, "六月登場的年度書展"},
		{"missing", []string{"og:video"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metaContent(doc, tt.keys...); got != tt.expect {
				t.Errorf("metaContent(%v) = %q, want %q", tt.keys, got, tt.expect)
			}
		})
	}
}

func TestExtractArticleText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleArticle))
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}

	text := extractArticleText(doc)
	if !strings.Contains(text, "台北國際書展將於六月十日登場") {
		t.Errorf("missing first paragraph: %q", text)
	}
	if !strings.Contains(text, "義大利") {
		t.Errorf("missing second paragraph: %q", text)
	}
	if strings.Contains(text, "短句") {
		t.Errorf("short fragment should be skipped: %q", text)
	}
}

func TestScrapeMetaFromServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Write([]byte(sampleArticle))
	}))
	defer server.Close()

	svc := NewService(Config{Timeout: 5 * time.Second}).(*service)
	post, err := svc.scrapeMeta(context.Background(), &urlparser.Parsed{Category: urlparser.CategoryWeb, URL: server.URL})
	if err != nil {
		t.Fatalf("scrapeMeta: %v", err)
	}
	if post.Title != "台北國際書展 2025" {
		t.Errorf("title = %q", post.Title)
	}
	if post.Thumbnail != "https://example.com/cover.jpg" {
		t.Errorf("thumbnail = %q", post.Thumbnail)
	}
	if post.Content == "" {
		t.Error("expected article content for web category")
	}
}

func TestScrapeUnrecognizedURL(t *testing.T) {
	svc := NewService(Config{Timeout: time.Second})
	if _, err := svc.Scrape(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error for unrecognized input")
	}
}

func TestYoutubeVideoID(t *testing.T) {
	tests := []struct {
		url    string
		expect string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc123def45", "abc123def45"},
		{"https://www.youtube.com/embed/abc123def45", "abc123def45"},
		{"https://example.com/watch", ""},
	}
	for _, tt := range tests {
		if got := youtubeVideoID(tt.url); got != tt.expect {
			t.Errorf("youtubeVideoID(%q) = %q, want %q", tt.url, got, tt.expect)
		}
	}
}

func TestApifyFallsBackToMeta(t *testing.T) {
	// Actor endpoint is unreachable here, so the social URL must fall
	// back to plain meta scraping of the page itself.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleArticle))
	}))
	defer server.Close()

	svc := NewService(Config{Timeout: 5 * time.Second}).(*service)
	post, err := svc.scrapeMeta(context.Background(), &urlparser.Parsed{Category: urlparser.CategoryInstagram, URL: server.URL})
	if err != nil {
		t.Fatalf("scrapeMeta: %v", err)
	}
	if post.Category != urlparser.CategoryInstagram {
		t.Errorf("category = %q", post.Category)
	}
	if post.Content != "" {
		t.Error("social fallback should not extract article text")
	}
}

func TestActorTable(t *testing.T) {
	defaults := actorTable(Config{})
	if defaults[urlparser.CategoryInstagram] != defaultInstagramActor {
		t.Errorf("instagram default = %q", defaults[urlparser.CategoryInstagram])
	}

	overridden := actorTable(Config{InstagramActor: "me~custom-ig"})
	if overridden[urlparser.CategoryInstagram] != "me~custom-ig" {
		t.Errorf("instagram override = %q", overridden[urlparser.CategoryInstagram])
	}
	if overridden[urlparser.CategoryFacebook] != defaultFacebookActor {
		t.Errorf("facebook should keep its default, got %q", overridden[urlparser.CategoryFacebook])
	}
}

func TestStringFieldAndTruncation(t *testing.T) {
	item := map[string]interface{}{
		"caption": "  第一行內容\n第二行  ",
		"count":   3,
	}
	if got := stringField(item, "title", "caption"); got != "第一行內容\n第二行" {
		t.Errorf("stringField = %q", got)
	}
	if got := stringField(item, "count", "missing"); got != "" {
		t.Errorf("non-string field should be skipped, got %q", got)
	}
	if got := firstLine("第一行內容\n第二行"); got != "第一行內容" {
		t.Errorf("firstLine = %q", got)
	}
	long := strings.Repeat("字", 400)
	if got := truncateDescription(long); len([]rune(got)) != 301 {
		t.Errorf("truncateDescription length = %d runes", len([]rune(got)))
	}
}
