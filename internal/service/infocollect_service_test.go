package service

import (
	"context"
	"errors"
	"testing"

	"cyclone-bot/pkg/notion"
	"cyclone-bot/pkg/scraper"
	"cyclone-bot/pkg/urlparser"
)

type fakeScraper struct {
	post *scraper.Post
	err  error
}

func (f *fakeScraper) Scrape(_ context.Context, _ string) (*scraper.Post, error) {
	return f.post, f.err
}

type fakeInfoWriter struct {
	ref   *notion.PageRef
	err   error
	pages []notion.InfoPage
}

func (f *fakeInfoWriter) CreateInfoPage(_ context.Context, page notion.InfoPage) (*notion.PageRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pages = append(f.pages, page)
	return f.ref, nil
}

type fakeGuard struct {
	busy map[string]bool
}

func newFakeGuard() *fakeGuard { return &fakeGuard{busy: map[string]bool{}} }

func (f *fakeGuard) MarkURLProcessing(url string) bool {
	if f.busy[url] {
		return false
	}
	f.busy[url] = true
	return true
}

func (f *fakeGuard) MarkURLDone(url string) { delete(f.busy, url) }

func TestCollectURLArchivesPost(t *testing.T) {
	scrape := &fakeScraper{post: &scraper.Post{
		URL:         "https://example.com/article",
		Category:    urlparser.CategoryWeb,
		Title:       "台北書展報導",
		Description: "年度書展",
		Author:      "聯合報",
		Content:     "書展內容全文",
	}}
	writer := &fakeInfoWriter{ref: &notion.PageRef{ID: "p1", URL: "https://www.notion.so/p1"}}
	guard := newFakeGuard()
	svc := NewInfoCollectService(scrape, &fakeExtractor{}, writer, guard, nopLogger{})

	result, err := svc.CollectURL(context.Background(), "https://example.com/article")
	if err != nil {
		t.Fatalf("CollectURL: %v", err)
	}
	if result.Title != "台北書展報導" || result.NotionURL != "https://www.notion.so/p1" {
		t.Errorf("result = %+v", result)
	}
	if len(writer.pages) != 1 || writer.pages[0].Type != "網路文章" {
		t.Errorf("pages = %+v", writer.pages)
	}
	if guard.busy["https://example.com/article"] {
		t.Error("processing mark should be cleared afterwards")
	}
}

func TestCollectURLGeneratesTitleForUntitledPost(t *testing.T) {
	scrape := &fakeScraper{post: &scraper.Post{
		URL:      "https://www.instagram.com/p/abc123/",
		Category: urlparser.CategoryInstagram,
		Title:    "",
		Content:  "今天去了陽明山看海芋，天氣超好",
	}}
	extractor := &fakeExtractor{title: "陽明山海芋一日遊"}
	writer := &fakeInfoWriter{ref: &notion.PageRef{URL: "u"}}
	svc := NewInfoCollectService(scrape, extractor, writer, newFakeGuard(), nopLogger{})

	result, err := svc.CollectURL(context.Background(), "https://www.instagram.com/p/abc123/")
	if err != nil {
		t.Fatalf("CollectURL: %v", err)
	}
	if result.Title != "陽明山海芋一日遊" {
		t.Errorf("title = %q", result.Title)
	}
	if writer.pages[0].Type != "IG" {
		t.Errorf("notion type = %q", writer.pages[0].Type)
	}
}

func TestCollectURLKeepsScrapedTitleWhenGenerationFails(t *testing.T) {
	scrape := &fakeScraper{post: &scraper.Post{
		URL:      "https://www.instagram.com/p/abc123/",
		Category: urlparser.CategoryInstagram,
		Title:    "",
		Content:  "貼文內容",
	}}
	extractor := &fakeExtractor{titleErr: errors.New("model offline")}
	writer := &fakeInfoWriter{ref: &notion.PageRef{URL: "u"}}
	svc := NewInfoCollectService(scrape, extractor, writer, newFakeGuard(), nopLogger{})

	if _, err := svc.CollectURL(context.Background(), "https://www.instagram.com/p/abc123/"); err != nil {
		t.Fatalf("title generation failure must not abort the archive: %v", err)
	}
}

func TestCollectURLDedupesInFlight(t *testing.T) {
	guard := newFakeGuard()
	guard.MarkURLProcessing("https://example.com/busy")
	svc := NewInfoCollectService(&fakeScraper{}, &fakeExtractor{}, &fakeInfoWriter{}, guard, nopLogger{})

	_, err := svc.CollectURL(context.Background(), "https://example.com/busy")
	if !errors.Is(err, ErrURLInFlight) {
		t.Fatalf("err = %v, want ErrURLInFlight", err)
	}
}

func TestCollectURLScrapeFailureReleasesGuard(t *testing.T) {
	guard := newFakeGuard()
	svc := NewInfoCollectService(&fakeScraper{err: errors.New("timeout")}, &fakeExtractor{}, &fakeInfoWriter{}, guard, nopLogger{})

	if _, err := svc.CollectURL(context.Background(), "https://example.com/x"); err == nil {
		t.Fatal("expected scrape error")
	}
	if guard.busy["https://example.com/x"] {
		t.Error("guard must be released after a failure")
	}
}
