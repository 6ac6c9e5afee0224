package service

import (
	"context"
	"errors"
	"fmt"

	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/pkg/gemini"
	"cyclone-bot/pkg/notion"
	"cyclone-bot/pkg/scraper"
	"cyclone-bot/pkg/urlparser"
)

// ErrURLInFlight means the same URL is already being collected.
var ErrURLInFlight = errors.New("這個網址正在處理中")

// URLGuard dedupes concurrent collection of the same URL.
type URLGuard interface {
	MarkURLProcessing(url string) bool
	MarkURLDone(url string)
}

// InfoWriter is the slice of the Notion service the collector needs.
type InfoWriter interface {
	CreateInfoPage(ctx context.Context, page notion.InfoPage) (*notion.PageRef, error)
}

// CollectResult is what the handler renders after a URL is archived.
type CollectResult struct {
	Title     string
	Category  urlparser.Category
	NotionURL string
	Thumbnail string
	Author    string
}

type IInfoCollectService interface {
	CollectURL(ctx context.Context, url string) (*CollectResult, error)
}

type infoCollectService struct {
	scraper   scraper.IScraper
	extractor gemini.IExtractor
	notion    InfoWriter
	guard     URLGuard
	logger    logger.ILogger
}

func NewInfoCollectService(
	scrape scraper.IScraper,
	extractor gemini.IExtractor,
	notionSvc InfoWriter,
	guard URLGuard,
	log logger.ILogger,
) IInfoCollectService {
	return &infoCollectService{
		scraper:   scrape,
		extractor: extractor,
		notion:    notionSvc,
		guard:     guard,
		logger:    log,
	}
}

func (is *infoCollectService) CollectURL(ctx context.Context, url string) (*CollectResult, error) {
	// 1. Dedupe rapid re-posts of the same URL
	if !is.guard.MarkURLProcessing(url) {
		return nil, ErrURLInFlight
	}
	defer is.guard.MarkURLDone(url)

	// 2. Scrape the post
	post, err := is.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("擷取內容失敗: %w", err)
	}

	// 3. Social captions make poor page titles, let the model write one
	if needsGeneratedTitle(post) {
		if title, titleErr := is.extractor.GeneratePostTitle(ctx, post.Content); titleErr == nil && title != "" {
			post.Title = title
		} else if titleErr != nil {
			is.logger.Warn("InfoCollectService", "Title generation failed, keeping scraped title", map[string]interface{}{
				"url":   url,
				"error": titleErr.Error(),
			})
		}
	}

	// 4. Archive to the info database
	ref, err := is.notion.CreateInfoPage(ctx, notion.InfoPage{
		Title:       post.Title,
		URL:         post.URL,
		Type:        urlparser.NotionType(post.Category),
		Description: post.Description,
		Author:      post.Author,
		Content:     post.Content,
		VideoURL:    post.VideoURL,
	})
	if err != nil {
		return nil, fmt.Errorf("儲存到 Notion 失敗: %w", err)
	}

	is.logger.Info("InfoCollectService", "URL archived", map[string]interface{}{
		"url":      url,
		"category": string(post.Category),
		"page":     ref.ID,
	})
	return &CollectResult{
		Title:     post.Title,
		Category:  post.Category,
		NotionURL: ref.URL,
		Thumbnail: post.Thumbnail,
		Author:    post.Author,
	}, nil
}

// needsGeneratedTitle is true when the scraper produced no real title,
// which is the norm for social posts where the caption stands in.
func needsGeneratedTitle(post *scraper.Post) bool {
	if post.Content == "" {
		return false
	}
	if post.Title == "" || post.Title == "未知標題" {
		return true
	}
	return urlparser.IsSocialMedia(post.URL) && post.Title == urlparser.DisplayName(post.Category)+" 貼文"
}
