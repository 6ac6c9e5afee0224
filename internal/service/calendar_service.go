package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/pkg/gemini"
	"cyclone-bot/pkg/store"
)

// ErrNoContent means the message held nothing the extractor can work
// with, so passive handlers should stay silent.
var ErrNoContent = errors.New("訊息中沒有可分析的內容")

// ErrNotUsable means the model replied but found no date information.
var ErrNotUsable = errors.New("無法從內容中擷取出有效的日期資訊")

// minTextRunes is the floor below which plain text is considered noise.
const minTextRunes = 10

// Attachment is a downloaded Discord attachment handed to the analyzer.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AnalyzeRequest bundles one message worth of analyzable input.
type AnalyzeRequest struct {
	Text        string
	Attachments []Attachment
	ChannelID   string
	MessageID   string
}

// AnalysisCache is the slice of the interaction cache the calendar and
// resolver services need.
type AnalysisCache interface {
	SaveAnalysis(messageID string, a *store.Analysis)
	GetAnalysis(messageID string) (*store.Analysis, bool)
	DeleteAnalysis(messageID string)
	SaveRecord(messageID string, rec *store.Record)
	GetRecord(messageID string) (*store.Record, bool)
	ClaimResolution(messageID string) bool
	ReleaseClaim(messageID string)
}

type ICalendarService interface {
	DetectContentType(text string, attachments []Attachment) string
	Analyze(ctx context.Context, req AnalyzeRequest) (*store.Analysis, error)
	CacheAnalysis(previewMessageID string, a *store.Analysis)
}

type calendarService struct {
	extractor gemini.IExtractor
	repo      AnalysisCache
	logger    logger.ILogger
}

func NewCalendarService(extractor gemini.IExtractor, repo AnalysisCache, log logger.ILogger) ICalendarService {
	return &calendarService{
		extractor: extractor,
		repo:      repo,
		logger:    log,
	}
}

// DetectContentType classifies what the extractor should look at.
// Precedence: PDF beats image beats text, and text shorter than the
// noise floor counts as nothing.
func (cs *calendarService) DetectContentType(text string, attachments []Attachment) string {
	for _, att := range attachments {
		if att.ContentType == "application/pdf" || strings.HasSuffix(strings.ToLower(att.Filename), ".pdf") {
			return store.SourcePDF
		}
	}
	for _, att := range attachments {
		if strings.HasPrefix(att.ContentType, "image/") {
			return store.SourceImage
		}
	}
	if len([]rune(strings.TrimSpace(text))) >= minTextRunes {
		return store.SourceText
	}
	return ""
}

func (cs *calendarService) Analyze(ctx context.Context, req AnalyzeRequest) (*store.Analysis, error) {
	source := cs.DetectContentType(req.Text, req.Attachments)
	if source == "" {
		return nil, ErrNoContent
	}

	// 1. Dispatch to the extractor by content type
	var (
		analysis *store.Analysis
		err      error
	)
	switch source {
	case store.SourcePDF:
		att := findAttachment(req.Attachments, store.SourcePDF)
		analysis, err = cs.extractor.ExtractFromPDF(ctx, att.Data)
	case store.SourceImage:
		att := findAttachment(req.Attachments, store.SourceImage)
		analysis, err = cs.extractor.ExtractFromImage(ctx, att.Data, att.ContentType)
	default:
		analysis, err = cs.extractor.ExtractFromText(ctx, req.Text)
	}
	if err != nil {
		cs.logger.Error("CalendarService", "Extraction failed", map[string]interface{}{
			"source":  source,
			"message": req.MessageID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("analyze %s content: %w", source, err)
	}

	// 2. Gate on usability before anything is cached
	if !analysis.Usable() {
		cs.logger.Info("CalendarService", "Analysis not usable", map[string]interface{}{
			"source":     source,
			"title":      analysis.Title,
			"confidence": analysis.Confidence,
		})
		return nil, ErrNotUsable
	}

	// 3. A deadline-only task still needs a date on the calendar
	if analysis.StartDate == "" {
		analysis.StartDate = analysis.Deadline
	}

	analysis.Source = source
	analysis.OriginalMessageID = req.MessageID
	analysis.ChannelID = req.ChannelID
	return analysis, nil
}

// CacheAnalysis keys the pending analysis by the preview message that
// carries the action buttons.
func (cs *calendarService) CacheAnalysis(previewMessageID string, a *store.Analysis) {
	cs.repo.SaveAnalysis(previewMessageID, a)
	cs.logger.Info("CalendarService", "Analysis cached", map[string]interface{}{
		"message": previewMessageID,
		"title":   a.Title,
		"type":    a.Kind,
	})
}

func findAttachment(attachments []Attachment, source string) Attachment {
	for _, att := range attachments {
		switch source {
		case store.SourcePDF:
			if att.ContentType == "application/pdf" || strings.HasSuffix(strings.ToLower(att.Filename), ".pdf") {
				return att
			}
		case store.SourceImage:
			if strings.HasPrefix(att.ContentType, "image/") {
				return att
			}
		}
	}
	return Attachment{}
}
