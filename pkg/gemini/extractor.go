package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cyclone-bot/pkg/clock"
	"cyclone-bot/pkg/store"
)

// ErrUnreadableDocument means the PDF could not be analyzed directly and
// the text fallback found nothing either. Terminal, not retried.
var ErrUnreadableDocument = errors.New("PDF 中沒有可讀取的文字")

// PDFTextExtractor pulls embedded text out of a PDF when the model
// rejects the binary. Implemented by pkg/pdftext.
type PDFTextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// IExtractor turns raw content into a structured Analysis.
type IExtractor interface {
	ExtractFromText(ctx context.Context, text string) (*store.Analysis, error)
	ExtractFromImage(ctx context.Context, image []byte, mimeType string) (*store.Analysis, error)
	ExtractFromPDF(ctx context.Context, pdf []byte) (*store.Analysis, error)
	GeneratePostTitle(ctx context.Context, content string) (string, error)
}

type extractor struct {
	generator Generator
	pdfText   PDFTextExtractor
	clock     clock.Clock
}

func NewExtractor(generator Generator, pdfText PDFTextExtractor, c clock.Clock) IExtractor {
	return &extractor{
		generator: generator,
		pdfText:   pdfText,
		clock:     c,
	}
}

func (e *extractor) ExtractFromText(ctx context.Context, text string) (*store.Analysis, error) {
	prompt := buildExtractionPrompt(e.clock)

	response, err := e.generator.GenerateContent(ctx, []Part{
		TextPart(prompt),
		TextPart("\n\n以下是要分析的內容：\n" + text),
	})
	if err != nil {
		return nil, err
	}

	return parseAnalysisResponse(response)
}

func (e *extractor) ExtractFromImage(ctx context.Context, image []byte, mimeType string) (*store.Analysis, error) {
	prompt := buildExtractionPrompt(e.clock)

	response, err := e.generator.GenerateContent(ctx, []Part{
		TextPart(prompt),
		BlobPart(mimeType, image),
	})
	if err != nil {
		return nil, err
	}

	return parseAnalysisResponse(response)
}

// ExtractFromPDF submits the PDF binary directly; Gemini reads PDFs. If
// the model call fails, fall back to local text extraction and resubmit as
// text. An empty fallback is an unreadable document.
func (e *extractor) ExtractFromPDF(ctx context.Context, pdf []byte) (*store.Analysis, error) {
	prompt := buildExtractionPrompt(e.clock)

	response, err := e.generator.GenerateContent(ctx, []Part{
		TextPart(prompt),
		BlobPart("application/pdf", pdf),
	})
	if err == nil {
		return parseAnalysisResponse(response)
	}

	text, textErr := e.pdfText.ExtractText(pdf)
	if textErr != nil {
		return nil, fmt.Errorf("pdf fallback extraction: %w", ErrUnreadableDocument)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrUnreadableDocument
	}

	return e.ExtractFromText(ctx, text)
}

// GeneratePostTitle asks the model for a one-line summary of a social
// media post, used as the Notion page title. Short posts are returned
// verbatim. Failures degrade to an empty title rather than an error.
func (e *extractor) GeneratePostTitle(ctx context.Context, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}
	if len([]rune(content)) <= 30 {
		return content, nil
	}

	truncated := content
	if runes := []rune(truncated); len(runes) > 1000 {
		truncated = string(runes[:1000])
	}

	response, err := e.generator.GenerateContent(ctx, []Part{
		TextPart("請用一句話（最多25個中文字）摘要以下社群媒體貼文的主題或重點。\n" +
			"只回覆摘要文字，不要加引號、標點符號開頭、或其他格式。\n" +
			"如果內容是對話或閒聊，提取主要話題。\n\n貼文內容：\n" + truncated),
	})
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(response)
	title = strings.Trim(title, `"「」『』`)
	title = strings.TrimLeft(title, "，。、：；！？,.;:!? ")
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:50])
	}
	return title, nil
}
