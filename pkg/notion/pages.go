package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"

	"cyclone-bot/pkg/store"
)

// Notion caps a single rich_text content at 2000 characters.
const paragraphChunkRunes = 1900

const maxContentBlocks = 20

// InfoPage carries everything needed to archive a scraped post.
type InfoPage struct {
	Title       string
	URL         string
	Type        string
	Description string
	Author      string
	Content     string
	VideoURL    string
}

// TaskPage carries an extracted event or task headed for the calendar
// database.
type TaskPage struct {
	Analysis   *store.Analysis
	GoogleLink string
	RemindAt   string
}

func (s *Service) CreateInfoPage(ctx context.Context, page InfoPage) (*PageRef, error) {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{Title: richText(truncateRunes(page.Title, 100))},
		"URL":  notionapi.URLProperty{URL: page.URL},
	}
	if page.Type != "" {
		props["類型"] = notionapi.SelectProperty{Select: notionapi.Option{Name: page.Type}}
	}
	if author := sanitizeAuthor(page.Author); author != "" {
		props["作者"] = notionapi.RichTextProperty{RichText: richText(author)}
	}
	if page.Description != "" {
		props["摘要"] = notionapi.RichTextProperty{RichText: richText(truncateRunes(page.Description, 1000))}
	}

	created, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.infoDBID,
		},
		Properties: props,
		Children:   s.infoPageChildren(page),
	})
	if err != nil {
		return nil, fmt.Errorf("create info page: %w", err)
	}
	id := string(created.ID)
	return &PageRef{ID: id, URL: pageURL(id)}, nil
}

// infoPageChildren lays out the page body: a pinned summary callout, an
// embedded video when the scraper found one, the content split into
// paragraph chunks, and the attribution footer.
func (s *Service) infoPageChildren(page InfoPage) []notionapi.Block {
	children := make([]notionapi.Block, 0, maxContentBlocks+4)
	if page.Description != "" {
		children = append(children, &notionapi.CalloutBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeCallout},
			Callout: notionapi.Callout{
				RichText: richText(truncateRunes(page.Description, paragraphChunkRunes)),
				Icon:     &notionapi.Icon{Type: "emoji", Emoji: emoji("📌")},
			},
		})
	}
	if page.VideoURL != "" {
		children = append(children, &notionapi.VideoBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeVideo},
			Video: notionapi.Video{
				Type:     notionapi.FileTypeExternal,
				External: &notionapi.FileObject{URL: page.VideoURL},
			},
		})
	}
	for _, chunk := range chunkContent(page.Content, maxContentBlocks) {
		children = append(children, paragraph(richText(chunk)))
	}
	return append(children,
		divider(),
		paragraph(richText(s.attribution())),
	)
}

func (s *Service) CreateTaskPage(ctx context.Context, page TaskPage) (*PageRef, error) {
	if !s.HasCalendarDB() {
		return nil, fmt.Errorf("calendar database not configured")
	}
	a := page.Analysis

	kind := "任務"
	if a.Kind == store.KindEvent {
		kind = "活動"
	}
	props := notionapi.Properties{
		"Name":  notionapi.TitleProperty{Title: richText(truncateRunes(a.Title, 100))},
		"類型":    notionapi.SelectProperty{Select: notionapi.Option{Name: kind}},
		"狀態":    notionapi.SelectProperty{Select: notionapi.Option{Name: "待處理"}},
		"已提醒":   notionapi.CheckboxProperty{Checkbox: false},
		"優先級":   notionapi.SelectProperty{Select: notionapi.Option{Name: priorityName(a.Priority)}},
	}

	start, err := s.parseDate(a.EffectiveStartDate(), a.StartTime)
	if err != nil {
		return nil, err
	}
	date := &notionapi.DateObject{Start: start}
	if a.EndDate != "" || a.EndTime != "" {
		endDate := a.EndDate
		if endDate == "" {
			endDate = a.EffectiveStartDate()
		}
		if end, endErr := s.parseDate(endDate, a.EndTime); endErr == nil {
			date.End = end
		}
	}
	props["日期"] = notionapi.DateProperty{Date: date}

	if a.Location != "" {
		props["地點"] = notionapi.RichTextProperty{RichText: richText(a.Location)}
	}
	if page.GoogleLink != "" {
		props["Google 連結"] = notionapi.URLProperty{URL: page.GoogleLink}
	}
	if len(page.RemindAt) >= 16 {
		if remind, remindErr := s.parseDate(page.RemindAt[:10], page.RemindAt[11:16]); remindErr == nil {
			props["提醒時間"] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: remind}}
		}
	}

	children := []notionapi.Block{}
	if a.Summary != "" {
		children = append(children, paragraph(append([]notionapi.RichText{boldText("摘要：")}, richText(a.Summary)...)))
	}
	if a.DeadlineDescription != "" {
		children = append(children, paragraph(append([]notionapi.RichText{boldText("期限說明：")}, richText(a.DeadlineDescription)...)))
	}
	if c := a.Contact; c.Name != "" || c.Phone != "" || c.Email != "" {
		parts := []string{}
		if c.Name != "" {
			parts = append(parts, c.Name)
		}
		if c.Phone != "" {
			parts = append(parts, c.Phone)
		}
		if c.Email != "" {
			parts = append(parts, c.Email)
		}
		children = append(children, paragraph(append([]notionapi.RichText{boldText("聯絡人：")}, richText(strings.Join(parts, " / "))...)))
	}
	children = append(children, divider(), paragraph(richText(s.attribution())))

	created, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.calendarDBID,
		},
		Properties: props,
		Children:   children,
	})
	if err != nil {
		return nil, fmt.Errorf("create task page: %w", err)
	}
	id := string(created.ID)
	return &PageRef{ID: id, URL: pageURL(id)}, nil
}

func priorityName(p string) string {
	switch p {
	case store.PriorityHigh:
		return "高"
	case store.PriorityLow:
		return "低"
	default:
		return "中"
	}
}

// sanitizeAuthor collapses whitespace and strips handles that would
// break a rich_text cell.
func sanitizeAuthor(author string) string {
	author = strings.Join(strings.Fields(author), " ")
	return truncateRunes(strings.TrimSpace(author), 100)
}

func chunkContent(content string, maxChunks int) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	runes := []rune(content)
	chunks := []string{}
	for len(runes) > 0 && len(chunks) < maxChunks {
		n := paragraphChunkRunes
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

func paragraph(text []notionapi.RichText) *notionapi.ParagraphBlock {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
		Paragraph:  notionapi.Paragraph{RichText: text},
	}
}

func divider() *notionapi.DividerBlock {
	return &notionapi.DividerBlock{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeDivider},
	}
}

func emoji(e string) *notionapi.Emoji {
	em := notionapi.Emoji(e)
	return &em
}
