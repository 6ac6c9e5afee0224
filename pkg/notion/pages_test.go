package notion

import (
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"cyclone-bot/pkg/clock"
	"cyclone-bot/pkg/store"
)

func TestSanitizeAuthor(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"plain", "王小明", "王小明"},
		{"newlines collapsed", "Cheap\nFlights\n\nTeam", "Cheap Flights Team"},
		{"surrounding space", "  editor  ", "editor"},
		{"empty", "", ""},
		{"overlong capped", strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeAuthor(tt.input); got != tt.expect {
				t.Errorf("sanitizeAuthor(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestChunkContent(t *testing.T) {
	t.Run("empty yields no chunks", func(t *testing.T) {
		if got := chunkContent("   ", 5); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("short stays whole", func(t *testing.T) {
		got := chunkContent("短文", 5)
		if len(got) != 1 || got[0] != "短文" {
			t.Errorf("unexpected chunks %v", got)
		}
	})

	t.Run("long content splits on rune boundary", func(t *testing.T) {
		long := strings.Repeat("字", paragraphChunkRunes+10)
		got := chunkContent(long, 5)
		if len(got) != 2 {
			t.Fatalf("expected 2 chunks, got %d", len(got))
		}
		if n := len([]rune(got[0])); n != paragraphChunkRunes {
			t.Errorf("first chunk has %d runes", n)
		}
		if n := len([]rune(got[1])); n != 10 {
			t.Errorf("second chunk has %d runes", n)
		}
	})

	t.Run("chunk count capped", func(t *testing.T) {
		long := strings.Repeat("x", paragraphChunkRunes*4)
		got := chunkContent(long, 2)
		if len(got) != 2 {
			t.Errorf("expected cap at 2 chunks, got %d", len(got))
		}
	})
}

func TestInfoPageChildren(t *testing.T) {
	svc := &Service{clock: clock.Fixed{Time: time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC)}}
	children := svc.infoPageChildren(InfoPage{
		Title:       "公告",
		URL:         "https://example.com/post/1",
		Description: "重點摘要",
		Content:     "正文內容",
		VideoURL:    "https://example.com/v.mp4",
	})

	// callout, video, one paragraph, divider, attribution
	if len(children) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(children))
	}
	callout, ok := children[0].(*notionapi.CalloutBlock)
	if !ok {
		t.Fatalf("first block is %T", children[0])
	}
	if callout.Type != notionapi.BlockTypeCallout {
		t.Errorf("callout block type = %q", callout.Type)
	}
	if callout.Callout.RichText[0].Text.Content != "重點摘要" {
		t.Errorf("callout text = %q", callout.Callout.RichText[0].Text.Content)
	}
	if _, ok := children[1].(*notionapi.VideoBlock); !ok {
		t.Errorf("second block is %T, want video", children[1])
	}
	last, ok := children[4].(*notionapi.ParagraphBlock)
	if !ok {
		t.Fatalf("last block is %T", children[4])
	}
	if !strings.Contains(last.Paragraph.RichText[0].Text.Content, "Cyclone Discord Bot") {
		t.Errorf("attribution = %q", last.Paragraph.RichText[0].Text.Content)
	}
}

func TestPriorityName(t *testing.T) {
	if got := priorityName(store.PriorityHigh); got != "高" {
		t.Errorf("high = %q", got)
	}
	if got := priorityName(store.PriorityLow); got != "低" {
		t.Errorf("low = %q", got)
	}
	if got := priorityName("unknown"); got != "中" {
		t.Errorf("fallback = %q", got)
	}
}
