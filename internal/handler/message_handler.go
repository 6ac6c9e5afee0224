// Package handler wires gateway events to the services.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"cyclone-bot/internal/config"
	"cyclone-bot/internal/discord"
	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/internal/service"
	"cyclone-bot/pkg/urlparser"
)

// maxAttachmentBytes caps what the bot will download for analysis.
const maxAttachmentBytes = 10 << 20

// maxURLsPerMessage bounds how many links one message can archive.
const maxURLsPerMessage = 3

const analyzeTimeout = 3 * time.Minute

type MessageHandler struct {
	session   *discord.Session
	calendar  service.ICalendarService
	collector service.IInfoCollectService
	cfg       config.DiscordConfig
	client    *http.Client
	logger    logger.ILogger
}

func NewMessageHandler(
	session *discord.Session,
	calendar service.ICalendarService,
	collector service.IInfoCollectService,
	cfg config.DiscordConfig,
	log logger.ILogger,
) *MessageHandler {
	return &MessageHandler{
		session:   session,
		calendar:  calendar,
		collector: collector,
		cfg:       cfg,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    log,
	}
}

func (h *MessageHandler) Register() {
	h.session.Raw().AddHandler(h.onMessageCreate)
}

func (h *MessageHandler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	urls := urlparser.ExtractURLs(m.Content)

	if h.isInfoChannel(m.ChannelID) {
		if len(urls) == 0 {
			return
		}
		h.handleCollect(s, m, urls)
		return
	}

	if !h.isCalendarChannel(m.ChannelID) {
		return
	}

	// A message that is nothing but links belongs to the collector, not
	// the calendar pipeline.
	if len(urls) > 0 && isOnlyURLs(m.Content, urls) {
		h.handleCollect(s, m, urls)
		return
	}

	h.handleAnalyze(s, m)
}

func (h *MessageHandler) isInfoChannel(channelID string) bool {
	return h.cfg.InfoCollectChannelID != "" && channelID == h.cfg.InfoCollectChannelID
}

func (h *MessageHandler) isCalendarChannel(channelID string) bool {
	if h.cfg.CalendarChannelID == "" {
		return true
	}
	return channelID == h.cfg.CalendarChannelID
}

func (h *MessageHandler) handleAnalyze(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	attachments := h.downloadAttachments(ctx, m.Attachments)
	if h.calendar.DetectContentType(m.Content, attachments) == "" {
		return
	}

	// The processing reply is edited in place; its id becomes the
	// cache key the buttons resolve against.
	processing, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{discord.ProcessingEmbed()},
		Reference: m.Reference(),
	})
	if err != nil {
		h.logger.Error("MessageHandler", "Failed to send processing reply", map[string]interface{}{
			"channel": m.ChannelID,
			"error":   err.Error(),
		})
		return
	}

	analysis, err := h.calendar.Analyze(ctx, service.AnalyzeRequest{
		Text:        m.Content,
		Attachments: attachments,
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
	})
	if err != nil {
		message := "分析失敗，請稍後再試。"
		if errors.Is(err, service.ErrNoContent) || errors.Is(err, service.ErrNotUsable) {
			message = err.Error()
		}
		h.editTo(s, m.ChannelID, processing.ID, discord.ErrorEmbed(message), nil)
		return
	}

	h.calendar.CacheAnalysis(processing.ID, analysis)
	h.editTo(s, m.ChannelID, processing.ID, discord.PreviewEmbed(analysis), discord.ActionButtons(processing.ID))
}

// editTo replaces a message's embed and component row.
func (h *MessageHandler) editTo(s *discordgo.Session, channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		h.logger.Error("MessageHandler", "Failed to edit message", map[string]interface{}{
			"channel": channelID,
			"message": messageID,
			"error":   err.Error(),
		})
	}
}

func (h *MessageHandler) handleCollect(s *discordgo.Session, m *discordgo.MessageCreate, urls []string) {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	seen := map[string]bool{}
	handled := 0
	for _, url := range urls {
		if handled >= maxURLsPerMessage {
			break
		}
		if seen[url] || urlparser.Parse(url) == nil {
			continue
		}
		seen[url] = true
		handled++

		_ = s.ChannelTyping(m.ChannelID)
		result, err := h.collector.CollectURL(ctx, url)
		if err != nil {
			if errors.Is(err, service.ErrURLInFlight) {
				continue
			}
			_ = s.MessageReactionAdd(m.ChannelID, m.ID, "❌")
			h.replyError(s, m, fmt.Sprintf("收藏失敗：%v", err))
			continue
		}
		_ = s.MessageReactionAdd(m.ChannelID, m.ID, "✅")

		if _, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Embeds:    []*discordgo.MessageEmbed{discord.CollectEmbed(result)},
			Reference: m.Reference(),
		}); err != nil {
			h.logger.Error("MessageHandler", "Failed to send collect result", map[string]interface{}{
				"channel": m.ChannelID,
				"error":   err.Error(),
			})
		}
	}
}

// downloadAttachments fetches analyzable attachments, skipping anything
// oversized or unsupported.
func (h *MessageHandler) downloadAttachments(ctx context.Context, attachments []*discordgo.MessageAttachment) []service.Attachment {
	var out []service.Attachment
	for _, att := range attachments {
		if att.Size > maxAttachmentBytes {
			h.logger.Warn("MessageHandler", "Attachment too large, skipped", map[string]interface{}{
				"filename": att.Filename,
				"size":     att.Size,
			})
			continue
		}
		if !isAnalyzable(att) {
			continue
		}
		data, err := h.fetch(ctx, att.URL)
		if err != nil {
			h.logger.Error("MessageHandler", "Attachment download failed", map[string]interface{}{
				"filename": att.Filename,
				"error":    err.Error(),
			})
			continue
		}
		out = append(out, service.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Data:        data,
		})
	}
	return out
}

func (h *MessageHandler) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status error, got status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
}

func (h *MessageHandler) replyError(s *discordgo.Session, m *discordgo.MessageCreate, message string) {
	if _, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{discord.ErrorEmbed(message)},
		Reference: m.Reference(),
	}); err != nil {
		h.logger.Error("MessageHandler", "Failed to send error reply", map[string]interface{}{
			"channel": m.ChannelID,
			"error":   err.Error(),
		})
	}
}

func isAnalyzable(att *discordgo.MessageAttachment) bool {
	if att.ContentType == "application/pdf" || strings.HasSuffix(strings.ToLower(att.Filename), ".pdf") {
		return true
	}
	return strings.HasPrefix(att.ContentType, "image/")
}

// isOnlyURLs reports whether stripping every URL leaves nothing worth
// analyzing.
func isOnlyURLs(content string, urls []string) bool {
	stripped := content
	for _, url := range urls {
		stripped = strings.ReplaceAll(stripped, url, "")
	}
	return len([]rune(strings.TrimSpace(stripped))) < 10
}
