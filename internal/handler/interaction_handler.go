package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"cyclone-bot/internal/discord"
	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/internal/service"
	"cyclone-bot/pkg/googlecal"
	"cyclone-bot/pkg/store"
)

const resolveTimeout = 2 * time.Minute

var knownActions = map[string]bool{
	store.ActionEvent:  true,
	store.ActionTask:   true,
	store.ActionNotion: true,
	store.ActionCancel: true,
}

// parseCustomID splits a button id of the form "<action>:<message id>".
// Anything else, including ids from other bots sharing the channel, is
// rejected.
func parseCustomID(customID string) (action, messageID string, ok bool) {
	parts := strings.SplitN(customID, ":", 2)
	if len(parts) != 2 || parts[1] == "" || !knownActions[parts[0]] {
		return "", "", false
	}
	return parts[0], parts[1], true
}

type InteractionHandler struct {
	session  *discord.Session
	resolver service.IResolverService
	logger   logger.ILogger
}

func NewInteractionHandler(session *discord.Session, resolver service.IResolverService, log logger.ILogger) *InteractionHandler {
	return &InteractionHandler{
		session:  session,
		resolver: resolver,
		logger:   log,
	}
}

func (h *InteractionHandler) Register() {
	h.session.Raw().AddHandler(h.onInteractionCreate)
}

func (h *InteractionHandler) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	action, messageID, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		h.logger.Warn("InteractionHandler", "Unknown component id ignored", map[string]interface{}{
			"custom_id": i.MessageComponentData().CustomID,
		})
		return
	}

	// Acknowledge within Discord's 3 second window, the real work can
	// take far longer.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		h.logger.Error("InteractionHandler", "Failed to defer interaction", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	outcome, err := h.resolver.Resolve(ctx, messageID, action)
	if err != nil {
		h.handleResolveError(s, i, err)
		return
	}

	// Swap the preview for the outcome and drop the buttons.
	embed := discord.OutcomeEmbed(outcome)
	if _, editErr := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         i.Message.ID,
		Channel:    i.ChannelID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &[]discordgo.MessageComponent{},
	}); editErr != nil {
		h.logger.Error("InteractionHandler", "Failed to edit preview message", map[string]interface{}{
			"message": i.Message.ID,
			"error":   editErr.Error(),
		})
	}
}

func (h *InteractionHandler) handleResolveError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	var already *service.AlreadyResolvedError
	switch {
	case errors.As(err, &already):
		h.followUp(s, i, discord.RecordEmbed(already.Record))
	case errors.Is(err, service.ErrInFlight):
		h.followUp(s, i, discord.ErrorEmbed("正在處理中，請稍候。"))
	case errors.Is(err, service.ErrExpired):
		h.followUp(s, i, discord.ErrorEmbed("操作已過期，請重新傳送訊息。"))
		h.dropButtons(s, i)
	case errors.Is(err, googlecal.ErrNotConfigured):
		h.followUp(s, i, discord.ErrorEmbed("Google 日曆尚未設定，可以改用「存到 Notion」。"))
	default:
		h.followUp(s, i, discord.ErrorEmbed("處理失敗，請再試一次。"))
	}
}

func (h *InteractionHandler) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	}); err != nil {
		h.logger.Error("InteractionHandler", "Failed to send follow-up", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// dropButtons removes the component row from an expired preview.
func (h *InteractionHandler) dropButtons(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         i.Message.ID,
		Channel:    i.ChannelID,
		Components: &[]discordgo.MessageComponent{},
	}); err != nil {
		h.logger.Error("InteractionHandler", "Failed to drop buttons", map[string]interface{}{
			"message": i.Message.ID,
			"error":   err.Error(),
		})
	}
}
