package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"cyclone-bot/internal/config"
	"cyclone-bot/internal/discord"
	"cyclone-bot/internal/dto"
	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/internal/pkg/serverutils"
	"cyclone-bot/internal/service"
	"cyclone-bot/pkg/clock"
	"cyclone-bot/pkg/googlecal"
	"cyclone-bot/pkg/store"
)

const commandTimeout = 3 * time.Minute

type Router struct {
	session  *discord.Session
	calendar service.ICalendarService
	resolver service.IResolverService
	reports  service.IReportService
	clock    clock.Clock
	cfg      *config.Config
	started  time.Time
	logger   logger.ILogger
}

func NewRouter(
	session *discord.Session,
	calendar service.ICalendarService,
	resolver service.IResolverService,
	reports service.IReportService,
	c clock.Clock,
	cfg *config.Config,
	log logger.ILogger,
) *Router {
	return &Router{
		session:  session,
		calendar: calendar,
		resolver: resolver,
		reports:  reports,
		clock:    c,
		cfg:      cfg,
		started:  c.Now(),
		logger:   log,
	}
}

func (r *Router) Register() {
	r.session.Raw().AddHandler(r.onInteractionCreate)
}

// Sync overwrites the registered application commands. Guild scoped
// when a guild id is given, global otherwise.
func (r *Router) Sync(appID, guildID string) error {
	_, err := r.session.Raw().ApplicationCommandBulkOverwrite(appID, guildID, Definitions())
	return err
}

func (r *Router) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch data.Name {
	case "ai":
		r.handleAI(ctx, s, i, data)
	case "add-event":
		r.handleAddEvent(ctx, s, i, data)
	case "add-task":
		r.handleAddTask(ctx, s, i, data)
	case "today":
		r.handleToday(ctx, s, i)
	case "status":
		r.handleStatus(ctx, s, i)
	case "notify":
		r.handleNotify(ctx, s, i, data)
	default:
		r.logger.Warn("CommandRouter", "Unknown command ignored", map[string]interface{}{"name": data.Name})
	}
}

func (r *Router) handleAI(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	req := dto.AICommandRequest{Content: optionString(data, "content")}
	if err := serverutils.ValidateRequest(req); err != nil {
		r.respondEphemeral(s, i, "請提供至少 10 個字的內容。")
		return
	}

	if err := r.deferRespond(s, i); err != nil {
		return
	}

	analysis, err := r.calendar.Analyze(ctx, service.AnalyzeRequest{
		Text:      req.Content,
		ChannelID: i.ChannelID,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotUsable) {
			r.followUpEmbed(s, i, discord.ErrorEmbed("無法從內容中擷取出有效的日期資訊。"))
			return
		}
		r.followUpEmbed(s, i, discord.ErrorEmbed("分析失敗，請稍後再試。"))
		return
	}
	analysis.Source = store.SourceAICommand

	// The preview goes out without buttons first. Only once the analysis
	// is cached under the message id do the buttons appear, so a click can
	// never race an empty cache.
	msg, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{discord.PreviewEmbed(analysis)},
	})
	if err != nil {
		r.logger.Error("CommandRouter", "Failed to send preview", map[string]interface{}{"error": err.Error()})
		return
	}
	r.calendar.CacheAnalysis(msg.ID, analysis)

	components := discord.ActionButtons(msg.ID)
	if _, err := s.FollowupMessageEdit(i.Interaction, msg.ID, &discordgo.WebhookEdit{
		Components: &components,
	}); err != nil {
		r.logger.Error("CommandRouter", "Failed to attach action buttons", map[string]interface{}{
			"message": msg.ID,
			"error":   err.Error(),
		})
	}
}

func (r *Router) handleAddEvent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	req := dto.AddEventRequest{
		Title:    optionString(data, "title"),
		Date:     optionString(data, "date"),
		Time:     optionString(data, "time"),
		EndTime:  optionString(data, "end-time"),
		Location: optionString(data, "location"),
		Note:     optionString(data, "note"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		r.respondEphemeral(s, i, "輸入格式錯誤，日期請用 YYYY-MM-DD、時間請用 HH:MM。")
		return
	}

	if err := r.deferRespond(s, i); err != nil {
		return
	}

	analysis := &store.Analysis{
		Title:      req.Title,
		Kind:       store.KindEvent,
		StartDate:  req.Date,
		StartTime:  req.Time,
		EndTime:    req.EndTime,
		Location:   req.Location,
		Summary:    req.Note,
		Priority:   store.PriorityMedium,
		Confidence: 1,
		Source:     store.SourceAICommand,
	}
	r.executeDirect(ctx, s, i, analysis, store.ActionEvent)
}

func (r *Router) handleAddTask(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	req := dto.AddTaskRequest{
		Title:    optionString(data, "title"),
		Deadline: optionString(data, "deadline"),
		Priority: optionString(data, "priority"),
		Note:     optionString(data, "note"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		r.respondEphemeral(s, i, "輸入格式錯誤，期限請用 YYYY-MM-DD。")
		return
	}

	if err := r.deferRespond(s, i); err != nil {
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = store.PriorityMedium
	}
	analysis := &store.Analysis{
		Title:      req.Title,
		Kind:       store.KindTask,
		Deadline:   req.Deadline,
		StartDate:  req.Deadline,
		Summary:    req.Note,
		Priority:   priority,
		Confidence: 1,
		Source:     store.SourceAICommand,
	}
	r.executeDirect(ctx, s, i, analysis, store.ActionTask)
}

func (r *Router) executeDirect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, analysis *store.Analysis, action string) {
	outcome, err := r.resolver.Execute(ctx, analysis, action)
	if err != nil {
		if errors.Is(err, googlecal.ErrNotConfigured) {
			r.followUpEmbed(s, i, discord.ErrorEmbed("Google 日曆尚未設定。"))
			return
		}
		r.followUpEmbed(s, i, discord.ErrorEmbed(fmt.Sprintf("建立失敗：%v", err)))
		return
	}
	r.followUpEmbed(s, i, discord.OutcomeEmbed(outcome))
}

func (r *Router) handleToday(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := r.deferRespondEphemeral(s, i); err != nil {
		return
	}
	summary, err := r.reports.BuildDaySummary(ctx, r.clock.Now())
	if err != nil {
		r.followUpEmbed(s, i, discord.ErrorEmbed("查詢行程失敗，請稍後再試。"))
		return
	}
	r.followUpEmbed(s, i, discord.ReportEmbed("📅 今日概覽", summary))
}

func (r *Router) handleStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := r.deferRespondEphemeral(s, i); err != nil {
		return
	}

	report := discord.StatusReport{
		Latency:    s.HeartbeatLatency(),
		Uptime:     r.clock.Now().Sub(r.started),
		GuildCount: len(s.State.Guilds),
		Checks:     r.configChecks(),
	}
	if s.State.User != nil {
		report.BotTag = s.State.User.Username
	}
	if stats, err := r.reports.BuildStatus(ctx); err == nil {
		report.InfoStats = stats
	}
	r.followUpEmbed(s, i, discord.StatusEmbed(report))
}

func (r *Router) configChecks() []discord.StatusCheck {
	return []discord.StatusCheck{
		{Name: "Discord Token", OK: r.cfg.Discord.Token != ""},
		{Name: "Notion API", OK: r.cfg.Notion.APIKey != ""},
		{Name: "資訊收集頻道", OK: r.cfg.Discord.InfoCollectChannelID != ""},
		{Name: "行事曆頻道", OK: r.cfg.Discord.CalendarChannelID != ""},
		{Name: "通知頻道", OK: r.cfg.Discord.NotifyChannelID != ""},
		{Name: "通知標記用戶", OK: r.cfg.Discord.NotifyUserID != ""},
		{Name: "Notion 資訊收集 DB", OK: r.cfg.Notion.InfoDatabaseID != ""},
		{Name: "Notion 行事曆 DB", OK: r.cfg.Notion.CalendarDBID != ""},
		{Name: "Gemini AI", OK: r.cfg.Gemini.APIKey != ""},
		{Name: "Apify 爬蟲", OK: r.cfg.Apify.APIKey != ""},
		{Name: "Google 服務", OK: r.cfg.GoogleConfigured()},
	}
}

func (r *Router) handleNotify(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if r.cfg.Discord.NotifyChannelID == "" {
		r.respondEphemeral(s, i, "通知頻道尚未設定。")
		return
	}
	if err := r.deferRespondEphemeral(s, i); err != nil {
		return
	}

	kind := optionString(data, "type")
	if kind == "" {
		kind = "preview"
	}

	var err error
	var label string
	switch kind {
	case "reminder":
		label = "今日提醒"
		err = r.reports.SendMorningReport(ctx)
	default:
		label = "明日預覽"
		err = r.reports.SendEveningPreview(ctx)
	}
	if err != nil {
		r.followUpText(s, i, fmt.Sprintf("❌ 發送失敗：%v", err))
		return
	}
	r.followUpText(s, i, fmt.Sprintf("✅ 已發送「%s」通知！", label))
}

func (r *Router) deferRespond(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		r.logger.Error("CommandRouter", "Failed to defer interaction", map[string]interface{}{"error": err.Error()})
	}
	return err
}

func (r *Router) deferRespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		r.logger.Error("CommandRouter", "Failed to defer interaction", map[string]interface{}{"error": err.Error()})
	}
	return err
}

func (r *Router) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		r.logger.Error("CommandRouter", "Failed to respond", map[string]interface{}{"error": err.Error()})
	}
}

func (r *Router) followUpEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		r.logger.Error("CommandRouter", "Failed to send follow-up", map[string]interface{}{"error": err.Error()})
	}
}

func (r *Router) followUpText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	}); err != nil {
		r.logger.Error("CommandRouter", "Failed to send follow-up", map[string]interface{}{"error": err.Error()})
	}
}

func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}
