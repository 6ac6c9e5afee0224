package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"cyclone-bot/internal/service"
	"cyclone-bot/pkg/store"
	"cyclone-bot/pkg/urlparser"
)

// Embed accent colors.
const (
	colorEvent   = 0x3498DB
	colorTask    = 0x2ECC71
	colorInfo    = 0x9B59B6
	colorSuccess = 0x2ECC71
	colorError   = 0xE74C3C
	colorNeutral = 0x95A5A6
)

// PreviewEmbed renders the extracted analysis for confirmation.
func PreviewEmbed(a *store.Analysis) *discordgo.MessageEmbed {
	kind := "✅ 任務"
	color := colorTask
	if a.Kind == store.KindEvent {
		kind = "📅 活動"
		color = colorEvent
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "標題", Value: a.Title, Inline: false},
		{Name: "類型", Value: kind, Inline: true},
		{Name: "日期", Value: formatDateRange(a), Inline: true},
	}
	if a.Location != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "地點", Value: a.Location, Inline: true})
	}
	if a.Deadline != "" && a.Deadline != a.StartDate {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "期限", Value: a.Deadline, Inline: true})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "優先級", Value: priorityLabel(a.Priority), Inline: true})
	if c := a.Contact; c.Name != "" || c.Phone != "" || c.Email != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "聯絡人", Value: contactLine(c), Inline: false})
	}
	if a.Reminder.Enabled {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "提醒", Value: reminderLine(a.Reminder), Inline: false})
	}
	if a.Summary != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "摘要", Value: a.Summary, Inline: false})
	}

	return &discordgo.MessageEmbed{
		Title:  "📋 AI 分析結果",
		Color:  color,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("信心度 %s %.0f%%", confidenceBar(a.Confidence), a.Confidence*100),
		},
	}
}

// ActionButtons is the component row under every preview embed.
// Custom IDs carry the preview message id so a click can be resolved
// against the cached analysis even after a gateway reconnect.
func ActionButtons(messageID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "加入行事曆", Emoji: &discordgo.ComponentEmoji{Name: "📅"}, Style: discordgo.PrimaryButton, CustomID: store.ActionEvent + ":" + messageID},
				discordgo.Button{Label: "建立任務", Emoji: &discordgo.ComponentEmoji{Name: "✅"}, Style: discordgo.SuccessButton, CustomID: store.ActionTask + ":" + messageID},
				discordgo.Button{Label: "存到 Notion", Emoji: &discordgo.ComponentEmoji{Name: "📝"}, Style: discordgo.SecondaryButton, CustomID: store.ActionNotion + ":" + messageID},
				discordgo.Button{Label: "取消", Emoji: &discordgo.ComponentEmoji{Name: "❌"}, Style: discordgo.DangerButton, CustomID: store.ActionCancel + ":" + messageID},
			},
		},
	}
}

// OutcomeEmbed renders a resolved action.
func OutcomeEmbed(outcome *service.Outcome) *discordgo.MessageEmbed {
	var title, description string
	color := colorSuccess
	switch outcome.Action {
	case store.ActionEvent:
		title = "📅 已加入 Google 日曆"
		description = outcome.Title
	case store.ActionTask:
		title = "✅ 已建立 Google 任務"
		description = outcome.Title
	case store.ActionNotion:
		title = "📝 已儲存到 Notion"
		description = outcome.Title
	case store.ActionCancel:
		title = "❌ 已取消"
		description = "本次分析結果不會被儲存。"
		color = colorNeutral
	}

	embed := &discordgo.MessageEmbed{Title: title, Description: description, Color: color}
	if outcome.GoogleLink != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Google", Value: outcome.GoogleLink})
	}
	if outcome.NotionURL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Notion", Value: outcome.NotionURL})
	}
	if outcome.Warning != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "⚠️ " + outcome.Warning}
	}
	return embed
}

// CollectEmbed renders an archived URL.
func CollectEmbed(result *service.CollectResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📚 已收藏到資訊庫",
		Description: result.Title,
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "來源", Value: urlparser.DisplayName(result.Category), Inline: true},
			{Name: "Notion", Value: result.NotionURL, Inline: false},
		},
	}
	if result.Author != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "作者", Value: result.Author, Inline: true})
	}
	if result.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: result.Thumbnail}
	}
	return embed
}

// ReportEmbed wraps a prebuilt markdown report body.
func ReportEmbed(title, body string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: body,
		Color:       colorEvent,
	}
}

// ProcessingEmbed is the placeholder posted while analysis runs. The
// message it lands on is later edited into the preview or an error.
func ProcessingEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔍 分析中...",
		Description: "正在分析內容，請稍候。",
		Color:       colorNeutral,
	}
}

// StatusCheck is one line of the /status configuration checklist.
type StatusCheck struct {
	Name string
	OK   bool
}

// StatusReport feeds the /status embed.
type StatusReport struct {
	BotTag     string
	Latency    time.Duration
	Uptime     time.Duration
	GuildCount int
	Checks     []StatusCheck
	InfoStats  string
}

func StatusEmbed(report StatusReport) *discordgo.MessageEmbed {
	basics := []string{
		fmt.Sprintf("**名稱：** %s", report.BotTag),
		fmt.Sprintf("**延遲：** %dms", report.Latency.Milliseconds()),
		fmt.Sprintf("**運行時間：** %s", formatUptime(report.Uptime)),
		fmt.Sprintf("**伺服器數：** %d", report.GuildCount),
	}

	checks := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		mark := "❌"
		if check.OK {
			mark = "✅"
		}
		checks = append(checks, fmt.Sprintf("%s %s", mark, check.Name))
	}

	embed := &discordgo.MessageEmbed{
		Title: "🤖 機器人狀態",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📊 基本資訊", Value: strings.Join(basics, "\n"), Inline: false},
			{Name: "⚙️ 設定狀態", Value: strings.Join(checks, "\n"), Inline: false},
		},
	}
	if report.InfoStats != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "📚 資訊庫", Value: report.InfoStats, Inline: false,
		})
	}
	return embed
}

func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}

// ErrorEmbed renders a user-facing failure.
func ErrorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚠️ 處理失敗",
		Description: message,
		Color:       colorError,
	}
}

// RecordEmbed reports an action that already completed earlier.
func RecordEmbed(rec *store.Record) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "ℹ️ 這則訊息已處理過",
		Description: fmt.Sprintf("「%s」已於 %s 完成。", rec.Title, rec.ResolvedAt.Format("2006/01/02 15:04")),
		Color:       colorNeutral,
	}
	if rec.Link != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "連結", Value: rec.Link})
	}
	return embed
}

// confidenceBar renders ten cells, filled in proportion to confidence.
func confidenceBar(confidence float64) string {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	filled := int(confidence*10 + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func formatDateRange(a *store.Analysis) string {
	date := a.EffectiveStartDate()
	if a.StartTime != "" {
		date += " " + a.StartTime
	}
	if a.EndDate != "" || a.EndTime != "" {
		end := a.EndDate
		if a.EndTime != "" {
			if end != "" {
				end += " "
			}
			end += a.EndTime
		}
		date += " ～ " + end
	}
	return date
}

func priorityLabel(priority string) string {
	switch priority {
	case store.PriorityHigh:
		return "🔴 高"
	case store.PriorityLow:
		return "🟢 低"
	default:
		return "🟡 中"
	}
}

func contactLine(c store.Contact) string {
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
	return strings.Join(parts, " / ")
}

func reminderLine(r store.Reminder) string {
	switch r.Mode {
	case store.ReminderModeExact:
		return "⏰ " + r.ExactTime
	case store.ReminderModeBefore:
		return fmt.Sprintf("⏰ 開始前 %d 分鐘", r.BeforeMinutes)
	}
	return "⏰ 已啟用"
}
