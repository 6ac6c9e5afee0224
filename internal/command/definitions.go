// Package command implements the slash command surface.
package command

import "github.com/bwmarrin/discordgo"

// Definitions lists every slash command the bot registers.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ai",
			Description: "分析一段文字並擷取行程或任務",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "content", Description: "要分析的文字", Required: true},
			},
		},
		{
			Name:        "add-event",
			Description: "直接建立 Google 日曆活動",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "活動標題", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "date", Description: "日期 (YYYY-MM-DD)", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "time", Description: "開始時間 (HH:MM)", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "end-time", Description: "結束時間 (HH:MM)", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "location", Description: "地點", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "note", Description: "備註", Required: false},
			},
		},
		{
			Name:        "add-task",
			Description: "直接建立 Google 任務",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "任務標題", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "deadline", Description: "期限 (YYYY-MM-DD)", Required: true},
				{
					Type: discordgo.ApplicationCommandOptionString, Name: "priority", Description: "優先級", Required: false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "高", Value: "high"},
						{Name: "中", Value: "medium"},
						{Name: "低", Value: "low"},
					},
				},
				{Type: discordgo.ApplicationCommandOptionString, Name: "note", Description: "備註", Required: false},
			},
		},
		{
			Name:        "today",
			Description: "查看今天的行程與待辦任務",
		},
		{
			Name:        "status",
			Description: "查看機器人狀態與設定",
		},
		{
			Name:        "notify",
			Description: "立即發送每日通知",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "通知類型", Required: false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "🌙 明日預覽", Value: "preview"},
						{Name: "☀️ 今日提醒", Value: "reminder"},
					},
				},
			},
		},
	}
}
