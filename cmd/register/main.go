package main

import (
	"flag"
	"log"

	"cyclone-bot/internal/command"
	"cyclone-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// Registers the slash commands with Discord. Run once after deploying,
// or again whenever the command definitions change.
func main() {
	guildID := flag.String("guild", "", "register for a single guild instead of globally (instant, good for testing)")
	flag.Parse()

	cfg := config.Load()
	if cfg.Discord.Token == "" || cfg.Discord.ClientID == "" {
		log.Fatal("DISCORD_TOKEN and DISCORD_CLIENT_ID must be set")
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("Unable to create Discord session: %v", err)
	}

	defs := command.Definitions()
	registered, err := session.ApplicationCommandBulkOverwrite(cfg.Discord.ClientID, *guildID, defs)
	if err != nil {
		log.Fatalf("Unable to register commands: %v", err)
	}

	scope := "globally"
	if *guildID != "" {
		scope = "for guild " + *guildID
	}
	log.Printf("✅ Registered %d slash commands %s:", len(registered), scope)
	for _, cmd := range registered {
		log.Printf("  /%s - %s", cmd.Name, cmd.Description)
	}
}
