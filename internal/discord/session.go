// Package discord wraps the gateway session and owns every embed the
// bot renders.
package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"cyclone-bot/internal/pkg/logger"
)

type Session struct {
	raw    *discordgo.Session
	logger logger.ILogger
}

func NewSession(token string, log logger.ILogger) (*Session, error) {
	raw, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	raw.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Session{raw: raw, logger: log}, nil
}

// Raw exposes the underlying session for handler registration.
func (s *Session) Raw() *discordgo.Session {
	return s.raw
}

func (s *Session) Open() error {
	if err := s.raw.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	s.logger.Info("Discord", "Gateway connected", map[string]interface{}{
		"user": s.raw.State.User.Username,
	})
	return nil
}

func (s *Session) Close() error {
	return s.raw.Close()
}

// Latency is the last heartbeat round trip, zero before the gateway
// connects.
func (s *Session) Latency() time.Duration {
	return s.raw.HeartbeatLatency()
}

// SendText implements service.ChannelSender for the notify bus.
func (s *Session) SendText(channelID, content string) error {
	_, err := s.raw.ChannelMessageSend(channelID, content)
	return err
}
