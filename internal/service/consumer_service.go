package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"cyclone-bot/internal/pkg/logger"
)

// ChannelSender delivers plain text to a Discord channel. Implemented
// by the discord session wrapper.
type ChannelSender interface {
	SendText(channelID, content string) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	sender    ChannelSender
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	sender ChannelSender,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		sender:    sender,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	channelID, _ := envelope.Data["channel_id"].(string)
	content, _ := envelope.Data["content"].(string)
	if channelID == "" || content == "" {
		cs.logger.Warn("ConsumerService", "Event missing channel or content", map[string]interface{}{"type": envelope.Type})
		msg.Ack()
		return
	}

	if err := cs.sender.SendText(channelID, content); err != nil {
		cs.logger.Error("ConsumerService", "Failed to deliver notification", map[string]interface{}{
			"type":    envelope.Type,
			"channel": channelID,
			"error":   err.Error(),
		})
		msg.Nack() // Nack for retriable delivery errors
		return
	}

	cs.logger.Info("ConsumerService", "Notification delivered", map[string]interface{}{"type": envelope.Type, "channel": channelID})
	msg.Ack()
}
