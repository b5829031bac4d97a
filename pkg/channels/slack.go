package channels

import (
	"context"
	"fmt"
	"os"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/kirahq/kirabridge/pkg/bus"
	"github.com/kirahq/kirabridge/pkg/config"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

// SlackChannel connects over socket mode and forwards message events as
// slack-shaped raw payloads. Payloads keep the native Slack field names
// (user, channel, ts) so the router's structural sniffing and the Slack
// adapter see exactly what the Slack API produced.
type SlackChannel struct {
	*BaseChannel
	api    *slack.Client
	socket *socketmode.Client
	botID  string
}

func NewSlackChannel(cfg config.SlackConfig, b *bus.MessageBus) (*SlackChannel, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("slack channel requires bot_token and app_token")
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))

	return &SlackChannel{
		BaseChannel: NewBaseChannel(schema.SourceSlack, b, cfg.AllowFrom),
		api:         api,
		socket:      socketmode.New(api),
	}, nil
}

func (c *SlackChannel) Start(ctx context.Context) error {
	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	c.botID = auth.UserID

	go func() {
		if err := c.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorCF("slack", "Socket mode terminated", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	go c.eventLoop(ctx)

	c.setRunning(true)
	logger.InfoCF("slack", "Slack channel connected", map[string]interface{}{
		"bot_user": auth.User,
	})
	return nil
}

func (c *SlackChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	return nil
}

func (c *SlackChannel) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.socket.Events:
			if !ok {
				return
			}
			c.handleEvent(evt)
		}
	}
}

func (c *SlackChannel) handleEvent(evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}

	apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	if evt.Request != nil {
		c.socket.Ack(*evt.Request)
	}
	if apiEvent.Type != slackevents.CallbackEvent {
		return
	}

	msgEvent, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	// Skip our own messages and other bots.
	if msgEvent.BotID != "" || msgEvent.User == c.botID || msgEvent.User == "" {
		return
	}
	if !c.senderAllowed(msgEvent.User) {
		logger.WarnCF("slack", "Sender not in allowlist, ignoring", map[string]interface{}{
			"user": msgEvent.User,
		})
		return
	}

	payload := schema.RawMessage{
		"source":  schema.SourceSlack,
		"user":    msgEvent.User,
		"channel": msgEvent.Channel,
		"text":    msgEvent.Text,
		"ts":      msgEvent.TimeStamp,
	}
	if msgEvent.ThreadTimeStamp != "" {
		payload["thread_ts"] = msgEvent.ThreadTimeStamp
	}

	c.publishInbound(msgEvent.Channel, payload)
}

func (c *SlackChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("slack channel not running")
	}

	if msg.Content != "" {
		_, _, err := c.api.PostMessageContext(ctx, msg.ChatID, slack.MsgOptionText(msg.Content, false))
		if err != nil {
			return fmt.Errorf("post message: %w", err)
		}
	}

	for _, path := range msg.Media {
		info, err := os.Stat(path)
		if err != nil {
			logger.WarnCF("slack", "Skipping unreadable media file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		_, err = c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
			Channel:  msg.ChatID,
			File:     path,
			Filename: info.Name(),
			FileSize: int(info.Size()),
		})
		if err != nil {
			logger.ErrorCF("slack", "Failed to upload file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	return nil
}
