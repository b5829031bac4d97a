package channels

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/kirahq/kirabridge/pkg/bus"
	"github.com/kirahq/kirabridge/pkg/config"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

const cliChatID = "cli"

// CLIChannel is a local readline front-end, mainly for trying the pipeline
// without wiring up Slack or the desktop app. It emits electron-shaped
// payloads so messages exercise the same adapter path the gateway uses.
type CLIChannel struct {
	*BaseChannel
	userID string
	rl     *readline.Instance
}

func NewCLIChannel(cfg config.CLIConfig, b *bus.MessageBus) *CLIChannel {
	userID := cfg.UserID
	if userID == "" {
		userID = "local"
	}
	return &CLIChannel{
		BaseChannel: NewBaseChannel("cli", b, nil),
		userID:      userID,
	}
}

func (c *CLIChannel) Start(ctx context.Context) error {
	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	c.rl = rl
	c.setRunning(true)

	go c.readLoop(ctx)
	return nil
}

func (c *CLIChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

func (c *CLIChannel) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF || err != nil {
			logger.InfoC("cli", "Input closed")
			return
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		c.publishInbound(cliChatID, schema.RawMessage{
			"source":    schema.SourceElectron,
			"text":      text,
			"userId":    c.userID,
			"userName":  c.userID,
			"channelId": cliChatID,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (c *CLIChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("cli channel not running")
	}
	fmt.Printf("\nbot> %s\n", msg.Content)
	for _, m := range msg.Media {
		fmt.Printf("bot> [file] %s\n", m)
	}
	c.rl.Refresh()
	return nil
}
