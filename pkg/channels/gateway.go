package channels

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirahq/kirabridge/pkg/attachments"
	"github.com/kirahq/kirabridge/pkg/bus"
	"github.com/kirahq/kirabridge/pkg/config"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/schema"
)

const gatewayMaxFrameBytes = 8 * 1024 * 1024

// GatewayChannel serves the websocket endpoint the Electron desktop app
// and web UI connect to. Clients send electron-shaped JSON payloads;
// replies are routed back over the connection that owns the payload's
// channelId. Inline base64 file payloads are persisted through the
// attachment store and rewritten to local paths before adaptation.
type GatewayChannel struct {
	*BaseChannel
	cfg      config.GatewayConfig
	store    *attachments.Store
	server   *http.Server
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*gatewayConn // chatID -> connection
}

type gatewayConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (g *gatewayConn) writeJSON(v interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn.WriteJSON(v)
}

func NewGatewayChannel(cfg config.GatewayConfig, b *bus.MessageBus, store *attachments.Store) *GatewayChannel {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	return &GatewayChannel{
		BaseChannel: NewBaseChannel(schema.SourceElectron, b, cfg.AllowFrom),
		cfg:         cfg,
		store:       store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The gateway binds to loopback by default; origin policy
			// belongs to whatever fronts it in other deployments.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*gatewayConn),
	}
}

func (c *GatewayChannel) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(c.cfg.Path, c.handleWS)

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
	c.server = &http.Server{Addr: addr, Handler: mux}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}

	go func() {
		if err := c.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("gateway", "Server terminated", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	c.setRunning(true)
	logger.InfoCF("gateway", "Gateway listening", map[string]interface{}{
		"addr": addr,
		"path": c.cfg.Path,
	})
	return nil
}

func (c *GatewayChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.server.Shutdown(shutdownCtx)
}

func (c *GatewayChannel) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("gateway", "Websocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	conn.SetReadLimit(gatewayMaxFrameBytes)

	gc := &gatewayConn{conn: conn}
	var ownedChats []string

	defer func() {
		conn.Close()
		c.mu.Lock()
		for _, id := range ownedChats {
			if c.conns[id] == gc {
				delete(c.conns, id)
			}
		}
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var payload schema.RawMessage
		if err := json.Unmarshal(data, &payload); err != nil {
			gc.writeJSON(map[string]string{"type": "error", "error": "invalid json payload"})
			continue
		}

		userID := payload.String("userId")
		if !c.senderAllowed(userID) {
			logger.WarnCF("gateway", "Sender not in allowlist, ignoring", map[string]interface{}{
				"user_id": userID,
			})
			gc.writeJSON(map[string]string{"type": "error", "error": "sender not allowed"})
			continue
		}

		chatID := payload.String("channelId")
		if chatID == "" {
			chatID = userID
		}

		c.mu.Lock()
		if c.conns[chatID] != gc {
			c.conns[chatID] = gc
			ownedChats = append(ownedChats, chatID)
		}
		c.mu.Unlock()

		c.storeInlineFiles(chatID, payload)

		if !payload.Has("source") {
			payload["source"] = schema.SourceElectron
		}
		c.publishInbound(chatID, payload)
	}
}

// storeInlineFiles persists {name, data} file entries and rewrites them to
// {name, path} so adapters and the pipeline only ever see local paths.
func (c *GatewayChannel) storeInlineFiles(chatID string, payload schema.RawMessage) {
	files, ok := payload["files"].([]interface{})
	if !ok || len(files) == 0 {
		return
	}

	rewritten := make([]interface{}, 0, len(files))
	for _, f := range files {
		entry, ok := f.(map[string]interface{})
		if !ok {
			rewritten = append(rewritten, f)
			continue
		}
		encoded, ok := entry["data"].(string)
		if !ok || encoded == "" {
			rewritten = append(rewritten, f)
			continue
		}

		name, _ := entry["name"].(string)
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			logger.WarnCF("gateway", "Invalid base64 file payload, dropping", map[string]interface{}{
				"name": name,
			})
			continue
		}

		rec, err := c.store.SaveBytes(c.Name(), chatID, name, data)
		if err != nil {
			logger.ErrorCF("gateway", "Failed to store attachment", map[string]interface{}{
				"name":  name,
				"error": err.Error(),
			})
			continue
		}
		rewritten = append(rewritten, map[string]interface{}{
			"name": rec.Name,
			"path": rec.Path,
		})
	}
	payload["files"] = rewritten
}

func (c *GatewayChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("gateway not running")
	}

	c.mu.RLock()
	gc, ok := c.conns[msg.ChatID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connected client for chat %s", msg.ChatID)
	}

	return gc.writeJSON(map[string]interface{}{
		"type":           "response",
		"channelId":      msg.ChatID,
		"content":        msg.Content,
		"media":          msg.Media,
		"correlation_id": msg.CorrelationID,
	})
}
