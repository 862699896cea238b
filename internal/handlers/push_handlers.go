package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"rentgrid/internal/models"
	"rentgrid/internal/push"
	"rentgrid/internal/services"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Tenant instances connect from their own hosts
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PushHandlers owns the tenant-facing push channel endpoint. Tenants are
// identified solely by the slug in the connection address; there is no
// secondary credential on this channel (known hardening gap).
type PushHandlers struct {
	hub           *push.Hub
	tenantService services.TenantService
	configService services.ConfigService
	syncService   services.ConfigSyncService
}

func NewPushHandlers(hub *push.Hub, tenantService services.TenantService, configService services.ConfigService, syncService services.ConfigSyncService) *PushHandlers {
	return &PushHandlers{
		hub:           hub,
		tenantService: tenantService,
		configService: configService,
		syncService:   syncService,
	}
}

// Connect upgrades the connection, registers the channel, and sends the
// current configuration as an initial snapshot.
func (h *PushHandlers) Connect(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		// Missing tenant identity is a policy violation, rejected outright
		return echo.NewHTTPError(http.StatusBadRequest, "Tenant slug is required")
	}

	tenant, err := h.tenantService.GetBySlug(c.Request().Context(), slug)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown tenant")
	}
	if tenant.Status != models.TenantStatusActive {
		return echo.NewHTTPError(http.StatusForbidden, "Tenant is not active")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	channel := h.hub.Register(tenant.ID)

	// Initial snapshot goes only to the new channel
	if data, err := h.configSnapshot(c); err != nil {
		log.Printf("Failed to build initial config snapshot for tenant %s: %v", tenant.Slug, err)
	} else {
		channel.Send(data)
	}

	go h.writePump(conn, channel)
	go h.readPump(conn, channel)

	return nil
}

func (h *PushHandlers) configSnapshot(c echo.Context) ([]byte, error) {
	slug := c.Param("slug")
	tenant, err := h.tenantService.GetBySlug(c.Request().Context(), slug)
	if err != nil {
		return nil, err
	}
	config, err := h.configService.GetConfig(c.Request().Context(), tenant.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{
		"type":      push.MessageConfigUpdate,
		"config":    config,
		"timestamp": time.Now().UTC(),
	})
}

// writePump drains the channel's outbound buffer into the websocket. It owns
// the write side of the connection; nothing else writes to conn.
func (h *PushHandlers) writePump(conn *websocket.Conn, channel *push.Channel) {
	defer conn.Close()

	for data := range channel.Outbound() {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Push write failed on channel %s: %v", channel.ID(), err)
			return
		}
	}
}

// readPump handles inbound tenant messages until disconnect, then removes
// the channel from the hub.
func (h *PushHandlers) readPump(conn *websocket.Conn, channel *push.Channel) {
	defer func() {
		h.hub.Unregister(channel)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg push.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Malformed push message on channel %s: %v", channel.ID(), err)
			continue
		}

		// Pump goroutines outlive the upgrade request, so the request
		// context cannot be used here.
		ctx := context.Background()
		switch msg.Type {
		case push.MessageConfigRequest:
			if err := h.resendConfig(channel); err != nil {
				log.Printf("Failed to re-send config on channel %s: %v", channel.ID(), err)
			}
		case push.MessageHeartbeat:
			if err := h.syncService.Heartbeat(ctx, channel.TenantID()); err != nil {
				log.Printf("Failed to record heartbeat for tenant %s: %v", channel.TenantID(), err)
			}
		default:
			// Unrecognized kinds are ignored, not errored
			log.Printf("Ignoring unknown push message type %q on channel %s", msg.Type, channel.ID())
		}
	}
}

func (h *PushHandlers) resendConfig(channel *push.Channel) error {
	config, err := h.configService.GetConfig(context.Background(), channel.TenantID())
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]interface{}{
		"type":      push.MessageConfigUpdate,
		"config":    config,
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	channel.Send(data)
	return nil
}
