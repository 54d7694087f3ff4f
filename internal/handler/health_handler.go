package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/alumni-connect-api/internal/config"
	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// BusStatus is the part of the realtime bus the health endpoint reports on.
type BusStatus interface {
	NodeID() string
	Transport() string
}

// OnlineCounter reports the users connected to this node.
type OnlineCounter interface {
	OnlineUsers() []uint
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status      string          `json:"status"`
	Timestamp   time.Time       `json:"timestamp"`
	Service     string          `json:"service"`
	Environment string          `json:"environment"`
	Realtime    *RealtimeHealth `json:"realtime,omitempty"`
}

// RealtimeHealth describes this node's view of the relay.
type RealtimeHealth struct {
	NodeID      string `json:"node_id"`
	Transport   string `json:"transport"`
	UsersOnline int    `json:"users_online"`
}

// HealthCheck reports liveness plus the node's realtime transport and online
// user count. Either probe may be nil.
func HealthCheck(cfg config.Config, bus BusStatus, online OnlineCounter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}
		if bus != nil || online != nil {
			payload.Realtime = &RealtimeHealth{Transport: "local"}
			if bus != nil {
				payload.Realtime.NodeID = bus.NodeID()
				payload.Realtime.Transport = bus.Transport()
			}
			if online != nil {
				payload.Realtime.UsersOnline = len(online.OnlineUsers())
			}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
