package httpapi

import (
	"chat-presence/runtime/workers"
	"chat-presence/services"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// UserHeader carries the caller's asserted name. It is trusted as is.
const UserHeader = "User"

type StatsProvider interface {
	Latest() workers.ProcessStats
}

type Options struct {
	AllowedOrigins []string
}

// Handler binds the HTTP routes to the participant and message services.
type Handler struct {
	participants services.IParticipantService
	messages     services.IMessageService
	stats        StatsProvider
	storeTimeout time.Duration
	log          *slog.Logger
}

func NewHandler(
	log *slog.Logger,
	participants services.IParticipantService,
	messages services.IMessageService,
	stats StatsProvider,
	storeTimeout time.Duration,
) *Handler {
	return &Handler{
		participants: participants,
		messages:     messages,
		stats:        stats,
		storeTimeout: storeTimeout,
		log:          log,
	}
}

// NewRouter builds the gin engine with recovery, request logging and CORS.
func NewRouter(log *slog.Logger, handler *Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), cors.New(corsConfig(opts.AllowedOrigins)))
	RegisterRoutes(r, handler)
	return r
}

func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.POST("/participants", h.Join)
	r.GET("/participants", h.ListParticipants)
	r.POST("/status", h.Heartbeat)

	r.POST("/messages", h.SendMessage)
	r.GET("/messages", h.ListMessages)
	r.GET("/messages/search", h.SearchMessages)
	r.PUT("/messages/:id", h.EditMessage)
	r.DELETE("/messages/:id", h.DeleteMessage)

	r.GET("/healthz", h.Health)
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", UserHeader}
	if len(origins) == 0 || lo.Contains(origins, "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	return config
}
