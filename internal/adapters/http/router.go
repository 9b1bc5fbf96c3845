package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/adapters"
	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
)

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ParleySessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	// GET /api/rooms — live rooms with member counts
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": orch.Registry.List()})
	})

	// GET /api/rooms/:name — online usernames of one room
	api.GET("/rooms/:name", func(c *gin.Context) {
		name := domain.RoomName(c.Param("name"))
		online := orch.Registry.Online(name)
		if online == nil {
			online = []string{}
		}
		c.JSON(http.StatusOK, gin.H{
			"name":         name,
			"member_count": orch.Registry.MemberCount(name),
			"online":       online,
		})
	})

	// GET /api/me — display name remembered from the last connect
	api.GET("/me", func(c *gin.Context) {
		sess := sessions.Default(c)
		name, _ := sess.Get("display_name").(string)
		c.JSON(http.StatusOK, gin.H{"username": name})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	ctl := adapters.NewChatWSController(orch, cfg)
	r.GET("/ws/:room/:username", func(c *gin.Context) {
		ctl.HandleChat(ctx, c)
	})

	return r
}
