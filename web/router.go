package web

import (
	"fmt"

	"github.com/deemkeen/banbridge/bus"
	"github.com/deemkeen/banbridge/db"
	"github.com/deemkeen/banbridge/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const maxRequestBodyBytes = 1 * 1024 * 1024 // 1MB

// NewRouter assembles the full HTTP surface: the game server API, the
// admin API and the SSE stream, all sharing one rate limit and body cap.
func NewRouter(conf *util.AppConfig, database *db.Database, live *bus.Bus) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	limiter := NewRateLimiter(rate.Limit(25), 50)
	router.Use(RateLimitMiddleware(limiter))
	router.Use(MaxBytesMiddleware(maxRequestBodyBytes))

	router.GET("/health", func(c *gin.Context) { HandleHealth(c, database) })

	server := router.Group("/api/server")
	server.Use(TokenAuthMiddleware(conf))
	{
		server.POST("/bans/report", func(c *gin.Context) { HandleReportBan(c, database) })
		server.GET("/bans/changes", func(c *gin.Context) { HandleBanChanges(c, database) })
		server.GET("/commands/poll", func(c *gin.Context) { HandlePollCommands(c, database) })
		server.POST("/commands/ack", func(c *gin.Context) { HandleAckCommand(c, database) })
		server.POST("/presence", func(c *gin.Context) { HandlePresence(c, database) })
		server.POST("/metrics", func(c *gin.Context) { HandleIngestMetrics(c, database) })
		server.POST("/stats", func(c *gin.Context) { HandleStatsBatch(c, database) })
		server.GET("/stream", func(c *gin.Context) { HandleStream(c, live) })
	}

	admin := router.Group("/api/admin")
	admin.Use(TokenAuthMiddleware(conf), gzip.Gzip(gzip.DefaultCompression))
	{
		admin.POST("/bans", func(c *gin.Context) { HandleAdminBan(c, database) })
		admin.POST("/unbans", func(c *gin.Context) { HandleAdminUnban(c, database) })
		admin.GET("/bans/active", func(c *gin.Context) { HandleAdminActiveBan(c, database) })
		admin.POST("/commands", func(c *gin.Context) { HandleAdminEnqueueCommand(c, database) })
		admin.GET("/stats/latest", func(c *gin.Context) { HandleAdminLatestStats(c, database) })
		admin.GET("/stats/history", func(c *gin.Context) { HandleAdminStatsHistory(c, database) })
		admin.GET("/players/online", func(c *gin.Context) { HandleAdminOnlinePlayers(c, database) })
		admin.GET("/audit", func(c *gin.Context) { HandleAdminAuditLog(c, database) })
	}

	return router
}

// ListenAddr formats the bind address from the config.
func ListenAddr(conf *util.AppConfig) string {
	return fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.HttpPort)
}
