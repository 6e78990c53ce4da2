package web

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/deemkeen/banbridge/db"
	"github.com/gin-gonic/gin"
)

type adminBanRequest struct {
	Xuid          string `json:"xuid"`
	Reason        string `json:"reason"`
	DurationHours int    `json:"durationHours"`
	Actor         string `json:"actor"`
}

type adminUnbanRequest struct {
	Xuid  string `json:"xuid"`
	Actor string `json:"actor"`
}

type adminCommandRequest struct {
	ServerKey   string `json:"serverKey"`
	Type        string `json:"type"`
	PayloadJson string `json:"payloadJson"`
	Actor       string `json:"actor"`
}

// HandleAdminBan issues a ban from the admin side
func HandleAdminBan(c *gin.Context, database *db.Database) {
	var req adminBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := database.BanPlayer(req.Xuid, req.Reason, req.DurationHours, req.Actor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	database.LogAudit(req.Actor, "ban.create", req.Xuid)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleAdminUnban revokes the active ban for a player
func HandleAdminUnban(c *gin.Context, database *db.Database) {
	var req adminUnbanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := database.UnbanPlayer(req.Xuid, req.Actor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	database.LogAudit(req.Actor, "ban.revoke", req.Xuid)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleAdminActiveBan returns the active ban for a player, or 404 when
// the player is not currently banned.
func HandleAdminActiveBan(c *gin.Context, database *db.Database) {
	xuid := strings.TrimSpace(c.Query("xuid"))
	if xuid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing xuid"})
		return
	}

	err, ban := database.ReadActiveBan(xuid)
	if err != nil {
		log.Printf("Could not read active ban for %s: %v", xuid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read ban"})
		return
	}
	if ban == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active ban for " + xuid})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ban": ban})
}

// HandleAdminEnqueueCommand queues a command for a game server
func HandleAdminEnqueueCommand(c *gin.Context, database *db.Database) {
	var req adminCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	id, err := database.EnqueueCommand(req.ServerKey, req.Type, req.PayloadJson)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	database.LogAudit(req.Actor, "command.enqueue", fmt.Sprintf("%s for %s", strings.ToUpper(req.Type), req.ServerKey))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "id": id})
}

// HandleAdminLatestStats returns the latest telemetry snapshot. Without an
// explicit serverKey the first known server is used.
func HandleAdminLatestStats(c *gin.Context, database *db.Database) {
	serverKey, ok := resolveServerKey(c, database)
	if !ok {
		return
	}

	err, latest := database.LoadLatestMetrics(serverKey)
	if err != nil {
		log.Printf("Could not load latest metrics for %s: %v", serverKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load metrics"})
		return
	}
	if latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No metrics for " + serverKey})
		return
	}
	c.JSON(http.StatusOK, gin.H{"serverKey": serverKey, "metrics": latest})
}

// HandleAdminStatsHistory returns chart-ready history points
func HandleAdminStatsHistory(c *gin.Context, database *db.Database) {
	serverKey, ok := resolveServerKey(c, database)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	err, points := database.LoadMetricsHistory(serverKey, limit)
	if err != nil {
		log.Printf("Could not load metrics history for %s: %v", serverKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load metrics history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"serverKey": serverKey, "points": points})
}

// HandleAdminOnlinePlayers lists everyone currently online
func HandleAdminOnlinePlayers(c *gin.Context, database *db.Database) {
	err, players := database.ReadOnlinePlayers()
	if err != nil {
		log.Printf("Could not read online players: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read players"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

// HandleAdminAuditLog returns the newest audit entries
func HandleAdminAuditLog(c *gin.Context, database *db.Database) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	err, entries := database.ReadAuditLog(c.Query("actor"), c.Query("action"), limit)
	if err != nil {
		log.Printf("Could not read audit log: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read audit log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func resolveServerKey(c *gin.Context, database *db.Database) (string, bool) {
	serverKey := strings.TrimSpace(c.Query("serverKey"))
	if serverKey != "" {
		return serverKey, true
	}

	err, first := database.FirstServerKey()
	if err != nil {
		log.Printf("Could not resolve default server key: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not resolve server key"})
		return "", false
	}
	if first == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No servers reported yet"})
		return "", false
	}
	return first, true
}
