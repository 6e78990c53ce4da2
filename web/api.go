package web

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/deemkeen/banbridge/db"
	"github.com/deemkeen/banbridge/domain"
	"github.com/deemkeen/banbridge/util"
	"github.com/gin-gonic/gin"
)

// serverKeyHeader identifies the reporting game server on write endpoints.
const serverKeyHeader = "X-Server-Key"

// HandleHealth reports liveness of the process and its store
func HandleHealth(c *gin.Context, database *db.Database) {
	status := "ok"
	code := http.StatusOK
	if !database.Ping() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "version": util.GetVersion()})
}

// HandleReportBan records a ban already enforced on a game server
func HandleReportBan(c *gin.Context, database *db.Database) {
	serverKey := strings.TrimSpace(c.GetHeader(serverKeyHeader))
	if serverKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + serverKeyHeader + " header"})
		return
	}

	var report domain.BanReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := database.ReportServerBan(serverKey, &report); err != nil {
		log.Printf("Could not persist ban report from %s: %v", serverKey, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleBanChanges serves the incremental ban change feed
func HandleBanChanges(c *gin.Context, database *db.Database) {
	err, batch := database.FetchBanChangesSince(c.Query("since"))
	if err != nil {
		log.Printf("Could not fetch ban changes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch ban changes"})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// HandlePollCommands returns open commands for the requesting server
func HandlePollCommands(c *gin.Context, database *db.Database) {
	serverKey := strings.TrimSpace(c.Query("serverKey"))
	if serverKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing serverKey"})
		return
	}

	sinceId, _ := strconv.ParseInt(c.Query("sinceId"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	err, batch := database.PollOpenCommands(serverKey, sinceId, limit)
	if err != nil {
		log.Printf("Could not poll commands for %s: %v", serverKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not poll commands"})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// HandleAckCommand marks a delivered command as acknowledged
func HandleAckCommand(c *gin.Context, database *db.Database) {
	var ack domain.CommandAck
	if err := c.ShouldBindJSON(&ack); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := database.AckCommand(ack.ServerKey, ack.Id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandlePresence applies a presence report, snapshot or event mode
func HandlePresence(c *gin.Context, database *db.Database) {
	var report domain.PresenceReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := database.UpsertPresence(&report); err != nil {
		log.Printf("Could not apply presence report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not apply presence report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleIngestMetrics sanitizes and stores one telemetry sample
func HandleIngestMetrics(c *gin.Context, database *db.Database) {
	var sample domain.MetricsSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if sample.ServerKey == "" {
		sample.ServerKey = strings.TrimSpace(c.GetHeader(serverKeyHeader))
	}

	if err := database.IngestMetrics(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleStatsBatch folds a batch of player stat deltas into the totals
func HandleStatsBatch(c *gin.Context, database *db.Database) {
	var entries []domain.StatsEntry
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := database.PersistStatsBatch(entries); err != nil {
		log.Printf("Could not persist stats batch: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not persist stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(entries)})
}
