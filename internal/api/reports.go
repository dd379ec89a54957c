package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

type ReportHandler struct {
	DB *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{DB: db}
}

type VolumePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// GetVolume reports conversations started per day over the requested
// window (default 7 days). Bucketing happens in Go so the query stays
// portable across postgres and sqlite.
func (h *ReportHandler) GetVolume(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}

	cutoff := time.Now().AddDate(0, 0, -days+1)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	var conversations []models.Conversation
	if err := h.DB.Where("started_at >= ?", cutoff).Find(&conversations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	counts := make(map[string]int)
	for _, conv := range conversations {
		counts[conv.StartedAt.Format("2006-01-02")]++
	}

	points := make([]VolumePoint, 0, days)
	for i := 0; i < days; i++ {
		day := cutoff.AddDate(0, 0, i).Format("2006-01-02")
		points = append(points, VolumePoint{Date: day, Count: counts[day]})
	}
	c.JSON(http.StatusOK, points)
}

type AgentLoad struct {
	AgentID   uint   `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Open      int    `json:"open"`
}

// GetStats returns the dashboard widgets' numbers: conversation totals per
// status and open-conversation load per agent.
func (h *ReportHandler) GetStats(c *gin.Context) {
	var conversations []models.Conversation
	if err := h.DB.Find(&conversations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	byStatus := map[string]int{
		models.ConversationActive:    0,
		models.ConversationManual:    0,
		models.ConversationAutomatic: 0,
		models.ConversationClosed:    0,
	}
	openByAgent := make(map[uint]int)
	for _, conv := range conversations {
		byStatus[conv.Status]++
		if !conv.Closed() && conv.AgentID != nil {
			openByAgent[*conv.AgentID]++
		}
	}

	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	agents := make([]AgentLoad, 0, len(openByAgent))
	for _, u := range users {
		if n, ok := openByAgent[u.ID]; ok {
			agents = append(agents, AgentLoad{AgentID: u.ID, AgentName: u.Name, Open: n})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"by_status":     byStatus,
		"open_by_agent": agents,
		"total":         len(conversations),
	})
}
