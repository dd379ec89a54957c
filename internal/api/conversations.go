package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/database"
	"github.com/rasencioDatabrain/ChatManager/internal/filter"
	"github.com/rasencioDatabrain/ChatManager/internal/gateway"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
	"github.com/rasencioDatabrain/ChatManager/internal/ws"
)

type ConversationHandler struct {
	DB      *gorm.DB
	Hub     *ws.Hub
	Gateway *gateway.Client
}

func NewConversationHandler(db *gorm.DB, hub *ws.Hub, gw *gateway.Client) *ConversationHandler {
	return &ConversationHandler{DB: db, Hub: hub, Gateway: gw}
}

// GetConversations lists conversations ordered by last activity (newest
// first, never-active last), narrowed by the two-stage status/mode filter.
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	var conversations []models.Conversation
	if err := database.OrderByActivity(h.DB).Find(&conversations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f := filter.ConversationFilter{
		Status: c.DefaultQuery("status", filter.StatusAll),
		Mode:   c.DefaultQuery("mode", filter.ModeAll),
	}
	conversations = filter.Conversations(conversations, f)

	c.JSON(http.StatusOK, conversations)
}

// GetHistory searches closed-and-open conversation history by name, phone
// and inclusive start-date range. An empty query is rejected.
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	q := filter.HistoryQuery{
		Name:  c.Query("name"),
		Phone: c.Query("phone"),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected YYYY-MM-DD"})
			return
		}
		q.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected YYYY-MM-DD"})
			return
		}
		// Inclusive upper bound: end of the given day.
		q.To = t.Add(24*time.Hour - time.Nanosecond)
	}

	if q.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide at least one search criterion"})
		return
	}

	var conversations []models.Conversation
	if err := h.DB.Order("started_at DESC").Find(&conversations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := filter.History(conversations, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// CloseConversation marks a conversation closed and stamps its end time.
func (h *ConversationHandler) CloseConversation(c *gin.Context) {
	id := c.Param("id")

	var conv models.Conversation
	if err := h.DB.First(&conv, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":   models.ConversationClosed,
		"ended_at": now,
	}
	if err := h.DB.Model(&conv).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close conversation"})
		return
	}

	conv.Status = models.ConversationClosed
	conv.EndedAt = &now
	if h.Hub != nil {
		h.Hub.NotifyChange("conversations", "update", conv)
	}
	c.JSON(http.StatusOK, conv)
}

// GetMessages returns the conversation's thread in send order.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	id := c.Param("id")

	var messages []models.Message
	err := h.DB.Where("conversation_id = ?", id).Order("sent_at ASC").Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

// SendMessage persists an agent message, dispatches it through the outbound
// gateway and refreshes the conversation preview. Sends to a closed
// conversation are rejected from the stored status, never from client
// state.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	id := c.Param("id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = "text"
	}

	var conv models.Conversation
	if err := h.DB.First(&conv, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	if conv.Closed() {
		c.JSON(http.StatusConflict, gin.H{"error": "Conversation is closed"})
		return
	}

	now := time.Now()
	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         models.SenderAgent,
		Content:        req.Content,
		Type:           req.Type,
		Status:         models.MessagePending,
		SentAt:         now,
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store message"})
		return
	}

	if err := h.Gateway.Send(conv.CustomerPhone, req.Type, req.Content); err != nil {
		// Roll the provisional record back; the client surfaces the error
		// and may retry explicitly.
		log.Printf("Error dispatching message %s: %v", msg.ID, err)
		h.DB.Delete(&msg)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	msg.Status = models.MessageSent
	if err := h.DB.Model(&msg).Update("status", models.MessageSent).Error; err != nil {
		log.Printf("Error marking message %s sent: %v", msg.ID, err)
	}

	err := h.DB.Model(&conv).Updates(map[string]interface{}{
		"last_message":    req.Content,
		"last_message_at": now,
	}).Error
	if err != nil {
		log.Printf("Error updating conversation preview: %v", err)
	}

	if h.Hub != nil {
		h.Hub.NotifyChange("messages", "insert", msg)
	}
	c.JSON(http.StatusCreated, msg)
}

// notFound reports whether err is a gorm record-not-found.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
