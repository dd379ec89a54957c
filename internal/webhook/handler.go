package webhook

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/inbound"
)

// Handler is the HTTP entry point for inbound customer messages.
type Handler struct {
	Config  *config.Config
	Service *inbound.Service
}

func NewHandler(cfg *config.Config, service *inbound.Service) *Handler {
	return &Handler{Config: cfg, Service: service}
}

// VerifyWebhook answers the channel's subscription handshake.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.Config.VerifyToken {
			log.Println("Webhook verified successfully!")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// HandleMessage records one inbound customer message.
func (h *Handler) HandleMessage(c *gin.Context) {
	var in inbound.Message
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Printf("Error binding inbound payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.Service.Record(in)
	if err != nil {
		log.Printf("Error recording inbound message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Message recorded", "message_id": msg.ID})
}
