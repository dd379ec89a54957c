package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/bulk"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

type BulkHandler struct {
	DB        *gorm.DB
	Enqueuer  *bulk.Enqueuer // nil when no queue is configured
	Deliverer *bulk.Deliverer
}

func NewBulkHandler(db *gorm.DB, enqueuer *bulk.Enqueuer, deliverer *bulk.Deliverer) *BulkHandler {
	return &BulkHandler{DB: db, Enqueuer: enqueuer, Deliverer: deliverer}
}

type BulkSendRequest struct {
	GroupID         uint   `json:"group_id"`
	Body            string `json:"body"`
	AttachmentCount int    `json:"attachment_count"`
}

// SendBulk composes one bulk message for a group and dispatches it to every
// member, through the queue when one is configured and inline otherwise.
func (h *BulkHandler) SendBulk(c *gin.Context) {
	var req BulkSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.GroupID == 0 || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Select a group and write a message"})
		return
	}

	var group models.Group
	if err := h.DB.Preload("Members").First(&group, req.GroupID).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(group.Members) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Group has no members"})
		return
	}

	bulkMsg := models.BulkMessage{
		GroupID:         group.ID,
		GroupName:       group.Name,
		Body:            req.Body,
		AttachmentCount: req.AttachmentCount,
		Status:          models.MessagePending,
		TotalCount:      len(group.Members),
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&bulkMsg).Error; err != nil {
			return err
		}
		for _, m := range group.Members {
			var client models.Client
			if err := tx.First(&client, m.ClientID).Error; err != nil {
				continue // member references a deleted client
			}
			rec := models.BulkRecipient{
				BulkMessageID: bulkMsg.ID,
				ClientID:      client.ID,
				Name:          client.Name,
				Phone:         client.Phone,
				Status:        models.MessagePending,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bulk message"})
		return
	}

	var recipients []models.BulkRecipient
	h.DB.Where("bulk_message_id = ?", bulkMsg.ID).Find(&recipients)

	// Fix up the total in case members referenced deleted clients.
	if len(recipients) != bulkMsg.TotalCount {
		bulkMsg.TotalCount = len(recipients)
		h.DB.Model(&bulkMsg).Update("total_count", bulkMsg.TotalCount)
	}

	if h.Enqueuer != nil {
		for _, rec := range recipients {
			p := bulk.DeliverPayload{BulkMessageID: bulkMsg.ID, RecipientID: rec.ID}
			if err := h.Enqueuer.Enqueue(c.Request.Context(), p); err != nil {
				log.Printf("Failed to enqueue delivery for recipient %d: %v", rec.ID, err)
			}
		}
	} else {
		for _, rec := range recipients {
			p := bulk.DeliverPayload{BulkMessageID: bulkMsg.ID, RecipientID: rec.ID}
			if err := h.Deliverer.Deliver(p); err != nil {
				log.Printf("Failed to deliver to %s: %v", rec.Phone, err)
			}
		}
	}

	h.DB.First(&bulkMsg, bulkMsg.ID)
	c.JSON(http.StatusAccepted, bulkMsg)
}

// GetHistory lists past bulk sends, newest first.
func (h *BulkHandler) GetHistory(c *gin.Context) {
	var history []models.BulkMessage
	if err := h.DB.Order("created_at DESC").Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if history == nil {
		history = []models.BulkMessage{}
	}
	c.JSON(http.StatusOK, history)
}

// GetDetails returns one bulk send with its per-recipient outcomes.
func (h *BulkHandler) GetDetails(c *gin.Context) {
	var bulkMsg models.BulkMessage
	if err := h.DB.Preload("Recipients").First(&bulkMsg, c.Param("id")).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bulk message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bulkMsg)
}
