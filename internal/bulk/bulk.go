// Package bulk delivers bulk messages to group members, either inline or
// through an asynq queue consumed by the worker process.
package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/gateway"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

// TypeDeliver is the asynq task type for one per-recipient delivery.
const TypeDeliver = "bulk:deliver"

// DeliverPayload identifies one recipient of one bulk message.
type DeliverPayload struct {
	BulkMessageID uint `json:"bulk_message_id"`
	RecipientID   uint `json:"recipient_id"`
}

// Enqueuer pushes per-recipient delivery tasks onto the queue.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisURL string) (*Enqueuer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return &Enqueuer{client: asynq.NewClient(opt)}, nil
}

func (e *Enqueuer) Enqueue(ctx context.Context, p DeliverPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeDeliver, payload)
	_, err = e.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	return err
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// Deliverer performs the actual per-recipient delivery. It is shared by the
// asynq worker and by the synchronous fallback used when no queue is
// configured.
type Deliverer struct {
	DB      *gorm.DB
	Gateway *gateway.Client
}

func NewDeliverer(db *gorm.DB, gw *gateway.Client) *Deliverer {
	return &Deliverer{DB: db, Gateway: gw}
}

// Deliver sends the bulk body to one recipient, appends the message to the
// recipient's open conversation when one exists, and rolls the outcome up
// into the parent bulk record.
func (d *Deliverer) Deliver(p DeliverPayload) error {
	var rec models.BulkRecipient
	if err := d.DB.First(&rec, p.RecipientID).Error; err != nil {
		return fmt.Errorf("load recipient %d: %w", p.RecipientID, err)
	}
	if rec.Status != models.MessagePending {
		return nil // already delivered; redelivered task
	}
	var bulk models.BulkMessage
	if err := d.DB.First(&bulk, p.BulkMessageID).Error; err != nil {
		return fmt.Errorf("load bulk message %d: %w", p.BulkMessageID, err)
	}

	sendErr := d.Gateway.Send(rec.Phone, "text", bulk.Body)
	now := time.Now()

	if sendErr != nil {
		d.DB.Model(&rec).Updates(map[string]interface{}{
			"status": "failed",
			"error":  sendErr.Error(),
		})
		d.DB.Model(&bulk).Update("failed_count", gorm.Expr("failed_count + 1"))
		d.finalize(bulk.ID)
		return sendErr
	}

	d.appendToConversation(rec, bulk.Body, now)

	d.DB.Model(&rec).Updates(map[string]interface{}{
		"status":       models.MessageSent,
		"delivered_at": now,
	})
	d.DB.Model(&bulk).Update("sent_count", gorm.Expr("sent_count + 1"))
	d.finalize(bulk.ID)
	return nil
}

// appendToConversation records the bulk body as an agent message in the
// recipient's open conversation, if any, so it shows up in the chat window.
func (d *Deliverer) appendToConversation(rec models.BulkRecipient, body string, at time.Time) {
	var conv models.Conversation
	err := d.DB.Where("customer_phone = ? AND status <> ?", rec.Phone, models.ConversationClosed).
		First(&conv).Error
	if err != nil {
		return
	}
	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         models.SenderAgent,
		Content:        body,
		Type:           "text",
		Status:         models.MessageSent,
		SentAt:         at,
	}
	if err := d.DB.Create(&msg).Error; err != nil {
		log.Printf("Error appending bulk message to conversation %s: %v", conv.ID, err)
		return
	}
	d.DB.Model(&conv).Updates(map[string]interface{}{
		"last_message":    body,
		"last_message_at": at,
	})
}

// finalize marks the bulk record done once every recipient resolved.
func (d *Deliverer) finalize(bulkID uint) {
	var bulk models.BulkMessage
	if err := d.DB.First(&bulk, bulkID).Error; err != nil {
		return
	}
	if bulk.SentCount+bulk.FailedCount < bulk.TotalCount {
		return
	}
	status := models.MessageSent
	if bulk.FailedCount > 0 {
		status = "partial"
		if bulk.SentCount == 0 {
			status = "failed"
		}
	}
	d.DB.Model(&bulk).Update("status", status)
}

// HandleTask is the asynq handler for TypeDeliver tasks.
func (d *Deliverer) HandleTask(_ context.Context, t *asynq.Task) error {
	var p DeliverPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	return d.Deliver(p)
}
