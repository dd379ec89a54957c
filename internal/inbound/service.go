// Package inbound records customer messages arriving from external systems
// (HTTP webhook or AMQP queue) into conversations.
package inbound

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
	"github.com/rasencioDatabrain/ChatManager/internal/schedules"
	"github.com/rasencioDatabrain/ChatManager/internal/ws"
)

// Message is one inbound customer message as delivered by the channel.
type Message struct {
	Phone   string `json:"phone" binding:"required"`
	Name    string `json:"name"`
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

type Service struct {
	DB     *gorm.DB
	Hub    *ws.Hub
	Config *config.Config
}

func NewService(db *gorm.DB, hub *ws.Hub, cfg *config.Config) *Service {
	return &Service{DB: db, Hub: hub, Config: cfg}
}

// Record stores an inbound message: it reuses the customer's open
// conversation or starts one, appends the message, refreshes the
// conversation preview and auto-registers the sender as a client.
func (s *Service) Record(in Message) (*models.Message, error) {
	if in.Type == "" {
		in.Type = "text"
	}

	var conv models.Conversation
	err := s.DB.Where("customer_phone = ? AND status <> ?", in.Phone, models.ConversationClosed).
		First(&conv).Error
	if err == gorm.ErrRecordNotFound {
		conv = models.Conversation{
			ID:            uuid.NewString(),
			CustomerName:  in.Name,
			CustomerPhone: in.Phone,
			Status:        models.ConversationAutomatic,
		}
		if err := s.DB.Create(&conv).Error; err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		if s.Hub != nil {
			s.Hub.NotifyChange("conversations", "insert", conv)
		}
	} else if err != nil {
		return nil, err
	}

	now := time.Now()
	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         models.SenderCustomer,
		Content:        in.Content,
		Type:           in.Type,
		Status:         models.MessageSent,
		SentAt:         now,
	}
	if err := s.DB.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	updates := map[string]interface{}{
		"last_message":    in.Content,
		"last_message_at": now,
	}
	if conv.CustomerName == "" && in.Name != "" {
		updates["customer_name"] = in.Name
	}
	if err := s.DB.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(updates).Error; err != nil {
		log.Printf("Error updating conversation preview: %v", err)
	}

	s.registerClient(in)

	if s.Hub != nil {
		s.Hub.NotifyChange("messages", "insert", msg)
	}

	s.maybeAutoReply(&conv, now)

	return &msg, nil
}

// registerClient upserts the sender into the client list so they show up as
// a bulk-messaging candidate.
func (s *Service) registerClient(in Message) {
	var client models.Client
	err := s.DB.Where("phone = ?", in.Phone).First(&client).Error
	if err == gorm.ErrRecordNotFound {
		name := in.Name
		if name == "" {
			name = in.Phone
		}
		if err := s.DB.Create(&models.Client{Name: name, Phone: in.Phone}).Error; err != nil {
			log.Printf("Error saving client: %v", err)
		}
		return
	}
	if err != nil {
		log.Printf("Error looking up client: %v", err)
		return
	}
	if client.Name == "" && in.Name != "" {
		if err := s.DB.Model(&client).Update("name", in.Name).Error; err != nil {
			log.Printf("Error updating client name: %v", err)
		}
	}
}

// maybeAutoReply appends an automatic agent reply when no schedule window
// with agent coverage contains the arrival time.
func (s *Service) maybeAutoReply(conv *models.Conversation, at time.Time) {
	if s.Config == nil || s.Config.AutoReplyTemplate == "" {
		return
	}
	available, err := schedules.AgentsAvailable(s.DB, at)
	if err != nil {
		log.Printf("Error evaluating schedules: %v", err)
		return
	}
	if available {
		return
	}

	var tmpl models.Template
	if err := s.DB.Where("name = ?", s.Config.AutoReplyTemplate).First(&tmpl).Error; err != nil {
		log.Printf("Auto-reply template %q not found", s.Config.AutoReplyTemplate)
		return
	}

	reply := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         models.SenderAgent,
		Content:        tmpl.Body,
		Type:           "text",
		Status:         models.MessageSent,
		SentAt:         time.Now(),
	}
	if err := s.DB.Create(&reply).Error; err != nil {
		log.Printf("Error storing auto-reply: %v", err)
		return
	}
	s.DB.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(map[string]interface{}{
		"last_message":    reply.Content,
		"last_message_at": reply.SentAt,
	})
	if s.Hub != nil {
		s.Hub.NotifyChange("messages", "insert", reply)
	}
}
