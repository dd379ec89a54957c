package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

func TestWebhookVerification(t *testing.T) {
	env := newTestEnv(t)

	w := env.request("GET", "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("handshake returned %d", w.Code)
	}
	if w.Body.String() != "12345" {
		t.Errorf("challenge echo = %q, want 12345", w.Body.String())
	}

	w = env.request("GET", "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", "", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong token: status = %d, want 403", w.Code)
	}

	w = env.request("GET", "/webhook", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing params: status = %d, want 400", w.Code)
	}
}

func TestWebhookRecordsInboundMessage(t *testing.T) {
	env := newTestEnv(t)

	w := env.request("POST", "/webhook", "", gin.H{
		"phone":   "+56955555555",
		"name":    "Cliente Nuevo",
		"content": "Hola, necesito ayuda",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook returned %d: %s", w.Code, w.Body.String())
	}

	var conv models.Conversation
	if err := env.db.First(&conv, "customer_phone = ?", "+56955555555").Error; err != nil {
		t.Fatalf("conversation not created: %v", err)
	}
	if conv.Status != models.ConversationAutomatic {
		t.Errorf("new conversation status = %q, want %q", conv.Status, models.ConversationAutomatic)
	}
	if conv.LastMessage != "Hola, necesito ayuda" {
		t.Errorf("preview = %q", conv.LastMessage)
	}

	// Sender auto-registered as a client.
	var client models.Client
	if err := env.db.First(&client, "phone = ?", "+56955555555").Error; err != nil {
		t.Fatalf("client not registered: %v", err)
	}
	if client.Name != "Cliente Nuevo" {
		t.Errorf("client name = %q", client.Name)
	}

	// A second message reuses the open conversation.
	w = env.request("POST", "/webhook", "", gin.H{
		"phone":   "+56955555555",
		"content": "¿Sigue ahí?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("second webhook returned %d", w.Code)
	}
	var convCount int64
	env.db.Model(&models.Conversation{}).Where("customer_phone = ?", "+56955555555").Count(&convCount)
	if convCount != 1 {
		t.Errorf("conversation count = %d, want 1", convCount)
	}
	var msgCount int64
	env.db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&msgCount)
	if msgCount != 2 {
		t.Errorf("message count = %d, want 2", msgCount)
	}
}

func TestWebhookStartsNewConversationAfterClose(t *testing.T) {
	env := newTestEnv(t)
	closed := env.seedConversation(t, "Cliente", "+56966666666", models.ConversationClosed, nil)

	w := env.request("POST", "/webhook", "", gin.H{
		"phone":   "+56966666666",
		"content": "Vuelvo con otra consulta",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook returned %d: %s", w.Code, w.Body.String())
	}

	var convCount int64
	env.db.Model(&models.Conversation{}).Where("customer_phone = ?", "+56966666666").Count(&convCount)
	if convCount != 2 {
		t.Fatalf("conversation count = %d, want 2 (closed threads are not reopened)", convCount)
	}
	var stillClosed models.Conversation
	env.db.First(&stillClosed, "id = ?", closed.ID)
	if stillClosed.Status != models.ConversationClosed {
		t.Errorf("closed conversation status = %q after inbound message", stillClosed.Status)
	}
}

func TestWebhookValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.request("POST", "/webhook", "", gin.H{"content": "sin teléfono"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing phone: status = %d, want 400", w.Code)
	}
}

func TestWebhookAutoReplyOutsideSchedule(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.AutoReplyTemplate = "fuera_horario"

	// A schedule that never routes to an agent makes every arrival off-hours.
	sched := models.Schedule{
		Name: "Nunca agentes",
		TimeRanges: []models.TimeRange{
			{StartTime: "00:00", EndTime: "23:59", Days: "mon,tue,wed,thu,fri,sat,sun", Actions: "auto_reply"},
		},
	}
	if err := env.db.Create(&sched).Error; err != nil {
		t.Fatal(err)
	}
	tmpl := models.Template{Name: "fuera_horario", Body: "Estamos fuera de horario, le responderemos pronto."}
	if err := env.db.Create(&tmpl).Error; err != nil {
		t.Fatal(err)
	}

	w := env.request("POST", "/webhook", "", gin.H{
		"phone":   "+56977777777",
		"content": "Hola",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook returned %d: %s", w.Code, w.Body.String())
	}

	var conv models.Conversation
	if err := env.db.First(&conv, "customer_phone = ?", "+56977777777").Error; err != nil {
		t.Fatal(err)
	}
	var messages []models.Message
	env.db.Where("conversation_id = ?", conv.ID).Find(&messages)
	if len(messages) != 2 {
		t.Fatalf("message count = %d, want 2 (inbound + auto-reply)", len(messages))
	}
	var reply *models.Message
	for i := range messages {
		if messages[i].Sender == models.SenderAgent {
			reply = &messages[i]
		}
	}
	if reply == nil || reply.Content != tmpl.Body {
		t.Fatalf("auto-reply not recorded, messages = %v", messages)
	}
	if conv.LastMessage != tmpl.Body {
		t.Errorf("preview = %q, want the auto-reply body", conv.LastMessage)
	}
}
