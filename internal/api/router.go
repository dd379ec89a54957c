package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/bulk"
	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/gateway"
	"github.com/rasencioDatabrain/ChatManager/internal/inbound"
	"github.com/rasencioDatabrain/ChatManager/internal/session"
	"github.com/rasencioDatabrain/ChatManager/internal/webhook"
	"github.com/rasencioDatabrain/ChatManager/internal/ws"
)

// Deps carries everything the route tree needs.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Hub      *ws.Hub
	Sessions session.Store
	Gateway  *gateway.Client
	Enqueuer *bulk.Enqueuer // nil without Redis
}

// NewRouter builds the full gin engine: webhook, websocket feed and the
// authenticated dashboard API.
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	inboundService := inbound.NewService(d.DB, d.Hub, d.Config)
	webhookHandler := webhook.NewHandler(d.Config, inboundService)
	authHandler := NewAuthHandler(d.DB, d.Sessions)
	conversationHandler := NewConversationHandler(d.DB, d.Hub, d.Gateway)
	clientHandler := NewClientHandler(d.DB)
	userHandler := NewUserHandler(d.DB)
	groupHandler := NewGroupHandler(d.DB)
	scheduleHandler := NewScheduleHandler(d.DB)
	templateHandler := NewTemplateHandler(d.DB)
	bulkHandler := NewBulkHandler(d.DB, d.Enqueuer, bulk.NewDeliverer(d.DB, d.Gateway))
	reportHandler := NewReportHandler(d.DB)

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	// Change feed
	if d.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			d.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	r.POST("/api/login", authHandler.Login)

	apiGroup := r.Group("/api")
	apiGroup.Use(RequireAuth(d.Sessions))
	{
		apiGroup.POST("/logout", authHandler.Logout)

		// Conversation Routes
		apiGroup.GET("/conversations", conversationHandler.GetConversations)
		apiGroup.GET("/conversations/history", conversationHandler.GetHistory)
		apiGroup.POST("/conversations/:id/close", conversationHandler.CloseConversation)
		apiGroup.GET("/conversations/:id/messages", conversationHandler.GetMessages)
		apiGroup.POST("/conversations/:id/messages", conversationHandler.SendMessage)

		// Client Routes
		apiGroup.GET("/clients", clientHandler.GetClients)
		apiGroup.POST("/clients", clientHandler.CreateClient)
		apiGroup.PUT("/clients/:id", clientHandler.UpdateClient)
		apiGroup.DELETE("/clients/:id", clientHandler.DeleteClient)

		// User Routes
		apiGroup.GET("/users", userHandler.GetUsers)
		apiGroup.POST("/users", userHandler.CreateUser)
		apiGroup.PUT("/users/:id", userHandler.UpdateUser)
		apiGroup.DELETE("/users/:id", userHandler.DeleteUser)

		// Group Routes
		apiGroup.GET("/groups", groupHandler.GetGroups)
		apiGroup.POST("/groups", groupHandler.CreateGroup)
		apiGroup.GET("/groups/:id", groupHandler.GetGroup)
		apiGroup.PUT("/groups/:id", groupHandler.UpdateGroup)
		apiGroup.DELETE("/groups/:id", groupHandler.DeleteGroup)
		apiGroup.GET("/groups/:id/candidates", groupHandler.GetCandidates)

		// Schedule Routes
		apiGroup.GET("/schedules", scheduleHandler.GetSchedules)
		apiGroup.POST("/schedules", scheduleHandler.CreateSchedule)
		apiGroup.PUT("/schedules/:id", scheduleHandler.UpdateSchedule)
		apiGroup.DELETE("/schedules/:id", scheduleHandler.DeleteSchedule)

		// Template Routes
		apiGroup.GET("/templates", templateHandler.GetTemplates)
		apiGroup.POST("/templates", templateHandler.CreateTemplate)
		apiGroup.PUT("/templates/:id", templateHandler.UpdateTemplate)
		apiGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)

		// Bulk Message Routes
		apiGroup.POST("/bulk", bulkHandler.SendBulk)
		apiGroup.GET("/bulk/history", bulkHandler.GetHistory)
		apiGroup.GET("/bulk/:id", bulkHandler.GetDetails)

		// Report Routes
		apiGroup.GET("/reports/volume", reportHandler.GetVolume)
		apiGroup.GET("/reports/stats", reportHandler.GetStats)
	}

	return r
}
