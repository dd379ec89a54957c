package main

import (
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/database"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

// Seeds an admin user and, optionally, demo data for local development.
func main() {
	adminEmail := flag.String("admin-email", "admin@chatmanager.local", "admin user email")
	adminPassword := flag.String("admin-password", "", "admin user password (required)")
	demo := flag.Bool("demo", false, "also seed demo clients, groups and conversations")
	flag.Parse()

	if *adminPassword == "" {
		log.Fatal("--admin-password is required")
	}

	cfg := config.LoadConfig()
	db, err := database.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	var existing models.User
	err = db.Where("email = ?", *adminEmail).First(&existing).Error
	if err == nil {
		log.Printf("Admin user %s already exists, updating password", *adminEmail)
		if err := db.Model(&existing).Update("password_hash", string(hash)).Error; err != nil {
			log.Fatalf("Failed to update admin: %v", err)
		}
	} else if err == gorm.ErrRecordNotFound {
		admin := models.User{
			Name:         "Administrator",
			Email:        *adminEmail,
			PasswordHash: string(hash),
			Role:         "admin",
			Status:       "active",
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		log.Printf("Created admin user %s", *adminEmail)
	} else {
		log.Fatalf("Failed to look up admin: %v", err)
	}

	if *demo {
		seedDemo(db)
	}
}

func seedDemo(db *gorm.DB) {
	clients := []models.Client{
		{Name: "Constructora XYZ S.A.", Alias: "Constructora", Phone: "+56912345678", Email: "contacto@constructoraxyz.cl", Location: "Santiago, Chile", Timezone: "GMT-4"},
		{Name: "Juan Pérez", Alias: "Juanito", Phone: "+56987654321", Email: "juan.perez@email.com", Location: "Valparaíso, Chile", Timezone: "GMT-4"},
		{Name: "Importadora Global Ltda.", Alias: "Global", Phone: "+56223456789", Email: "info@global.cl", Location: "Concepción, Chile", Timezone: "GMT-4"},
	}
	for i := range clients {
		if err := db.Where("phone = ?", clients[i].Phone).FirstOrCreate(&clients[i]).Error; err != nil {
			log.Printf("Failed to seed client %s: %v", clients[i].Name, err)
		}
	}

	group := models.Group{Name: "Clientes VIP", Description: "Clientes con historial de compras alto.", Type: "manual"}
	if err := db.Where("name = ?", group.Name).FirstOrCreate(&group).Error; err != nil {
		log.Printf("Failed to seed group: %v", err)
	} else {
		for _, cl := range clients[:2] {
			member := models.GroupMember{GroupID: group.ID, ClientID: cl.ID}
			db.Where("group_id = ? AND client_id = ?", group.ID, cl.ID).FirstOrCreate(&member)
		}
	}

	now := time.Now()
	for _, cl := range clients {
		conv := models.Conversation{
			ID:            uuid.NewString(),
			CustomerName:  cl.Name,
			CustomerPhone: cl.Phone,
			Status:        models.ConversationActive,
			LastMessage:   "Hola, necesito ayuda con mi pedido.",
			LastMessageAt: &now,
		}
		var count int64
		db.Model(&models.Conversation{}).Where("customer_phone = ?", cl.Phone).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&conv).Error; err != nil {
			log.Printf("Failed to seed conversation for %s: %v", cl.Name, err)
			continue
		}
		msg := models.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Sender:         models.SenderCustomer,
			Content:        conv.LastMessage,
			Type:           "text",
			Status:         models.MessageSent,
			SentAt:         now,
		}
		db.Create(&msg)
	}

	log.Println("Demo data seeded")
}
