package models

import (
	"time"
)

// Conversation lifecycle states. The Spanish "automatico" value is part of
// the original data contract and is kept verbatim.
const (
	ConversationActive    = "active"
	ConversationManual    = "manual"
	ConversationAutomatic = "automatico"
	ConversationClosed    = "closed"
)

// Message sender roles and delivery states.
const (
	SenderCustomer = "customer"
	SenderAgent    = "agent"

	MessagePending = "pending"
	MessageSent    = "sent"
)

// Conversation represents a customer conversation thread
type Conversation struct {
	ID            string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	CustomerName  string     `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone string     `gorm:"type:varchar(50);index" json:"customer_phone"`
	Status        string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	LastMessage   string     `gorm:"type:text" json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	AgentID       *uint      `json:"agent_id"`
	StartedAt     time.Time  `gorm:"autoCreateTime" json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Closed reports whether the conversation no longer accepts messages.
func (c *Conversation) Closed() bool {
	return c.Status == ConversationClosed
}

// Message represents a single message inside a conversation
type Message struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ConversationID string    `gorm:"type:varchar(64);not null;index" json:"conversation_id"`
	Sender         string    `gorm:"type:varchar(20);not null" json:"sender"`
	Content        string    `gorm:"type:text" json:"content"`
	Type           string    `gorm:"type:varchar(20);default:'text'" json:"type"`
	Status         string    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	SentAt         time.Time `gorm:"autoCreateTime;index" json:"sent_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Client represents a customer record editable from the console
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Alias     string    `gorm:"type:varchar(100)" json:"alias"`
	TaxID     string    `gorm:"type:varchar(20)" json:"tax_id"`
	Phone     string    `gorm:"type:varchar(50);uniqueIndex" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Location  string    `gorm:"type:varchar(255)" json:"location"`
	Timezone  string    `gorm:"type:varchar(50)" json:"timezone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

// User represents a console operator (agent, supervisor or admin)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100)" json:"-"`
	Role         string    `gorm:"type:varchar(20);default:'agent'" json:"role"`
	Status       string    `gorm:"type:varchar(20);default:'active'" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Group represents a client group used for bulk messaging
type Group struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Type        string        `gorm:"type:varchar(20);default:'manual'" json:"type"`
	Status      string        `gorm:"type:varchar(20);default:'active'" json:"status"`
	Members     []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE;" json:"members,omitempty"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupMember links a client into a group (many-to-many)
type GroupMember struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	GroupID  uint `gorm:"index;not null" json:"group_id"`
	ClientID uint `gorm:"index;not null" json:"client_id"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// Schedule represents a named attention schedule with one or more time ranges
type Schedule struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"type:varchar(255);not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	TimeRanges  []TimeRange `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE;" json:"time_ranges"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Schedule) TableName() string {
	return "schedules"
}

// TimeRange is a weekly window within a schedule. Days and Actions are
// comma separated lists, e.g. "mon,tue,fri" and "auto_reply,agent".
type TimeRange struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ScheduleID uint   `gorm:"index;not null" json:"schedule_id"`
	StartTime  string `gorm:"type:varchar(5)" json:"start_time"` // "09:00"
	EndTime    string `gorm:"type:varchar(5)" json:"end_time"`   // "18:00"
	Days       string `gorm:"type:text" json:"days"`
	Actions    string `gorm:"type:text" json:"actions"`
}

func (TimeRange) TableName() string {
	return "time_ranges"
}

// Template represents a reusable message template
type Template struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// BulkMessage represents one bulk send to a group
type BulkMessage struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	GroupID         uint            `gorm:"index;not null" json:"group_id"`
	GroupName       string          `gorm:"type:varchar(255)" json:"group_name"`
	Body            string          `gorm:"type:text;not null" json:"body"`
	AttachmentCount int             `json:"attachment_count"`
	Status          string          `gorm:"type:varchar(20);default:'pending'" json:"status"`
	SentCount       int             `json:"sent_count"`
	FailedCount     int             `json:"failed_count"`
	TotalCount      int             `json:"total_count"`
	Recipients      []BulkRecipient `gorm:"foreignKey:BulkMessageID;constraint:OnDelete:CASCADE;" json:"recipients,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (BulkMessage) TableName() string {
	return "bulk_messages"
}

// BulkRecipient tracks per-member delivery of a bulk message
type BulkRecipient struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	BulkMessageID uint       `gorm:"index;not null" json:"bulk_message_id"`
	ClientID      uint       `json:"client_id"`
	Name          string     `gorm:"type:varchar(255)" json:"name"`
	Phone         string     `gorm:"type:varchar(50)" json:"phone"`
	Status        string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at"`
}

func (BulkRecipient) TableName() string {
	return "bulk_recipients"
}
