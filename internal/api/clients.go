package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

type ClientHandler struct {
	DB *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{DB: db}
}

func (h *ClientHandler) GetClients(c *gin.Context) {
	var clients []models.Client
	if err := h.DB.Order("name ASC").Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Return empty array instead of null
	if clients == nil {
		clients = []models.Client{}
	}
	c.JSON(http.StatusOK, clients)
}

type ClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Alias    string `json:"alias"`
	TaxID    string `json:"tax_id"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Timezone string `json:"timezone"`
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := models.Client{
		Name:     req.Name,
		Alias:    req.Alias,
		TaxID:    req.TaxID,
		Phone:    req.Phone,
		Email:    req.Email,
		Location: req.Location,
		Timezone: req.Timezone,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	var client models.Client
	if err := h.DB.First(&client, c.Param("id")).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client.Name = req.Name
	client.Alias = req.Alias
	client.TaxID = req.TaxID
	client.Phone = req.Phone
	client.Email = req.Email
	client.Location = req.Location
	client.Timezone = req.Timezone
	if err := h.DB.Save(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update client"})
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	result := h.DB.Delete(&models.Client{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Client deleted"})
}
