package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/filter"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

type GroupHandler struct {
	DB *gorm.DB
}

func NewGroupHandler(db *gorm.DB) *GroupHandler {
	return &GroupHandler{DB: db}
}

func (h *GroupHandler) GetGroups(c *gin.Context) {
	var groups []models.Group
	if err := h.DB.Preload("Members").Order("name ASC").Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	var group models.Group
	if err := h.DB.Preload("Members").First(&group, c.Param("id")).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, group)
}

type GroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type"`
	MemberIDs   []uint `json:"member_ids"`
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group := models.Group{
		Name:        req.Name,
		Description: req.Description,
		Type:        defaultString(req.Type, "manual"),
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		for _, clientID := range req.MemberIDs {
			member := models.GroupMember{GroupID: group.ID, ClientID: clientID}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	h.DB.Preload("Members").First(&group, group.ID)
	c.JSON(http.StatusCreated, group)
}

// UpdateGroup persists the group's attributes and reconciles its membership
// in a single transaction: additions = new − old, removals = old − new.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var group models.Group
	if err := h.DB.First(&group, c.Param("id")).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		group.Name = req.Name
		group.Description = req.Description
		if req.Type != "" {
			group.Type = req.Type
		}
		if err := tx.Save(&group).Error; err != nil {
			return err
		}

		var current []models.GroupMember
		if err := tx.Where("group_id = ?", group.ID).Find(&current).Error; err != nil {
			return err
		}
		currentIDs := make([]uint, 0, len(current))
		for _, m := range current {
			currentIDs = append(currentIDs, m.ClientID)
		}

		added, removed := filter.MembershipDiff(currentIDs, req.MemberIDs)
		for _, clientID := range added {
			member := models.GroupMember{GroupID: group.ID, ClientID: clientID}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		if len(removed) > 0 {
			err := tx.Where("group_id = ? AND client_id IN ?", group.ID, removed).
				Delete(&models.GroupMember{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
		return
	}

	h.DB.Preload("Members").First(&group, group.ID)
	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	var group models.Group
	if err := h.DB.First(&group, c.Param("id")).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Group deleted"})
}

// GetCandidates lists the clients available to add to the group: everyone
// not already a member, optionally narrowed by a name/phone substring.
func (h *GroupHandler) GetCandidates(c *gin.Context) {
	var members []models.GroupMember
	if err := h.DB.Where("group_id = ?", c.Param("id")).Find(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	memberIDs := make([]uint, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ClientID)
	}

	var clients []models.Client
	if err := h.DB.Order("name ASC").Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, filter.Candidates(clients, memberIDs, c.Query("query")))
}
