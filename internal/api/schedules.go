package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rasencioDatabrain/ChatManager/internal/models"
)

type ScheduleHandler struct {
	DB *gorm.DB
}

func NewScheduleHandler(db *gorm.DB) *ScheduleHandler {
	return &ScheduleHandler{DB: db}
}

func (h *ScheduleHandler) GetSchedules(c *gin.Context) {
	var schedules []models.Schedule
	if err := h.DB.Preload("TimeRanges").Order("name ASC").Find(&schedules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	c.JSON(http.StatusOK, schedules)
}

type TimeRangeRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Days      string `json:"days" binding:"required"`
	Actions   string `json:"actions"`
}

type ScheduleRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	TimeRanges  []TimeRangeRequest `json:"time_ranges"`
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	schedule := models.Schedule{
		Name:        req.Name,
		Description: req.Description,
		TimeRanges:  buildRanges(req.TimeRanges),
	}
	if err := h.DB.Create(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create schedule"})
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// UpdateSchedule replaces the schedule's attributes and time ranges
// wholesale (ranges are edited as a unit in the console).
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var schedule models.Schedule
	if err := h.DB.First(&schedule, c.Param("id")).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		schedule.Name = req.Name
		schedule.Description = req.Description
		if err := tx.Save(&schedule).Error; err != nil {
			return err
		}
		if err := tx.Where("schedule_id = ?", schedule.ID).Delete(&models.TimeRange{}).Error; err != nil {
			return err
		}
		for _, r := range buildRanges(req.TimeRanges) {
			r.ScheduleID = schedule.ID
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update schedule"})
		return
	}

	h.DB.Preload("TimeRanges").First(&schedule, schedule.ID)
	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	var schedule models.Schedule
	if err := h.DB.First(&schedule, c.Param("id")).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", schedule.ID).Delete(&models.TimeRange{}).Error; err != nil {
			return err
		}
		return tx.Delete(&schedule).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete schedule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Schedule deleted"})
}

func buildRanges(reqs []TimeRangeRequest) []models.TimeRange {
	ranges := make([]models.TimeRange, 0, len(reqs))
	for _, r := range reqs {
		ranges = append(ranges, models.TimeRange{
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Days:      r.Days,
			Actions:   r.Actions,
		})
	}
	return ranges
}
