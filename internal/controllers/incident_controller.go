package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/secdesk/backend/internal/analytics"
	"github.com/secdesk/backend/internal/middleware"
	"github.com/secdesk/backend/internal/models"
	"github.com/secdesk/backend/internal/services"
)

const defaultTopN = 5

type IncidentController struct {
	incidents *services.IncidentService
}

func NewIncidentController(incidents *services.IncidentService) *IncidentController {
	return &IncidentController{incidents: incidents}
}

type UpdateStatusRequest struct {
	Status models.IncidentStatus `json:"status" binding:"required"`
}

type UpdateAssigneeRequest struct {
	// Null clears the assignee.
	AssigneeID *uint `json:"assigneeId"`
}

type AddCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// SummaryResponse is the analytics panel payload.
type SummaryResponse struct {
	Total           int                           `json:"total"`
	ByStatus        map[models.IncidentStatus]int `json:"byStatus"`
	Critical        int                           `json:"critical"`
	High            int                           `json:"high"`
	CategoryCounts  map[string]int                `json:"categoryCounts"`
	LocationCounts  map[string]int                `json:"locationCounts"`
	TopCategories   []analytics.LabelCount        `json:"topCategories"`
	TopLocations    []analytics.LabelCount        `json:"topLocations"`
	CriticalPercent string                        `json:"criticalPercent"`
	ResolvedPercent string                        `json:"resolvedPercent"`
}

func (ic *IncidentController) GetIncidents(c *gin.Context) {
	filter := services.IncidentFilter{
		Search:   c.Query("search"),
		Status:   models.IncidentStatus(c.Query("status")),
		Priority: models.IncidentPriority(c.Query("priority")),
	}

	incidents, err := ic.incidents.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to fetch incidents")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    incidents,
	})
}

func (ic *IncidentController) GetIncident(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := ic.incidents.GetIncidentDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch incident")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    detail,
	})
}

func (ic *IncidentController) CreateIncident(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	var req services.CreateIncidentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	incident, err := ic.incidents.CreateIncident(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create incident")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Incident created successfully",
		"data":    incident,
	})
}

func (ic *IncidentController) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	if err := ic.incidents.TransitionStatus(c.Request.Context(), id, req.Status, userID); err != nil {
		respondError(c, err, "Failed to update incident status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Incident status updated successfully",
	})
}

func (ic *IncidentController) UpdateAssignee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	var req UpdateAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	if err := ic.incidents.AssignIncident(c.Request.Context(), id, req.AssigneeID, userID); err != nil {
		respondError(c, err, "Failed to update incident assignee")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Incident assignee updated successfully",
	})
}

func (ic *IncidentController) GetUpdates(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	updates, err := ic.incidents.ListUpdates(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch incident updates")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updates,
	})
}

func (ic *IncidentController) AddComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	update, err := ic.incidents.AddComment(c.Request.Context(), id, req.Content, userID)
	if err != nil {
		respondError(c, err, "Failed to add comment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Comment added successfully",
		"data":    update,
	})
}

func (ic *IncidentController) GetSummary(c *gin.Context) {
	top := defaultTopN
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondBadRequest(c, "Invalid top value", nil)
			return
		}
		top = n
	}

	summary, err := ic.incidents.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to compute incident summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": SummaryResponse{
			Total:           summary.Total,
			ByStatus:        summary.ByStatus,
			Critical:        summary.Critical,
			High:            summary.High,
			CategoryCounts:  summary.CategoryCounts,
			LocationCounts:  summary.LocationCounts,
			TopCategories:   summary.TopCategories(top),
			TopLocations:    summary.TopLocations(top),
			CriticalPercent: summary.Percent(summary.Critical),
			ResolvedPercent: summary.Percent(summary.ByStatus[models.StatusResolved]),
		},
	})
}

// GetCategories returns the suggestion list for the category field.
func (ic *IncidentController) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.CategorySuggestions,
	})
}
