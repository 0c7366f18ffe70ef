package handler

import (
	"net/http"

	"complaints/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetComplaints(c *gin.Context) {
	var filters models.ComplaintFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequest(c, "invalid filters: "+err.Error())
		return
	}
	list, err := h.Complaints.GetComplaints(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	complaint, err := h.Complaints.GetComplaint(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (h *Handler) CreateComplaint(c *gin.Context) {
	var form models.ComplaintFormData
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	complaint, err := h.Complaints.CreateComplaint(c.Request.Context(), form)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

func (h *Handler) UpdateComplaintStatus(c *gin.Context) {
	var body models.StatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	complaint, err := h.Complaints.UpdateComplaintStatus(c.Request.Context(), c.Param("id"), body.Status, body.UpdatedBy)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (h *Handler) ToggleLike(c *gin.Context) {
	res, err := h.Complaints.ToggleLike(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ShareComplaint(c *gin.Context) {
	res, err := h.Complaints.ShareComplaint(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetComments(c *gin.Context) {
	list, err := h.Complaints.GetComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddComment(c *gin.Context) {
	var body models.CommentInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	comment, err := h.Complaints.AddComment(c.Request.Context(), c.Param("id"), body.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) DeleteComplaint(c *gin.Context) {
	if err := h.Complaints.DeleteComplaint(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SearchComplaints(c *gin.Context) {
	var filters models.ComplaintFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequest(c, "invalid filters: "+err.Error())
		return
	}
	res, err := h.Complaints.SearchComplaints(c.Request.Context(), c.Query("q"), filters)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DetectEntities(c *gin.Context) {
	var body models.EntityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.Complaints.DetectEntities(body.Text))
}
