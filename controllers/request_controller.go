// controllers/request_controller.go
package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"equipment_lending/app"
	"equipment_lending/db"

	"github.com/gin-gonic/gin"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

type submitReq struct {
	UserID      uint `json:"user_id" binding:"required"`
	EquipmentID uint `json:"equipment_id" binding:"required"`
}

// POST /api/requests
func (rc *RequestController) Submit(c *gin.Context) {
	var in submitReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req, err := rc.Repo.SubmitRequest(c.Request.Context(), in.UserID, in.EquipmentID)
	if err != nil {
		rc.writeError(c, err)
		return
	}
	rc.invalidateEquipment(c)
	c.JSON(http.StatusCreated, app.H{"message": "Request submitted successfully", "id": req.ID})
}

// GET /api/requests?user_id=
func (rc *RequestController) ListForUser(c *gin.Context) {
	raw := c.Query("user_id")
	if raw == "" {
		rc.writeError(c, fmt.Errorf("%w: user_id query param is required", db.ErrMissingParam))
		return
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid user_id"})
		return
	}
	rows, err := rc.Repo.ListRequestsForUser(c.Request.Context(), uint(userID))
	if err != nil {
		rc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/admin/requests
func (rc *RequestController) ListAll(c *gin.Context) {
	rows, err := rc.Repo.ListAllRequests(c.Request.Context())
	if err != nil {
		rc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/requests/:id
func (rc *RequestController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := rc.Repo.GetRequest(c.Request.Context(), id)
	if err != nil {
		rc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// POST /api/requests/:id/approve
func (rc *RequestController) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, err := rc.Repo.ApproveRequest(c.Request.Context(), id)
	if err != nil {
		rc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"message": "Request approved", "request": req})
}

// POST /api/requests/:id/reject
func (rc *RequestController) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, err := rc.Repo.RejectRequest(c.Request.Context(), id)
	if err != nil {
		rc.writeError(c, err)
		return
	}
	rc.invalidateEquipment(c)
	c.JSON(http.StatusOK, app.H{"message": "Request rejected", "request": req})
}

// POST /api/requests/:id/return  已归还时幂等返回 200
func (rc *RequestController) Return(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, already, err := rc.Repo.ReturnRequest(c.Request.Context(), id)
	if err != nil {
		rc.writeError(c, err)
		return
	}
	if already {
		c.JSON(http.StatusOK, app.H{"message": "Already returned", "request": req})
		return
	}
	rc.invalidateEquipment(c)
	c.JSON(http.StatusOK, app.H{"message": "Item returned", "request": req})
}
