// controllers/equipment_controller.go
package controllers

import (
	"errors"
	"io"
	"net/http"

	"equipment_lending/app"
	"equipment_lending/cache"
	"equipment_lending/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController { return &EquipmentController{Srv: s} }

// GET /api/equipment
func (ec *EquipmentController) List(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := ec.Cache.GetList(ctx)
	if err == nil {
		c.JSON(http.StatusOK, items)
		return
	}
	if !errors.Is(err, cache.ErrMiss) {
		ec.Log.Warn("read equipment cache", zap.Error(err))
	}

	// 先取代数再读库：读库期间若有失效，回填会被拒绝
	gen, genErr := ec.Cache.Generation(ctx)
	items, err = ec.Repo.ListEquipment(ctx)
	if err != nil {
		ec.writeError(c, err)
		return
	}
	if genErr != nil {
		ec.Log.Warn("read equipment cache generation", zap.Error(genErr))
	} else if err := ec.Cache.SetList(ctx, gen, items); err != nil && !errors.Is(err, cache.ErrStale) {
		ec.Log.Warn("fill equipment cache", zap.Error(err))
	}
	c.JSON(http.StatusOK, items)
}

// GET /api/equipment/:id
func (ec *EquipmentController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := ec.Repo.FindEquipment(c.Request.Context(), id)
	if err != nil {
		ec.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

type createEquipmentReq struct {
	Name            string `json:"name" binding:"required"`
	Category        string `json:"category"`
	ConditionStatus string `json:"condition_status"`
	Quantity        *int   `json:"quantity" binding:"required,min=0"`
}

// POST /api/equipment
func (ec *EquipmentController) Create(c *gin.Context) {
	var in createEquipmentReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	e := &models.Equipment{
		Name:            in.Name,
		Category:        in.Category,
		ConditionStatus: in.ConditionStatus,
		Quantity:        *in.Quantity,
	}
	if err := ec.Repo.CreateEquipment(c.Request.Context(), e); err != nil {
		ec.writeError(c, err)
		return
	}
	ec.invalidateEquipment(c)
	c.JSON(http.StatusCreated, app.H{"message": "Equipment added", "id": e.ID})
}

// PUT /api/equipment/:id  只更新提供的字段
func (ec *EquipmentController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.EquipmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	e, err := ec.Repo.UpdateEquipment(c.Request.Context(), id, patch)
	if err != nil {
		ec.writeError(c, err)
		return
	}
	ec.invalidateEquipment(c)
	c.JSON(http.StatusOK, app.H{"message": "updated", "equipment": e})
}

// DELETE /api/equipment/:id
func (ec *EquipmentController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ec.Repo.DeleteEquipment(c.Request.Context(), id); err != nil {
		ec.writeError(c, err)
		return
	}
	ec.invalidateEquipment(c)
	c.JSON(http.StatusOK, app.H{"message": "deleted"})
}
