package routes

import (
	"equipment_lending/app"
	"equipment_lending/controllers"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	Mount(r, controllers.GetSrv(a))
}

// Mount 挂载全部业务路由；测试里直接传入 Srv
func Mount(r *gin.Engine, s *controllers.Srv) {
	equipmentCtl := controllers.NewEquipmentController(s)
	requestCtl := controllers.NewRequestController(s)

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// 旧前端仍在用的路径
	r.GET("/equipments", equipmentCtl.List)

	// ------------------------------
	// 设备（库存台账）
	// ------------------------------
	equipment := r.Group("/api/equipment")
	{
		equipment.GET("", equipmentCtl.List)
		equipment.POST("", equipmentCtl.Create)
		equipment.GET("/:id", equipmentCtl.Get)
		equipment.PUT("/:id", equipmentCtl.Update)
		equipment.DELETE("/:id", equipmentCtl.Delete)
	}

	// ------------------------------
	// 借用申请（状态机）
	// ------------------------------
	requests := r.Group("/api/requests")
	{
		requests.POST("", requestCtl.Submit)
		requests.GET("", requestCtl.ListForUser) // ?user_id=
		requests.GET("/:id", requestCtl.Get)
		requests.POST("/:id/approve", requestCtl.Approve)
		requests.POST("/:id/reject", requestCtl.Reject)
		requests.POST("/:id/return", requestCtl.Return)
	}

	admin := r.Group("/api/admin")
	{
		admin.GET("/requests", requestCtl.ListAll)
	}
}
