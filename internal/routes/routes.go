package routes

import (
	"github.com/gin-gonic/gin"

	"dealflow/internal/authz"
	"dealflow/internal/handlers"
	"dealflow/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	boardHandler *handlers.BoardHandler,
	dealHandler *handlers.DealHandler,
	contactHandler *handlers.ContactHandler,
	companyHandler *handlers.CompanyHandler,
	lifecycleHandler *handlers.LifecycleHandler,
	activityHandler *handlers.ActivityHandler,
	dashboardHandler *handlers.DashboardHandler,
	aiHandler *handlers.AIHandler,
	auditHandler *handlers.AuditHandler,
	realtimeHandler *handlers.RealtimeHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/register", authHandler.Register)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	// USERS
	users := r.Group("/users")
	{
		users.POST("/", userHandler.CreateUser)
		users.GET("/count", userHandler.GetUserCount)
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUserByID)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
		users.POST("/telegram-link", userHandler.LinkTelegram)
	}

	// BOARDS (pipeline layout changes are for ops/mgmt/admin)
	boards := r.Group("/boards")
	{
		boards.GET("/", boardHandler.List)
		boards.GET("/:id", boardHandler.GetByID)
		boards.GET("/:id/deals", dealHandler.BoardView)
		boards.GET("/:id/can-delete", boardHandler.CanDelete)

		manage := boards.Group("",
			middleware.RequireRoles(authz.RoleOperations, authz.RoleManagement, authz.RoleAdmin),
		)
		{
			manage.POST("/", boardHandler.Create)
			manage.PUT("/:id", boardHandler.Update)
			manage.DELETE("/:id", boardHandler.Delete)
			manage.POST("/:id/default", boardHandler.SetDefault)
			manage.POST("/:id/stages", boardHandler.AddStage)
			manage.PUT("/:id/stages/:stage_id", boardHandler.UpdateStage)
			manage.DELETE("/:id/stages/:stage_id", boardHandler.DeleteStage)
		}
	}

	// DEALS
	deals := r.Group("/deals")
	{
		deals.POST("/", dealHandler.Create)
		deals.GET("/", dealHandler.List)
		deals.GET("/:id", dealHandler.GetByID)
		deals.PUT("/:id", dealHandler.Update)
		deals.DELETE("/:id", dealHandler.Delete)
		deals.POST("/:id/move", dealHandler.Move)
		deals.POST("/:id/items", dealHandler.AddItem)
		deals.DELETE("/:id/items/:item_id", dealHandler.DeleteItem)
	}

	// CONTACTS
	contacts := r.Group("/contacts")
	{
		contacts.POST("/", contactHandler.Create)
		contacts.GET("/", contactHandler.List)
		contacts.GET("/:id", contactHandler.GetByID)
		contacts.PUT("/:id", contactHandler.Update)
		contacts.DELETE("/:id", contactHandler.Delete)
	}

	// COMPANIES
	companies := r.Group("/companies")
	{
		companies.POST("/", companyHandler.Create)
		companies.GET("/", companyHandler.List)
		companies.GET("/:id", companyHandler.GetByID)
		companies.PUT("/:id", companyHandler.Update)
		companies.DELETE("/:id", companyHandler.Delete)
	}

	// LIFECYCLE STAGES (taxonomy edits are admin territory)
	lifecycle := r.Group("/lifecycle-stages")
	{
		lifecycle.GET("/", lifecycleHandler.List)

		manage := lifecycle.Group("",
			middleware.RequireRoles(authz.RoleManagement, authz.RoleAdmin),
		)
		{
			manage.POST("/", lifecycleHandler.Create)
			manage.PUT("/:id", lifecycleHandler.Update)
			manage.DELETE("/:id", lifecycleHandler.Delete)
		}
	}

	// ACTIVITIES
	activities := r.Group("/activities")
	{
		activities.POST("/", activityHandler.Create)
		activities.GET("/", activityHandler.List)
		activities.GET("/overdue", activityHandler.ListOverdue)
		activities.GET("/:id", activityHandler.GetByID)
		activities.PUT("/:id", activityHandler.Update)
		activities.DELETE("/:id", activityHandler.Delete)
		activities.POST("/:id/done", activityHandler.SetDone)
	}

	// DASHBOARD (audit/ops/mgmt/admin)
	dashboard := r.Group("/dashboard",
		middleware.RequireRoles(authz.RoleAudit, authz.RoleOperations, authz.RoleManagement, authz.RoleAdmin),
	)
	{
		dashboard.GET("/stats", dashboardHandler.Stats)
	}

	// AI
	ai := r.Group("/ai",
		middleware.RequireRoles(authz.RoleSales, authz.RoleOperations, authz.RoleManagement, authz.RoleAdmin),
	)
	{
		ai.POST("/consent", aiHandler.Consent)
		ai.POST("/:action", aiHandler.Assist)
	}

	// AUDIT LOG (audit/mgmt/admin)
	audit := r.Group("/audit",
		middleware.RequireRoles(authz.RoleAudit, authz.RoleManagement, authz.RoleAdmin),
	)
	{
		audit.GET("/", auditHandler.List)
	}

	// REALTIME invalidation feed
	r.GET("/ws", realtimeHandler.Subscribe)

	return r
}
