package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/paresh-singh/Vehicle-parking/internal/api/handler"
	"github.com/paresh-singh/Vehicle-parking/internal/api/middleware"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/metrics"
	"github.com/paresh-singh/Vehicle-parking/internal/notify"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

// Dependencies are the services the HTTP layer serves.
type Dependencies struct {
	AuthService    *service.AuthService
	ParkingService *service.ParkingService
	Metrics        *metrics.Metrics
	Hub            *notify.Hub
	ServiceName    string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	if deps.ServiceName != "" {
		r.Use(otelgin.Middleware(deps.ServiceName))
	}

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.Hub != nil {
		wsHandler := handler.NewWebSocketHandler(deps.Hub)
		r.GET("/ws", wsHandler.HandleWebSocket)
	}

	authMw := middleware.NewAuthMiddleware(deps.AuthService)
	authHandler := handler.NewAuthHandler(deps.AuthService)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authMw.Authenticate(), authHandler.Logout)
	}

	lotH := handler.NewParkingLotHandler(deps.ParkingService)
	spotH := handler.NewParkingSpotHandler(deps.ParkingService)
	resH := handler.NewReservationHandler(deps.ParkingService)
	dashH := handler.NewDashboardHandler(deps.ParkingService)

	admin := r.Group("/api/admin")
	admin.Use(authMw.Authenticate(), authMw.AuthorizeRole(domain.RoleAdmin))
	{
		lotRoutes := admin.Group("/parking-lots")
		{
			lotRoutes.POST("", lotH.CreateParkingLot)
			lotRoutes.GET("", lotH.GetAllParkingLots)
			lotRoutes.PUT("/:id", lotH.UpdateParkingLot)
			lotRoutes.DELETE("/:id", lotH.DeleteParkingLot)
			lotRoutes.GET("/:id/spots", lotH.GetSpotsByLotID)
		}

		spotRoutes := admin.Group("/parking-spots")
		{
			spotRoutes.GET("/:spot_id", spotH.GetParkingSpotByID)
			spotRoutes.DELETE("/:spot_id", spotH.DeleteParkingSpot)
		}

		admin.GET("/users", authHandler.ListUsers)
		admin.GET("/dashboard/summary", dashH.AdminSummary)
	}

	user := r.Group("/api/user")
	user.Use(authMw.Authenticate(), authMw.AuthorizeRole(domain.RoleUser))
	{
		user.GET("/parking-lots", lotH.GetAvailableParkingLots)

		resRoutes := user.Group("/reservations")
		{
			resRoutes.POST("", resH.CreateReservation)
			resRoutes.GET("", resH.GetReservations)
			resRoutes.GET("/export", resH.ExportReservations)
			resRoutes.PUT("/:id/park", resH.ParkVehicle)
			resRoutes.PUT("/:id/vacate", resH.VacateSpot)
			resRoutes.PUT("/:id/cancel", resH.CancelReservation)
		}

		user.GET("/dashboard/summary", dashH.UserSummary)
	}
	return r
}
