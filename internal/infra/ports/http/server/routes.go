package server

import (
	"github.com/labstack/echo/v4"

	"github.com/swyde/swyde-backend/internal/application/config"
	"github.com/swyde/swyde-backend/internal/infra/ports/http/handlers"
	"github.com/swyde/swyde-backend/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	roomHandler *handlers.RoomHandler,
	placeHandler *handlers.PlaceHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	api := e.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		v1 := api.Group("/v1")
		v1.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		{
			v1.GET("/me", authHandler.GetMe)

			v1.GET("/ws", wsHandler.Handle)

			v1.POST("/rooms", roomHandler.CreateRoomHandler)
			v1.POST("/rooms/join", roomHandler.JoinRoomHandler)
			v1.GET("/rooms/:id", roomHandler.GetRoomHandler)
			v1.POST("/rooms/:id/leave", roomHandler.LeaveRoomHandler)
			v1.POST("/rooms/:id/ready", roomHandler.SetReadyHandler)

			v1.GET("/places", placeHandler.ListPlacesHandler)
			v1.GET("/places/:id", placeHandler.GetPlaceHandler)
		}
	}

	return e
}
