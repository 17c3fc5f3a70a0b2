package transport

import (
	"github.com/dpyhq/cryptobill/controllers"
	_ "github.com/dpyhq/cryptobill/docs"
	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterAdminEndpoints mounts the operator API. Everything below /v1
// requires the admin token.
func RegisterAdminEndpoints(poller *service.Poller, db controllers.Pinger, e *echo.Echo, adminMw echo.MiddlewareFunc, strictRateLimitMw echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	e.GET("/health", controllers.NewHealthController(poller, db).Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	admin := e.Group("/v1", logMw, adminMw)
	admin.GET("/statistics", controllers.NewStatisticsController(poller).Statistics)
	admin.POST("/invoices/:id/verify", controllers.NewVerifyPaymentController(poller).VerifyPayment, strictRateLimitMw)
}
