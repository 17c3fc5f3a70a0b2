package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by *bun.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthController : HealthController struct
type HealthController struct {
	poller *service.Poller
	db     Pinger
}

func NewHealthController(poller *service.Poller, db Pinger) *HealthController {
	return &HealthController{poller: poller, db: db}
}

type HealthResponseBody struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	PollerRunning bool   `json:"poller_running"`
}

// Health godoc
// @Summary      Check service health
// @Description  Reports 503 when the database is unreachable or the payment poller stopped
// @Produce      json
// @Tags         Health
// @Success      200  {object}  HealthResponseBody
// @Failure      503  {object}  HealthResponseBody
// @Router       /health [get]
func (controller *HealthController) Health(c echo.Context) error {
	body := HealthResponseBody{
		Status:        "ok",
		Database:      "ok",
		PollerRunning: controller.poller.IsRunning(),
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()
	if controller.db != nil {
		if err := controller.db.PingContext(ctx); err != nil {
			c.Logger().Errorf("Health check database ping failed: %v", err)
			body.Database = "unreachable"
			body.Status = "degraded"
		}
	}
	if !body.PollerRunning {
		body.Status = "degraded"
	}
	if body.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, &body)
	}
	return c.JSON(http.StatusOK, &body)
}
