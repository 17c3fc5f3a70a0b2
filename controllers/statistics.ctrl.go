package controllers

import (
	"net/http"

	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/labstack/echo/v4"
)

// StatisticsController : StatisticsController struct
type StatisticsController struct {
	poller *service.Poller
}

func NewStatisticsController(poller *service.Poller) *StatisticsController {
	return &StatisticsController{poller: poller}
}

// Statistics godoc
// @Summary      Payment poller statistics
// @Description  Returns a snapshot of the payment poller counters
// @Produce      json
// @Tags         Admin
// @Success      200  {object}  service.Statistics
// @Failure      401  {object}  responses.ErrorResponse
// @Router       /v1/statistics [get]
// @Security     AdminToken
func (controller *StatisticsController) Statistics(c echo.Context) error {
	return c.JSON(http.StatusOK, controller.poller.Statistics())
}
