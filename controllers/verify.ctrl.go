package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dpyhq/cryptobill/lib/responses"
	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/labstack/echo/v4"
)

// VerifyPaymentController : manual payment verification controller struct
type VerifyPaymentController struct {
	poller *service.Poller
}

func NewVerifyPaymentController(poller *service.Poller) *VerifyPaymentController {
	return &VerifyPaymentController{poller: poller}
}

type VerifyPaymentRequestBody struct {
	TxID       string `json:"txid" validate:"required"`
	VerifiedBy string `json:"verified_by" validate:"required"`
}

// VerifyPayment godoc
// @Summary      Verify a payment manually
// @Description  Marks an invoice paid by the exchange transaction an operator points at
// @Accept       json
// @Produce      json
// @Tags         Admin
// @Param        id       path      int                       true  "Invoice ID"
// @Param        payment  body      VerifyPaymentRequestBody  true  "Transaction and operator"
// @Success      200      {object}  service.ManualVerificationResult
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      401      {object}  responses.ErrorResponse
// @Failure      404      {object}  service.ManualVerificationResult
// @Failure      422      {object}  service.ManualVerificationResult
// @Failure      502      {object}  service.ManualVerificationResult
// @Failure      500      {object}  service.ManualVerificationResult
// @Router       /v1/invoices/{id}/verify [post]
// @Security     AdminToken
func (controller *VerifyPaymentController) VerifyPayment(c echo.Context) error {
	invoiceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || invoiceID <= 0 {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	var body VerifyPaymentRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load verify payment request body invoice_id:%v: %v", invoiceID, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid verify payment request body invoice_id:%v: %v", invoiceID, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), service.ManualVerificationTimeout)
	defer cancel()
	result := controller.poller.ManualPaymentVerification(ctx, invoiceID, body.TxID, body.VerifiedBy)

	return c.JSON(StatusForVerification(result), &result)
}

// StatusForVerification maps a verification outcome onto an HTTP status.
func StatusForVerification(result service.ManualVerificationResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.ErrorCode {
	case service.VerificationErrorInvoiceNotFound, service.VerificationErrorTransactionNotFound:
		return http.StatusNotFound
	case service.VerificationErrorInvalidRequest:
		return http.StatusBadRequest
	case service.VerificationErrorExchange:
		return http.StatusBadGateway
	case service.VerificationErrorInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
