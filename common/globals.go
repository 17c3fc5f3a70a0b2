package common

const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusSent          = "sent"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusCancelled     = "cancelled"

	PaymentStatusPending   = "pending"
	PaymentStatusDetected  = "detected"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"

	DepositStatusPending  = "pending"
	DepositStatusSuccess  = "success"
	DepositStatusCredited = "credited"
	DepositStatusFailed   = "failed"

	EventPaymentDetected  = "payment_detected"
	EventPaymentConfirmed = "payment_confirmed"

	PollStatusPaymentFound = "payment_found"
	PollStatusNoPayment    = "no_payment"
	PollStatusError        = "error"
	PollStatusAPIError     = "api_error"

	ConfigKeyOverdueDays = "overdue_days"

	ManualVerificationRequiredConfirmations = 1
)
