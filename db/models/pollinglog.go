package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// PollingLog : append-only, one row per invoice per poll cycle
type PollingLog struct {
	bun.BaseModel `bun:"table:polling_logs,alias:polling_log"`

	ID            int64           `json:"id" bun:",pk,autoincrement"`
	InvoiceID     int64           `json:"invoice_id" bun:",notnull"`
	Timestamp     time.Time       `json:"timestamp" bun:",nullzero,notnull,default:current_timestamp"`
	Status        string          `json:"status" bun:",notnull"`
	DepositsFound int             `json:"deposits_found" bun:",notnull,default:0"`
	ErrorMessage  string          `json:"error_message,omitempty" bun:",nullzero"`
	RawResponse   json.RawMessage `json:"raw_response,omitempty" bun:"type:jsonb,nullzero"`
}
