package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AppConfig : runtime settings editable by operators (e.g. overdue_days)
type AppConfig struct {
	bun.BaseModel `bun:"table:app_config,alias:app_config"`

	Key       string    `bun:",pk"`
	Value     string    `bun:",notnull"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
