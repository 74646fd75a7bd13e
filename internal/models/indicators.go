package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyIndicators is one day's exchange rate snapshot from the external
// indicator service. One row per calendar day; the fetch is idempotent.
type DailyIndicators struct {
	ID        uint            `gorm:"primaryKey"`
	Date      time.Time       `gorm:"type:date;unique;not null;index"`
	UF        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	USD       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt time.Time
}
