package models

import "time"

// Product catalog model. Price is the base dealer price in USD, stored as a
// whole amount. Historical quotes keep their own computed prices, so price
// changes here never rewrite past quotes.
type Product struct {
	ID             uint   `gorm:"primaryKey"`
	Code           string `gorm:"size:50;unique;not null;index"`
	MaterialNumber string `gorm:"size:50"`
	Description    string `gorm:"size:255;not null"`
	Price          int64  `gorm:"not null;check:price >= 0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
