package models

import "time"

// Template is a named, reusable bundle of (product, quantity) pairs used to
// pre-populate a new quote's line items. Quotes created from a template keep
// no back-reference to it.
type Template struct {
	ID        uint           `gorm:"primaryKey"`
	Name      string         `gorm:"size:255;not null"`
	Items     []TemplateItem `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TemplateItem struct {
	ID         uint    `gorm:"primaryKey"`
	TemplateID uint    `gorm:"not null;index"`
	ProductID  uint    `gorm:"not null"`
	Product    Product `gorm:"foreignKey:ProductID"`
	Quantity   int     `gorm:"not null;default:1"`
}
