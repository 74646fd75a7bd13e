package models

import "time"

// Quote status codes.
const (
	StatusPending  = "WT"
	StatusApproved = "AP"
	StatusRejected = "RJ"
	StatusClosed   = "CL"
)

// Quote currencies. Product prices are stored in USD; CLP and UF quotes are
// converted through the daily indicators.
const (
	CurrencyUSD = "USD"
	CurrencyCLP = "CLP"
	CurrencyUF  = "UF"
)

// Quote is a priced proposal for a client. Total fields are derived: they are
// recomputed from the persisted line items after every save, never written
// directly by callers.
type Quote struct {
	ID         uint     `gorm:"primaryKey"`
	PublicID   int64    `gorm:"unique;not null;index"`
	ClientID   uint     `gorm:"not null;index"`
	Client     Client   `gorm:"foreignKey:ClientID"`
	SalesRepID uint     `gorm:"not null;index"`
	SalesRep   SalesRep `gorm:"foreignKey:SalesRepID"`
	// ApproverID is set when the quote is approved or rejected. A quote
	// approved with ApproverID == SalesRepID was auto-approved.
	ApproverID *uint
	Approver   *SalesRep  `gorm:"foreignKey:ApproverID"`
	Status     string     `gorm:"size:2;not null;default:'WT';index"`
	Currency   string     `gorm:"size:3;not null;default:'USD'"`
	TotalNet   int64      `gorm:"not null;default:0"`
	Tax        int64      `gorm:"not null;default:0"`
	TotalFinal int64      `gorm:"not null;default:0"`
	Items      []LineItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LineItem is one product line within a quote. Position preserves insertion
// order of the rows in the edit form. UnitPrice and Subtotal are always
// recomputed by the pricing engine on save; Subtotal == UnitPrice * Quantity.
type LineItem struct {
	ID           uint    `gorm:"primaryKey"`
	QuoteID      uint    `gorm:"not null;index"`
	ProductID    uint    `gorm:"not null"`
	Product      Product `gorm:"foreignKey:ProductID"`
	Position     int     `gorm:"not null"`
	Discount     int     `gorm:"not null;default:0"`
	ProfitMargin int     `gorm:"not null;default:35"`
	Quantity     int     `gorm:"not null;default:1"`
	UnitPrice    int64   `gorm:"not null"`
	Subtotal     int64   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Discounted reports whether any line item carries a discount. Quotes with no
// discounted items skip manual review on save.
func (q *Quote) Discounted() bool {
	for _, it := range q.Items {
		if it.Discount > 0 {
			return true
		}
	}
	return false
}
