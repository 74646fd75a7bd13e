package models

import "time"

// Chilean region codes used for Entity addresses.
var Regions = []string{
	"I", "II", "III", "IV", "V", "RM", "VI", "VII", "VIII",
	"IX", "X", "XI", "XII", "XIV", "XV", "XVI",
}

// Entity is a hospital, clinic or institute a client belongs to.
type Entity struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Address   string `gorm:"size:255"`
	Region    string `gorm:"size:10;default:'RM'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Client struct {
	ID        uint   `gorm:"primaryKey"`
	EntityID  uint   `gorm:"not null;index"`
	Entity    Entity `gorm:"foreignKey:EntityID"`
	Name      string `gorm:"size:255;not null;index"`
	Email     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SalesRep roles. REP sees only their own quotes; MAN and ADM see all.
const (
	RoleRep     = "REP"
	RoleManager = "MAN"
	RoleAdmin   = "ADM"
)

type SalesRep struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Email     string `gorm:"size:255;unique;not null;index"`
	Role      string `gorm:"size:10;not null;default:'REP'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsManagerial reports whether the rep can act on quotes owned by others.
func (r SalesRep) IsManagerial() bool {
	return r.Role == RoleManager || r.Role == RoleAdmin
}
