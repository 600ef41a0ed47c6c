package models

import "time"

type Field struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OwnerID uint  `gorm:"index;not null" json:"owner_id"`
	Owner   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"owner,omitempty"`

	Name        string  `gorm:"size:120;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Sport       string  `gorm:"size:40;index" json:"sport"`
	City        string  `gorm:"size:80;index" json:"city"`
	Address     string  `gorm:"size:255" json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `gorm:"size:50;default:'Africa/Abidjan'" json:"timezone"`

	// preço do dono (net) e preço exibido (net + comissão), por slot
	NetPrice       int64 `gorm:"not null" json:"net_price"`
	PublicPrice    int64 `gorm:"not null" json:"public_price"`
	DepositPercent int   `gorm:"default:0" json:"deposit_percent"`

	RequiresApproval bool `gorm:"default:false" json:"requires_approval"`
	Active           bool `gorm:"default:true" json:"active"`

	Approved        bool       `gorm:"default:false;index" json:"approved"`
	ApprovedBy      *uint      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `gorm:"size:255" json:"rejection_reason,omitempty"`

	Photos    []FieldPhoto    `gorm:"foreignKey:FieldID" json:"photos,omitempty"`
	Schedules []FieldSchedule `gorm:"foreignKey:FieldID" json:"schedules,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsBookable: ativo e aprovado pelo admin.
func (f *Field) IsBookable() bool {
	return f.Active && f.Approved
}

type FieldPhoto struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	FieldID uint `gorm:"index;not null" json:"field_id"`

	ObjectKey string `gorm:"size:255;not null" json:"-"`
	URL       string `gorm:"size:500;not null" json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Position  int    `gorm:"default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
}
