package models

import "time"

const (
	RoleUser       = "user"
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

const (
	PayoutChannelMobileMoney = "mobile_money"
	PayoutChannelStripe      = "stripe"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20;index" json:"phone"`
	Role         string `gorm:"size:20;default:'user'" json:"role"`

	PayoutChannel   string `gorm:"size:20" json:"payout_channel"`
	PayoutPhone     string `gorm:"size:20" json:"payout_phone"`
	StripeAccountID string `gorm:"size:64" json:"-"`

	Roles []UserRole `gorm:"foreignKey:UserID" json:"roles,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleNames junta o papel principal com os papéis concedidos.
func (u *User) RoleNames() []string {
	seen := map[string]bool{u.Role: true}
	out := []string{u.Role}
	for _, r := range u.Roles {
		if !seen[r.Role] {
			seen[r.Role] = true
			out = append(out, r.Role)
		}
	}
	return out
}

type UserRole struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID    uint   `gorm:"uniqueIndex:idx_user_role;not null" json:"user_id"`
	Role      string `gorm:"size:20;uniqueIndex:idx_user_role;not null" json:"role"`
	GrantedBy *uint  `json:"granted_by"`

	CreatedAt time.Time `json:"created_at"`
}
