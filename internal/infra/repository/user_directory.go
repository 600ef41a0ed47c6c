package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/models"
)

// UserDirectory resolve telefones para as notificações.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) PhoneOf(ctx context.Context, userID uint) (string, error) {
	var u models.User
	if err := d.db.WithContext(ctx).Select("id", "phone").First(&u, userID).Error; err != nil {
		return "", err
	}
	return u.Phone, nil
}
