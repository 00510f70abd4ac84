package repository

import (
	"errors"

	"github.com/BinLe1988/smart-marketplace/models"

	"gorm.io/gorm"
)

// UserProfileRepo 交易方画像的gorm实现
type UserProfileRepo struct {
	db *gorm.DB
}

// NewUserProfileRepo 创建画像仓库
func NewUserProfileRepo(db *gorm.DB) *UserProfileRepo {
	return &UserProfileRepo{db: db}
}

// FindByPartyID 按交易方ID查找画像，不存在时返回nil
func (r *UserProfileRepo) FindByPartyID(partyID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.Where("party_id = ?", partyID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
