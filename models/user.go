package models

import (
	"time"

	"gorm.io/gorm"
)

// User 平台账号模型
type User struct {
	gorm.Model
	Username  string     `gorm:"size:50;not null;unique" json:"username"`
	Email     string     `gorm:"size:100;not null;unique" json:"email"`
	Password  string     `gorm:"size:255;not null" json:"-"`
	PartyID   string     `gorm:"size:40;index" json:"partyId"` // 关联交易方画像
	JoinDate  time.Time  `json:"joinDate"`
	LastLogin *time.Time `json:"lastLogin"`
}

// CredentialRequest 用户登录请求
type CredentialRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegistrationRequest 用户注册请求
type RegistrationRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UserResponse 用户响应
type UserResponse struct {
	ID       uint      `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	PartyID  string    `json:"partyId"`
	JoinDate time.Time `json:"joinDate"`
}

// ToResponse 转换为响应
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		PartyID:  u.PartyID,
		JoinDate: u.JoinDate,
	}
}
