package models

import (
	"time"
)

// UserProfile 交易方画像模型
// 记录偏好品类、信用评分与历史成交数据，匹配引擎据此计算偏好分数
type UserProfile struct {
	PartyID string `json:"partyId" gorm:"primaryKey;size:40"`

	// 偏好品类，自由文本，包含品类token
	PreferredCategories string `json:"preferredCategories" gorm:"type:text"`

	// 信用评分，期望范围[0,1]
	CreditScore *float64 `json:"creditScore"`

	// 累计完成订单数
	TotalOrders *int64 `json:"totalOrders"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
