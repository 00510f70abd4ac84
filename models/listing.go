package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 挂牌类型
type ListingType string

const (
	ListingSupply ListingType = "SUPPLY"
	ListingDemand ListingType = "DEMAND"
)

// 挂牌状态
const (
	ListingStatusActive   = "ACTIVE"
	ListingStatusInactive = "INACTIVE"
	ListingStatusClosed   = "CLOSED"
)

// Listing 供需挂牌模型
type Listing struct {
	ListingID     string      `json:"listingId" gorm:"primaryKey;size:40"`
	ListingType   ListingType `json:"listingType" gorm:"size:10;index"`
	Status        string      `json:"status" gorm:"size:20;index"`
	Category      string      `json:"category" gorm:"size:60;index"`
	SubCategory   string      `json:"subCategory" gorm:"size:60"`
	Title         string      `json:"title" gorm:"size:255"`
	Description   string      `json:"description" gorm:"type:text"`
	PriceMin      *float64    `json:"priceMin"`
	PriceMax      *float64    `json:"priceMax"`
	DeliveryRange *float64    `json:"deliveryRange"` // 配送范围（公里）
	GeoPointID    *string     `json:"geoPointId" gorm:"size:40"`
	PublisherID   string      `json:"publisherId" gorm:"size:40;index"`
	CreatedAt     *time.Time  `json:"createdAt"`
}

// BeforeCreate 创建前自动生成ID
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == "" {
		l.ListingID = uuid.NewString()
	}
	return nil
}

// ListingTag 挂牌与标签的关联
type ListingTag struct {
	ListingID string `json:"listingId" gorm:"primaryKey;size:40"`
	TagID     string `json:"tagId" gorm:"primaryKey;size:40"`
}

// GeoPoint 地理坐标点
type GeoPoint struct {
	GeoPointID string  `json:"geoPointId" gorm:"primaryKey;size:40"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// ListingInsight 挂牌的智能分析结果
// 一个挂牌可以有多条，summary为自由文本，metadataJson为结构化属性
type ListingInsight struct {
	InsightID    string `json:"insightId" gorm:"primaryKey;size:40"`
	ListingID    string `json:"listingId" gorm:"size:40;index"`
	Summary      string `json:"summary" gorm:"type:text"`
	MetadataJSON string `json:"metadataJson" gorm:"type:text"`
}

// BeforeCreate 创建前自动生成ID
func (i *ListingInsight) BeforeCreate(tx *gorm.DB) error {
	if i.InsightID == "" {
		i.InsightID = uuid.NewString()
	}
	return nil
}
