package repository

import (
	"errors"

	"github.com/BinLe1988/smart-marketplace/models"

	"gorm.io/gorm"
)

// ListingRepo 挂牌数据的gorm实现
type ListingRepo struct {
	db *gorm.DB
}

// NewListingRepo 创建挂牌仓库
func NewListingRepo(db *gorm.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// FindByID 按ID查找挂牌，不存在时返回nil而非错误
func (r *ListingRepo) FindByID(listingID string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Where("listing_id = ?", listingID).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindActiveByTypeAndCategory 查找同品类的活跃挂牌
func (r *ListingRepo) FindActiveByTypeAndCategory(listingType models.ListingType, category string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.
		Where("listing_type = ? AND status = ? AND category = ?", listingType, models.ListingStatusActive, category).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// TagRepo 挂牌标签关联的gorm实现
type TagRepo struct {
	db *gorm.DB
}

// NewTagRepo 创建标签仓库
func NewTagRepo(db *gorm.DB) *TagRepo {
	return &TagRepo{db: db}
}

// TagIDsForListing 返回挂牌的标签ID集合
func (r *TagRepo) TagIDsForListing(listingID string) (map[string]struct{}, error) {
	var listingTags []models.ListingTag
	if err := r.db.Where("listing_id = ?", listingID).Find(&listingTags).Error; err != nil {
		return nil, err
	}

	tagIDs := make(map[string]struct{}, len(listingTags))
	for _, lt := range listingTags {
		tagIDs[lt.TagID] = struct{}{}
	}
	return tagIDs, nil
}

// GeoPointRepo 地理坐标的gorm实现
type GeoPointRepo struct {
	db *gorm.DB
}

// NewGeoPointRepo 创建地理坐标仓库
func NewGeoPointRepo(db *gorm.DB) *GeoPointRepo {
	return &GeoPointRepo{db: db}
}

// FindByID 按ID查找坐标点，不存在时返回nil
func (r *GeoPointRepo) FindByID(geoPointID string) (*models.GeoPoint, error) {
	var geoPoint models.GeoPoint
	err := r.db.Where("geo_point_id = ?", geoPointID).First(&geoPoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &geoPoint, nil
}

// InsightRepo 挂牌分析结果的gorm实现
type InsightRepo struct {
	db *gorm.DB
}

// NewInsightRepo 创建分析结果仓库
func NewInsightRepo(db *gorm.DB) *InsightRepo {
	return &InsightRepo{db: db}
}

// FindByListingID 返回挂牌的全部分析结果
func (r *InsightRepo) FindByListingID(listingID string) ([]models.ListingInsight, error) {
	var insights []models.ListingInsight
	if err := r.db.Where("listing_id = ?", listingID).Find(&insights).Error; err != nil {
		return nil, err
	}
	return insights, nil
}
