package handlers

import (
	"net/http"

	"github.com/BinLe1988/smart-marketplace/models"
	"github.com/BinLe1988/smart-marketplace/pkg/matching"

	"github.com/gin-gonic/gin"
)

// 默认返回的最大匹配数
const defaultMaxResults = 10

var matchEngine *matching.Engine
var matchConfig *matching.ConfigProvider
var listingRepo matching.ListingRepository

// InitMatching 注入匹配引擎、配置提供者与挂牌仓库
func InitMatching(engine *matching.Engine, provider *matching.ConfigProvider, listings matching.ListingRepository) {
	matchEngine = engine
	matchConfig = provider
	listingRepo = listings
}

// loadListingPair 加载待打分的两个挂牌
func loadListingPair(listingID1, listingID2 string) (*models.Listing, *models.Listing, error) {
	listing1, err := listingRepo.FindByID(listingID1)
	if err != nil {
		return nil, nil, err
	}
	listing2, err := listingRepo.FindByID(listingID2)
	if err != nil {
		return nil, nil, err
	}
	return listing1, listing2, nil
}

// FindMatches 为挂牌查找匹配对象
func FindMatches(c *gin.Context) {
	var req models.FindMatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	// minScore缺省时传负值让引擎取配置的默认阈值
	minScore := -1.0
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	matches, err := matchEngine.FindMatchesForListing(req.ListingID, maxResults, minScore)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listingId": req.ListingID,
		"matches":   matches,
	})
}

// ScorePair 计算两个挂牌之间的详细匹配分数及推荐理由
func ScorePair(c *gin.Context) {
	listingID1 := c.Query("listing1")
	listingID2 := c.Query("listing2")
	if listingID1 == "" || listingID2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing1 and listing2 are required"})
		return
	}

	listing1, listing2, err := loadListingPair(listingID1, listingID2)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if listing1 == nil || listing2 == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	result := matchEngine.CalculateMatchScore(listing1, listing2, nil, nil)

	// 推荐理由以供方挂牌的信用信息收尾
	supply, demand := listing1, listing2
	if listing1.ListingType == models.ListingDemand {
		supply, demand = listing2, listing1
	}
	reason := matchEngine.GenerateMatchReason(result, supply, demand)

	c.JSON(http.StatusOK, gin.H{
		"result": result,
		"reason": reason,
	})
}

// InvalidateMatchingConfig 手动失效匹配配置缓存
func InvalidateMatchingConfig(c *gin.Context) {
	matchConfig.Invalidate()
	c.JSON(http.StatusOK, gin.H{
		"message": "Matching config invalidated",
	})
}
