package matching

import (
	"fmt"
	"log"
	"strings"

	"github.com/BinLe1988/smart-marketplace/models"
)

// GenerateMatchReason 生成匹配推荐理由
// 根据各维度分数与供方信用情况拼接推荐话术，无可用话术时返回通用理由
func (e *Engine) GenerateMatchReason(result MatchResult, supplyListing, demandListing *models.Listing) string {
	var reason strings.Builder

	if result.TagSimilarity >= 0.7 {
		reason.WriteString("商品品类高度匹配；")
	}

	if result.GeoProximity >= 0.8 {
		reason.WriteString("距离很近，配送方便；")
	} else if result.GeoProximity >= 0.5 {
		reason.WriteString("位置在可配送范围内；")
	}

	if result.PriceMatch >= 0.8 {
		reason.WriteString("价格非常合适；")
	}

	if result.ProjectAffinity >= 0.6 {
		reason.WriteString("项目需求与资源能力高度吻合；")
	}

	if supplyListing != nil {
		publisherProfile, err := e.repos.UserProfiles.FindByPartyID(supplyListing.PublisherID)
		if err != nil {
			log.Printf("Failed to load publisher profile %s: %v", supplyListing.PublisherID, err)
		}
		if publisherProfile != nil {
			if publisherProfile.CreditScore != nil && *publisherProfile.CreditScore >= 0.8 {
				reason.WriteString("商家信用良好；")
			}
			if publisherProfile.TotalOrders != nil && *publisherProfile.TotalOrders > 5 {
				reason.WriteString(fmt.Sprintf("已完成%d笔交易", *publisherProfile.TotalOrders))
			}
		}
	}

	if reason.Len() == 0 {
		return "综合评估推荐"
	}
	return reason.String()
}
