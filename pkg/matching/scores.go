package matching

import (
	"math"
	"strings"
	"time"

	"github.com/BinLe1988/smart-marketplace/models"
)

// FallbackReason 维度分数的降级原因，空值表示分数由完整数据计算得出
type FallbackReason string

const (
	FallbackNone            FallbackReason = ""
	FallbackNoTags          FallbackReason = "NO_TAGS"
	FallbackNoGeoPoint      FallbackReason = "NO_GEO_POINT"
	FallbackNoPrice         FallbackReason = "NO_PRICE"
	FallbackZeroPrice       FallbackReason = "ZERO_PRICE"
	FallbackNoTimestamp     FallbackReason = "NO_TIMESTAMP"
	FallbackNoUserProfile   FallbackReason = "NO_USER_PROFILE"
	FallbackNoProjectSignal FallbackReason = "NO_PROJECT_SIGNAL"
)

// ScoreOutcome 单个维度的打分结果
// Fallback非空时Value为该维度约定的降级常量分
type ScoreOutcome struct {
	Value    float64
	Fallback FallbackReason
}

func computed(v float64) ScoreOutcome {
	return ScoreOutcome{Value: round4(v)}
}

func fallback(v float64, reason FallbackReason) ScoreOutcome {
	return ScoreOutcome{Value: round4(v), Fallback: reason}
}

// round4 保留4位小数，四舍五入
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// tagSimilarity 标签相似度（Jaccard相似度）
// 任一集合为空时返回0，避免除零
func tagSimilarity(tags1, tags2 map[string]struct{}) ScoreOutcome {
	if len(tags1) == 0 || len(tags2) == 0 {
		return fallback(0, FallbackNoTags)
	}

	intersection := 0
	for tag := range tags1 {
		if _, ok := tags2[tag]; ok {
			intersection++
		}
	}
	union := len(tags1) + len(tags2) - intersection

	return computed(float64(intersection) / float64(union))
}

// geoProximity 地理接近度
// 配送范围内线性递减到0.5，超出范围后指数衰减
// 任一坐标缺失时返回配置的降级分数
func geoProximity(geo1, geo2 *models.GeoPoint, deliveryRange *float64, fallbackScore float64) ScoreOutcome {
	if geo1 == nil || geo2 == nil {
		return fallback(fallbackScore, FallbackNoGeoPoint)
	}

	distance := haversineDistance(geo1.Latitude, geo1.Longitude, geo2.Latitude, geo2.Longitude)

	maxRange := 5.0
	if deliveryRange != nil {
		maxRange = *deliveryRange
	}

	var proximity float64
	if distance <= maxRange {
		proximity = 1.0 - (distance/maxRange)*0.5
	} else {
		proximity = 0.5 * math.Exp(-(distance-maxRange)/maxRange)
	}

	return computed(proximity)
}

// haversineDistance Haversine公式计算两点间球面距离（公里）
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	latDistance := toRadians(lat2 - lat1)
	lonDistance := toRadians(lon2 - lon1)

	a := math.Sin(latDistance/2)*math.Sin(latDistance/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(lonDistance/2)*math.Sin(lonDistance/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// priceMatch 价格匹配度
// 取双方价格区间中点，按相对差异指数衰减；任一方无价格信息返回0.7
func priceMatch(price1Min, price1Max, price2Min, price2Max *float64) ScoreOutcome {
	if price1Min == nil || price2Min == nil {
		return fallback(0.7, FallbackNoPrice)
	}

	price1Avg := *price1Min
	if price1Max != nil {
		price1Avg = (*price1Min + *price1Max) / 2
	}
	price2Avg := *price2Min
	if price2Max != nil {
		price2Avg = (*price2Min + *price2Max) / 2
	}

	avgPrice := (price1Avg + price2Avg) / 2
	if avgPrice == 0 {
		return fallback(0.7, FallbackZeroPrice)
	}

	diffPercent := math.Abs(price1Avg-price2Avg) / avgPrice
	return computed(math.Exp(-diffPercent * 2))
}

// freshnessScore 时效性分数
// 双方发布时间的平均年龄在48小时内线性递减，超出后指数衰减
func freshnessScore(now time.Time, created1, created2 *time.Time) ScoreOutcome {
	if created1 == nil || created2 == nil {
		return fallback(0.5, FallbackNoTimestamp)
	}

	// 整小时数
	age1 := now.Sub(*created1) / time.Hour
	age2 := now.Sub(*created2) / time.Hour
	avgAge := float64(age1+age2) / 2.0

	var freshness float64
	if avgAge <= 48 {
		freshness = 1.0 - (avgAge/48.0)*0.3
	} else {
		freshness = 0.7 * math.Exp(-(avgAge-48)/48.0)
	}

	return computed(freshness)
}

// preferenceScore 用户偏好分数
// 基础分0.5，双方偏好品类各+0.2，平均信用分最多再贡献0.1，上限1.0
func preferenceScore(profile1, profile2 *models.UserProfile, category string) ScoreOutcome {
	if profile1 == nil || profile2 == nil {
		return fallback(0.5, FallbackNoUserProfile)
	}

	score := 0.5

	if category != "" {
		if strings.Contains(profile1.PreferredCategories, category) {
			score += 0.2
		}
		if strings.Contains(profile2.PreferredCategories, category) {
			score += 0.2
		}
	}

	if profile1.CreditScore != nil && profile2.CreditScore != nil {
		avgCredit := (*profile1.CreditScore + *profile2.CreditScore) / 2
		score += avgCredit * 0.1
	}

	return computed(math.Min(score, 1.0))
}

// projectAffinity 项目契合度
// 先按项目类型定基准分，再按面积、预算、工期、地点、风格、材料做增减，钳制在[0,1]
func projectAffinity(profile1, profile2 *ProjectProfile) ScoreOutcome {
	if profile1 == nil || profile2 == nil {
		return fallback(0.5, FallbackNoProjectSignal)
	}
	if !profile1.IsProject() && !profile2.IsProject() {
		return fallback(0.5, FallbackNoProjectSignal)
	}

	score := 0.5

	switch {
	case profile1.IsProject() && profile2.IsProject():
		if profile1.ProjectType == profile2.ProjectType {
			score = 0.75
		} else {
			score = 0.4
		}
	case profile1.IsProject() || profile2.IsProject():
		// 一方有明确项目类型，另一方未知
		score = 0.55
	}

	if profile1.AreaSquare != nil && profile2.AreaSquare != nil {
		smaller := math.Min(*profile1.AreaSquare, *profile2.AreaSquare)
		larger := math.Max(*profile1.AreaSquare, *profile2.AreaSquare)
		if larger > 0 {
			ratio := smaller / larger
			switch {
			case ratio >= 0.9:
				score += 0.1
			case ratio >= 0.75:
				score += 0.07
			case ratio >= 0.6:
				score += 0.04
			default:
				score -= 0.05
			}
		}
	}

	if profile1.BudgetAmount != nil && profile2.BudgetAmount != nil {
		diff := math.Abs(*profile1.BudgetAmount - *profile2.BudgetAmount)
		avg := (*profile1.BudgetAmount + *profile2.BudgetAmount) / 2
		if avg > 0 {
			diffRatio := diff / avg
			switch {
			case diffRatio <= 0.2:
				score += 0.08
			case diffRatio <= 0.35:
				score += 0.05
			case diffRatio <= 0.5:
				score += 0.02
			default:
				score -= 0.05
			}
		}
	}

	if profile1.DurationDays != nil && profile2.DurationDays != nil {
		diff := math.Abs(*profile1.DurationDays - *profile2.DurationDays)
		switch {
		case diff <= 7:
			score += 0.04
		case diff <= 14:
			score += 0.02
		default:
			score -= 0.03
		}
	}

	if profile1.LocationHint != "" && profile2.LocationHint != "" {
		switch {
		case profile1.LocationHint == profile2.LocationHint:
			score += 0.08
		case strings.HasPrefix(profile1.LocationHint, profile2.LocationHint) ||
			strings.HasPrefix(profile2.LocationHint, profile1.LocationHint):
			score += 0.04
		default:
			score -= 0.04
		}
	}

	if hasIntersection(profile1.StyleTags, profile2.StyleTags) {
		score += 0.03
	}
	if hasIntersection(profile1.MaterialTags, profile2.MaterialTags) {
		score += 0.02
	}

	return computed(math.Max(0.0, math.Min(1.0, score)))
}

// hasIntersection 两个集合是否有交集
func hasIntersection(set1, set2 map[string]struct{}) bool {
	for item := range set1 {
		if _, ok := set2[item]; ok {
			return true
		}
	}
	return false
}
