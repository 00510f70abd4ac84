package matching

import (
	"log"
	"sort"
	"time"

	"github.com/BinLe1988/smart-marketplace/models"
)

// ListingRepository 挂牌只读仓库
type ListingRepository interface {
	FindByID(listingID string) (*models.Listing, error)
	FindActiveByTypeAndCategory(listingType models.ListingType, category string) ([]models.Listing, error)
}

// TagRepository 标签只读仓库
type TagRepository interface {
	TagIDsForListing(listingID string) (map[string]struct{}, error)
}

// GeoPointRepository 地理坐标只读仓库
type GeoPointRepository interface {
	FindByID(geoPointID string) (*models.GeoPoint, error)
}

// UserProfileRepository 交易方画像只读仓库
type UserProfileRepository interface {
	FindByPartyID(partyID string) (*models.UserProfile, error)
}

// InsightRepository 挂牌分析结果只读仓库
type InsightRepository interface {
	FindByListingID(listingID string) ([]models.ListingInsight, error)
}

// Repositories 引擎依赖的全部只读仓库
type Repositories struct {
	Listings     ListingRepository
	Tags         TagRepository
	GeoPoints    GeoPointRepository
	UserProfiles UserProfileRepository
	Insights     InsightRepository
}

// MatchResult 一次配对打分的完整结果
// 各维度分数均在[0,1]内并保留4位小数，总分为加权和
type MatchResult struct {
	MatchScore      float64 `json:"matchScore"`
	TagSimilarity   float64 `json:"tagSimilarity"`
	GeoProximity    float64 `json:"geoProximity"`
	PriceMatch      float64 `json:"priceMatch"`
	FreshnessScore  float64 `json:"freshnessScore"`
	PreferenceScore float64 `json:"preferenceScore"`
	ProjectAffinity float64 `json:"projectAffinity"`

	// 各维度的降级原因，便于区分"计算得出"与"数据缺失"
	Fallbacks map[string]FallbackReason `json:"fallbacks,omitempty"`
}

// Match 候选挂牌及其打分结果
type Match struct {
	Result    MatchResult    `json:"result"`
	Candidate models.Listing `json:"candidate"`
}

// Engine 智能匹配引擎
// 根据标签相似度、地理位置、价格、时效性、用户偏好、项目契合度多维度计算匹配分数
type Engine struct {
	repos    Repositories
	provider *ConfigProvider

	// 测试中可替换的时钟
	now func() time.Time
}

// NewEngine 创建匹配引擎实例
func NewEngine(repos Repositories, provider *ConfigProvider) *Engine {
	return &Engine{
		repos:    repos,
		provider: provider,
		now:      time.Now,
	}
}

// ExtractProjectProfile 为挂牌构建项目画像
func (e *Engine) ExtractProjectProfile(listing *models.Listing) *ProjectProfile {
	extractor := &profileExtractor{cfg: e.provider.Get()}
	if listing == nil {
		return extractor.Extract(nil, nil)
	}
	insights, err := e.repos.Insights.FindByListingID(listing.ListingID)
	if err != nil {
		log.Printf("Failed to load insights for listing %s: %v", listing.ListingID, err)
	}
	return extractor.Extract(listing, insights)
}

// CalculateMatchScore 计算两个挂牌之间的详细匹配分数
// profile1/profile2可为nil，此时内部提取；任何意外故障使总分归零
func (e *Engine) CalculateMatchScore(listing1, listing2 *models.Listing, profile1, profile2 *ProjectProfile) (result MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error calculating match score: %v", r)
			result = MatchResult{}
		}
	}()

	cfg := e.provider.Get()

	tagOutcome := e.scoreTagSimilarity(listing1.ListingID, listing2.ListingID)
	geoOutcome := e.scoreGeoProximity(listing1.GeoPointID, listing2.GeoPointID, listing1.DeliveryRange, cfg)
	priceOutcome := priceMatch(listing1.PriceMin, listing1.PriceMax, listing2.PriceMin, listing2.PriceMax)
	freshOutcome := freshnessScore(e.now(), listing1.CreatedAt, listing2.CreatedAt)
	prefOutcome := e.scorePreference(listing1.PublisherID, listing2.PublisherID, listing2.Category)

	if profile1 == nil {
		profile1 = e.ExtractProjectProfile(listing1)
	}
	if profile2 == nil {
		profile2 = e.ExtractProjectProfile(listing2)
	}
	affinityOutcome := projectAffinity(profile1, profile2)

	totalScore := tagOutcome.Value*cfg.Weights.TagSimilarity +
		geoOutcome.Value*cfg.Weights.GeoProximity +
		priceOutcome.Value*cfg.Weights.PriceMatch +
		freshOutcome.Value*cfg.Weights.Freshness +
		prefOutcome.Value*cfg.Weights.Preference +
		affinityOutcome.Value*cfg.Weights.ProjectAffinity

	result = MatchResult{
		MatchScore:      round4(totalScore),
		TagSimilarity:   tagOutcome.Value,
		GeoProximity:    geoOutcome.Value,
		PriceMatch:      priceOutcome.Value,
		FreshnessScore:  freshOutcome.Value,
		PreferenceScore: prefOutcome.Value,
		ProjectAffinity: affinityOutcome.Value,
		Fallbacks:       collectFallbacks(tagOutcome, geoOutcome, priceOutcome, freshOutcome, prefOutcome, affinityOutcome),
	}
	return result
}

// FindMatchesForListing 为指定挂牌查找匹配对象
// 源挂牌不存在时返回空列表；minScore为负时使用配置的默认阈值
func (e *Engine) FindMatchesForListing(listingID string, maxResults int, minScore float64) ([]Match, error) {
	log.Printf("Finding matches for listing: %s", listingID)

	sourceListing, err := e.repos.Listings.FindByID(listingID)
	if err != nil {
		return nil, err
	}
	if sourceListing == nil {
		log.Printf("Listing not found: %s", listingID)
		return []Match{}, nil
	}

	if minScore < 0 {
		minScore = e.provider.DefaultMinScore()
	}

	targetType := models.ListingDemand
	if sourceListing.ListingType == models.ListingDemand {
		targetType = models.ListingSupply
	}

	candidates, err := e.repos.Listings.FindActiveByTypeAndCategory(targetType, sourceListing.Category)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d candidate listings", len(candidates))

	// 源画像只提取一次，候选画像逐个提取
	sourceProfile := e.ExtractProjectProfile(sourceListing)

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		candidate := candidates[i]
		candidateProfile := e.ExtractProjectProfile(&candidate)
		result := e.CalculateMatchScore(sourceListing, &candidate, sourceProfile, candidateProfile)
		if result.MatchScore >= minScore {
			matches = append(matches, Match{Result: result, Candidate: candidate})
		}
	}

	// 按总分降序，同分时按挂牌ID升序保证结果确定
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Result.MatchScore != matches[j].Result.MatchScore {
			return matches[i].Result.MatchScore > matches[j].Result.MatchScore
		}
		return matches[i].Candidate.ListingID < matches[j].Candidate.ListingID
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	log.Printf("Found %d matches above threshold %.4f", len(matches), minScore)
	return matches, nil
}

// scoreTagSimilarity 解析标签集合后计算Jaccard相似度
func (e *Engine) scoreTagSimilarity(listingID1, listingID2 string) ScoreOutcome {
	tags1, err := e.repos.Tags.TagIDsForListing(listingID1)
	if err != nil {
		log.Printf("Failed to load tags for listing %s: %v", listingID1, err)
	}
	tags2, err := e.repos.Tags.TagIDsForListing(listingID2)
	if err != nil {
		log.Printf("Failed to load tags for listing %s: %v", listingID2, err)
	}
	return tagSimilarity(tags1, tags2)
}

// scoreGeoProximity 解析地理坐标后计算接近度，坐标无法解析时降级
func (e *Engine) scoreGeoProximity(geoPointID1, geoPointID2 *string, deliveryRange *float64, cfg *MatchingConfig) ScoreOutcome {
	fallbackScore := cfg.Thresholds.GeoFallbackScore
	if geoPointID1 == nil || geoPointID2 == nil {
		return fallback(fallbackScore, FallbackNoGeoPoint)
	}

	geo1, err := e.repos.GeoPoints.FindByID(*geoPointID1)
	if err != nil {
		log.Printf("Failed to load geo point %s: %v", *geoPointID1, err)
	}
	geo2, err := e.repos.GeoPoints.FindByID(*geoPointID2)
	if err != nil {
		log.Printf("Failed to load geo point %s: %v", *geoPointID2, err)
	}

	return geoProximity(geo1, geo2, deliveryRange, fallbackScore)
}

// scorePreference 解析交易方画像后计算偏好分数
func (e *Engine) scorePreference(partyID1, partyID2, category string) ScoreOutcome {
	profile1, err := e.repos.UserProfiles.FindByPartyID(partyID1)
	if err != nil {
		log.Printf("Failed to load user profile %s: %v", partyID1, err)
	}
	profile2, err := e.repos.UserProfiles.FindByPartyID(partyID2)
	if err != nil {
		log.Printf("Failed to load user profile %s: %v", partyID2, err)
	}
	return preferenceScore(profile1, profile2, category)
}

// collectFallbacks 汇总各维度的降级原因
func collectFallbacks(tag, geo, price, fresh, pref, affinity ScoreOutcome) map[string]FallbackReason {
	fallbacks := make(map[string]FallbackReason)
	record := func(dimension string, outcome ScoreOutcome) {
		if outcome.Fallback != FallbackNone {
			fallbacks[dimension] = outcome.Fallback
		}
	}
	record("tagSimilarity", tag)
	record("geoProximity", geo)
	record("priceMatch", price)
	record("freshnessScore", fresh)
	record("preferenceScore", pref)
	record("projectAffinity", affinity)
	if len(fallbacks) == 0 {
		return nil
	}
	return fallbacks
}
