package matching

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/BinLe1988/smart-marketplace/models"

	"github.com/stretchr/testify/assert"
)

// fakeStore 测试用内存仓库，实现引擎依赖的全部只读接口
type fakeStore struct {
	listings map[string]*models.Listing
	tags     map[string]map[string]struct{}
	geos     map[string]*models.GeoPoint
	profiles map[string]*models.UserProfile
	insights map[string][]models.ListingInsight
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: make(map[string]*models.Listing),
		tags:     make(map[string]map[string]struct{}),
		geos:     make(map[string]*models.GeoPoint),
		profiles: make(map[string]*models.UserProfile),
		insights: make(map[string][]models.ListingInsight),
	}
}

func (s *fakeStore) FindByID(listingID string) (*models.Listing, error) {
	return s.listings[listingID], nil
}

func (s *fakeStore) FindActiveByTypeAndCategory(listingType models.ListingType, category string) ([]models.Listing, error) {
	var result []models.Listing
	for _, listing := range s.listings {
		if listing.ListingType == listingType && listing.Status == models.ListingStatusActive && listing.Category == category {
			result = append(result, *listing)
		}
	}
	return result, nil
}

func (s *fakeStore) TagIDsForListing(listingID string) (map[string]struct{}, error) {
	return s.tags[listingID], nil
}

func (s *fakeStore) FindGeoPointByID(geoPointID string) (*models.GeoPoint, error) {
	return s.geos[geoPointID], nil
}

func (s *fakeStore) FindByPartyID(partyID string) (*models.UserProfile, error) {
	return s.profiles[partyID], nil
}

func (s *fakeStore) FindByListingID(listingID string) ([]models.ListingInsight, error) {
	return s.insights[listingID], nil
}

// geoAdapter 复用fakeStore又避免FindByID方法名冲突
type geoAdapter struct{ store *fakeStore }

func (a geoAdapter) FindByID(geoPointID string) (*models.GeoPoint, error) {
	return a.store.FindGeoPointByID(geoPointID)
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, store *fakeStore) *Engine {
	t.Helper()
	provider := NewConfigProvider(filepath.Join(t.TempDir(), "missing.json"))
	engine := NewEngine(Repositories{
		Listings:     store,
		Tags:         store,
		GeoPoints:    geoAdapter{store},
		UserProfiles: store,
		Insights:     store,
	}, provider)
	engine.now = func() time.Time { return testNow }
	return engine
}

func strPtr(s string) *string {
	return &s
}

// addPerfectPair 构造各维度都接近满分的一对供需挂牌
func addPerfectPair(store *fakeStore) (*models.Listing, *models.Listing) {
	created := testNow
	supply := &models.Listing{
		ListingID:   "S1",
		ListingType: models.ListingSupply,
		Status:      models.ListingStatusActive,
		Category:    "会展服务",
		Title:       "展台搭建",
		PriceMin:    floatPtr(100),
		PriceMax:    floatPtr(200),
		GeoPointID:  strPtr("G1"),
		PublisherID: "P1",
		CreatedAt:   &created,
	}
	demand := &models.Listing{
		ListingID:   "D1",
		ListingType: models.ListingDemand,
		Status:      models.ListingStatusActive,
		Category:    "会展服务",
		Title:       "展台搭建",
		PriceMin:    floatPtr(150),
		GeoPointID:  strPtr("G2"),
		PublisherID: "P2",
		CreatedAt:   &created,
	}
	store.listings["S1"] = supply
	store.listings["D1"] = demand
	store.tags["S1"] = tagSet("A", "B", "C")
	store.tags["D1"] = tagSet("A", "B", "C")
	store.geos["G1"] = &models.GeoPoint{GeoPointID: "G1", Latitude: 39.9, Longitude: 116.4}
	store.geos["G2"] = &models.GeoPoint{GeoPointID: "G2", Latitude: 39.9, Longitude: 116.4}
	store.profiles["P1"] = &models.UserProfile{PartyID: "P1", PreferredCategories: "会展服务", CreditScore: floatPtr(1.0)}
	store.profiles["P2"] = &models.UserProfile{PartyID: "P2", PreferredCategories: "会展服务", CreditScore: floatPtr(1.0)}
	return supply, demand
}

func TestCalculateMatchScorePerfectPair(t *testing.T) {
	store := newFakeStore()
	supply, demand := addPerfectPair(store)
	engine := newTestEngine(t, store)

	result := engine.CalculateMatchScore(supply, demand, nil, nil)

	assert.Equal(t, 1.0, result.TagSimilarity)
	assert.Equal(t, 1.0, result.GeoProximity)
	assert.Equal(t, 1.0, result.PriceMatch)
	assert.Equal(t, 1.0, result.FreshnessScore)
	assert.Equal(t, 1.0, result.PreferenceScore)
	assert.Equal(t, 0.75, result.ProjectAffinity)

	// 总分 = 0.3 + 0.2 + 0.15 + 0.1 + 0.1 + 0.15*0.75
	assert.InDelta(t, 0.9625, result.MatchScore, 0.0001)
	assert.Empty(t, result.Fallbacks)
}

func TestCalculateMatchScoreIsWeightedSum(t *testing.T) {
	store := newFakeStore()
	supply, demand := addPerfectPair(store)
	store.tags["D1"] = tagSet("B", "C", "D")
	store.geos["G2"] = &models.GeoPoint{GeoPointID: "G2", Latitude: 39.95, Longitude: 116.45}
	engine := newTestEngine(t, store)

	result := engine.CalculateMatchScore(supply, demand, nil, nil)
	cfg := engine.provider.Get()

	expected := result.TagSimilarity*cfg.Weights.TagSimilarity +
		result.GeoProximity*cfg.Weights.GeoProximity +
		result.PriceMatch*cfg.Weights.PriceMatch +
		result.FreshnessScore*cfg.Weights.Freshness +
		result.PreferenceScore*cfg.Weights.Preference +
		result.ProjectAffinity*cfg.Weights.ProjectAffinity
	assert.InDelta(t, expected, result.MatchScore, 0.0001)
}

func TestCalculateMatchScoreComponentBounds(t *testing.T) {
	// 所有数据缺失时每个维度都落在降级常量上，且全部在[0,1]内
	store := newFakeStore()
	bare1 := &models.Listing{ListingID: "B1", ListingType: models.ListingSupply, PublisherID: "nobody"}
	bare2 := &models.Listing{ListingID: "B2", ListingType: models.ListingDemand, PublisherID: "nobody"}
	store.listings["B1"] = bare1
	store.listings["B2"] = bare2
	engine := newTestEngine(t, store)

	result := engine.CalculateMatchScore(bare1, bare2, nil, nil)

	for name, score := range map[string]float64{
		"tag":      result.TagSimilarity,
		"geo":      result.GeoProximity,
		"price":    result.PriceMatch,
		"fresh":    result.FreshnessScore,
		"pref":     result.PreferenceScore,
		"affinity": result.ProjectAffinity,
	} {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 1.0, name)
	}

	assert.Equal(t, FallbackNoTags, result.Fallbacks["tagSimilarity"])
	assert.Equal(t, FallbackNoGeoPoint, result.Fallbacks["geoProximity"])
	assert.Equal(t, FallbackNoPrice, result.Fallbacks["priceMatch"])
	assert.Equal(t, FallbackNoTimestamp, result.Fallbacks["freshnessScore"])
	assert.Equal(t, FallbackNoUserProfile, result.Fallbacks["preferenceScore"])
	assert.Equal(t, FallbackNoProjectSignal, result.Fallbacks["projectAffinity"])
}

func TestCalculateMatchScoreFailSafe(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, store)

	// 意外的nil输入触发恢复逻辑，总分强制归零
	result := engine.CalculateMatchScore(nil, nil, nil, nil)
	assert.Equal(t, 0.0, result.MatchScore)
	assert.Equal(t, 0.0, result.TagSimilarity)
}

func TestFindMatchesUnknownListing(t *testing.T) {
	engine := newTestEngine(t, newFakeStore())

	matches, err := engine.FindMatchesForListing("nope", 10, 0.0)
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

// addCandidate 以标签重合度区分分数高低的候选
func addCandidate(store *fakeStore, id string, tags map[string]struct{}) {
	created := testNow
	store.listings[id] = &models.Listing{
		ListingID:   id,
		ListingType: models.ListingDemand,
		Status:      models.ListingStatusActive,
		Category:    "会展服务",
		Title:       "展台搭建",
		PriceMin:    floatPtr(150),
		PublisherID: "P2",
		CreatedAt:   &created,
	}
	store.tags[id] = tags
}

func TestFindMatchesRankingAndLimit(t *testing.T) {
	store := newFakeStore()
	addPerfectPair(store)
	delete(store.listings, "D1")
	addCandidate(store, "C1", tagSet("A"))
	addCandidate(store, "C2", tagSet("A", "B"))
	addCandidate(store, "C3", tagSet("A", "B", "C"))
	engine := newTestEngine(t, store)

	matches, err := engine.FindMatchesForListing("S1", 10, 0.0)
	assert.NoError(t, err)
	assert.Len(t, matches, 3)

	// 按总分降序
	assert.Equal(t, "C3", matches[0].Candidate.ListingID)
	assert.Equal(t, "C2", matches[1].Candidate.ListingID)
	assert.Equal(t, "C1", matches[2].Candidate.ListingID)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Result.MatchScore, matches[i].Result.MatchScore)
	}

	// 截断到maxResults
	matches, err = engine.FindMatchesForListing("S1", 2, 0.0)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "C3", matches[0].Candidate.ListingID)
}

func TestFindMatchesMinScoreFilter(t *testing.T) {
	store := newFakeStore()
	addPerfectPair(store)
	delete(store.listings, "D1")
	addCandidate(store, "C1", tagSet("A"))
	addCandidate(store, "C3", tagSet("A", "B", "C"))
	engine := newTestEngine(t, store)

	all, err := engine.FindMatchesForListing("S1", 10, 0.0)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	threshold := (all[0].Result.MatchScore + all[1].Result.MatchScore) / 2
	filtered, err := engine.FindMatchesForListing("S1", 10, threshold)
	assert.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "C3", filtered[0].Candidate.ListingID)
	for _, match := range filtered {
		assert.GreaterOrEqual(t, match.Result.MatchScore, threshold)
	}
}

func TestFindMatchesDefaultMinScore(t *testing.T) {
	store := newFakeStore()
	addPerfectPair(store)
	delete(store.listings, "D1")
	// 无标签重合的候选，总分低于默认阈值0.6
	addCandidate(store, "C0", nil)
	addCandidate(store, "C3", tagSet("A", "B", "C"))
	engine := newTestEngine(t, store)

	matches, err := engine.FindMatchesForListing("S1", 10, -1)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "C3", matches[0].Candidate.ListingID)
}

func TestFindMatchesDeterministicTieBreak(t *testing.T) {
	store := newFakeStore()
	addPerfectPair(store)
	delete(store.listings, "D1")
	addCandidate(store, "C2", tagSet("A", "B", "C"))
	addCandidate(store, "C1", tagSet("A", "B", "C"))
	engine := newTestEngine(t, store)

	// 同分时按挂牌ID升序
	matches, err := engine.FindMatchesForListing("S1", 10, 0.0)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, matches[0].Result.MatchScore, matches[1].Result.MatchScore)
	assert.Equal(t, "C1", matches[0].Candidate.ListingID)
	assert.Equal(t, "C2", matches[1].Candidate.ListingID)
}

func TestFindMatchesOppositeTypeOnly(t *testing.T) {
	store := newFakeStore()
	addPerfectPair(store)
	// 同类型挂牌不应出现在候选中
	created := testNow
	store.listings["S2"] = &models.Listing{
		ListingID:   "S2",
		ListingType: models.ListingSupply,
		Status:      models.ListingStatusActive,
		Category:    "会展服务",
		PublisherID: "P1",
		CreatedAt:   &created,
	}
	engine := newTestEngine(t, store)

	matches, err := engine.FindMatchesForListing("S1", 10, 0.0)
	assert.NoError(t, err)
	for _, match := range matches {
		assert.Equal(t, models.ListingDemand, match.Candidate.ListingType)
	}
}
