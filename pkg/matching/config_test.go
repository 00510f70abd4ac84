package matching

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matching-config.json")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConfigDefaultsWhenFileMissing(t *testing.T) {
	provider := NewConfigProvider(filepath.Join(t.TempDir(), "missing.json"))

	cfg := provider.Get()
	assert.Equal(t, DefaultWeightTagSimilarity, cfg.Weights.TagSimilarity)
	assert.Equal(t, DefaultGeoFallbackScore, cfg.Thresholds.GeoFallbackScore)
	assert.Equal(t, defaultExhibitionKeywords, cfg.Keywords.Exhibition)
	assert.Equal(t, 0.6, provider.DefaultMinScore())
}

func TestConfigDefaultsWhenMalformed(t *testing.T) {
	path := writeConfigFile(t, `{not valid json`)
	provider := NewConfigProvider(path)

	cfg := provider.Get()
	assert.Equal(t, DefaultWeightTagSimilarity, cfg.Weights.TagSimilarity)
	assert.Equal(t, 0.6, provider.DefaultMinScore())
}

func TestConfigPartialOverride(t *testing.T) {
	// 只提供weights分区中的一个字段，其余逐级退回默认值
	path := writeConfigFile(t, `{"weights": {"tagSimilarity": 0.5}}`)
	provider := NewConfigProvider(path)

	cfg := provider.Get()
	assert.Equal(t, 0.5, cfg.Weights.TagSimilarity)
	assert.Equal(t, DefaultWeightGeoProximity, cfg.Weights.GeoProximity)
	assert.Equal(t, DefaultMinScore, cfg.Thresholds.DefaultMinScore)
	assert.Equal(t, defaultStyleKeywords, cfg.Keywords.Style)
}

func TestConfigSectionsDegradeIndependently(t *testing.T) {
	// thresholds分区损坏不影响weights分区生效
	path := writeConfigFile(t, `{
		"weights": {"priceMatch": 0.4},
		"thresholds": "oops",
		"keywords": {"exhibition": ["峰会"], "style": []}
	}`)
	provider := NewConfigProvider(path)

	cfg := provider.Get()
	assert.Equal(t, 0.4, cfg.Weights.PriceMatch)
	assert.Equal(t, DefaultMinScore, cfg.Thresholds.DefaultMinScore)
	assert.Equal(t, []string{"峰会"}, cfg.Keywords.Exhibition)
	// 空关键词列表退回默认词典
	assert.Equal(t, defaultStyleKeywords, cfg.Keywords.Style)
}

func TestConfigThresholdOverride(t *testing.T) {
	path := writeConfigFile(t, `{"thresholds": {"defaultMinScore": 0.75, "geoFallbackScore": 0.3}}`)
	provider := NewConfigProvider(path)

	assert.Equal(t, 0.75, provider.DefaultMinScore())
	assert.Equal(t, 0.3, provider.Get().Thresholds.GeoFallbackScore)
}

func TestConfigCachedUntilTTL(t *testing.T) {
	path := writeConfigFile(t, `{"weights": {"tagSimilarity": 0.5}}`)
	provider := NewConfigProvider(path)

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return current }

	assert.Equal(t, 0.5, provider.Get().Weights.TagSimilarity)

	// TTL内修改文件不生效
	assert.NoError(t, os.WriteFile(path, []byte(`{"weights": {"tagSimilarity": 0.9}}`), 0644))
	current = current.Add(time.Minute)
	assert.Equal(t, 0.5, provider.Get().Weights.TagSimilarity)

	// TTL过期后重新加载
	current = current.Add(ConfigCacheTTL)
	assert.Equal(t, 0.9, provider.Get().Weights.TagSimilarity)
}

func TestConfigInvalidate(t *testing.T) {
	path := writeConfigFile(t, `{"weights": {"tagSimilarity": 0.5}}`)
	provider := NewConfigProvider(path)

	assert.Equal(t, 0.5, provider.Get().Weights.TagSimilarity)

	assert.NoError(t, os.WriteFile(path, []byte(`{"weights": {"tagSimilarity": 0.9}}`), 0644))
	provider.Invalidate()
	assert.Equal(t, 0.9, provider.Get().Weights.TagSimilarity)
}

func TestConfigConcurrentGet(t *testing.T) {
	provider := NewConfigProvider(filepath.Join(t.TempDir(), "missing.json"))

	done := make(chan *MatchingConfig, 16)
	for i := 0; i < 16; i++ {
		go func() {
			done <- provider.Get()
		}()
	}
	for i := 0; i < 16; i++ {
		cfg := <-done
		assert.NotNil(t, cfg)
		assert.Equal(t, DefaultMinScore, cfg.Thresholds.DefaultMinScore)
	}
}

func TestConfigLocationFromEnv(t *testing.T) {
	path := writeConfigFile(t, `{"thresholds": {"defaultMinScore": 0.8}}`)
	t.Setenv(ConfigLocationEnv, path)

	provider := NewConfigProvider("")
	assert.Equal(t, 0.8, provider.DefaultMinScore())
}

func TestWeightsSum(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultConfig().Weights.Sum(), 1e-9)
}
