package matching

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// 匹配配置资源位置的解析顺序：显式路径 > 环境变量 > 默认路径
const (
	ConfigLocationEnv     = "MATCHING_CONFIG_LOCATION"
	DefaultConfigLocation = "configs/matching-config.json"

	// 配置缓存有效期
	ConfigCacheTTL = 5 * time.Minute
)

// 默认权重配置
const (
	DefaultWeightTagSimilarity   = 0.30
	DefaultWeightGeoProximity    = 0.20
	DefaultWeightPriceMatch      = 0.15
	DefaultWeightFreshness       = 0.10
	DefaultWeightPreference      = 0.10
	DefaultWeightProjectAffinity = 0.15

	DefaultMinScore         = 0.6
	DefaultGeoFallbackScore = 0.5
)

// 默认关键词词典
var (
	defaultExhibitionKeywords  = []string{"展台", "搭建", "会展", "展览", "布展", "展位", "展厅", "展馆", "巡展"}
	defaultRenovationKeywords  = []string{"装修", "改造", "翻新", "设计", "施工", "家装", "工装", "装潢", "软装", "硬装"}
	defaultEngineeringKeywords = []string{"工程", "总包", "施工队", "钢结构", "机电", "土建", "建材", "脚手架", "设备租赁", "电气", "管道", "消防", "弱电", "暖通", "安装"}
	defaultStyleKeywords       = []string{"现代", "科技", "工业", "中式", "欧式", "简约", "奢华", "北欧", "复古", "工业风", "极简", "科技感"}
	defaultMaterialKeywords    = []string{"钢结构", "桁架", "木材", "灯光", "音响", "LED", "玻璃", "铝合金", "地毯", "石材", "PVC", "喷绘", "舞台", "幕布", "地板", "龙骨", "设备"}
)

// Weights 六个维度的权重
type Weights struct {
	TagSimilarity   float64 `json:"tagSimilarity"`
	GeoProximity    float64 `json:"geoProximity"`
	PriceMatch      float64 `json:"priceMatch"`
	Freshness       float64 `json:"freshness"`
	Preference      float64 `json:"preference"`
	ProjectAffinity float64 `json:"projectAffinity"`
}

// Sum 权重之和
func (w Weights) Sum() float64 {
	return w.TagSimilarity + w.GeoProximity + w.PriceMatch +
		w.Freshness + w.Preference + w.ProjectAffinity
}

// Thresholds 分数阈值配置
type Thresholds struct {
	DefaultMinScore  float64 `json:"defaultMinScore"`
	GeoFallbackScore float64 `json:"geoFallbackScore"`
}

// Keywords 项目画像提取使用的关键词词典
type Keywords struct {
	Exhibition  []string `json:"exhibition"`
	Renovation  []string `json:"renovation"`
	Engineering []string `json:"engineering"`
	Style       []string `json:"style"`
	Material    []string `json:"material"`
}

// MatchingConfig 匹配引擎的完整运行时配置
type MatchingConfig struct {
	Weights    Weights
	Thresholds Thresholds
	Keywords   Keywords
}

// DefaultConfig 内置默认配置
func DefaultConfig() *MatchingConfig {
	return &MatchingConfig{
		Weights: Weights{
			TagSimilarity:   DefaultWeightTagSimilarity,
			GeoProximity:    DefaultWeightGeoProximity,
			PriceMatch:      DefaultWeightPriceMatch,
			Freshness:       DefaultWeightFreshness,
			Preference:      DefaultWeightPreference,
			ProjectAffinity: DefaultWeightProjectAffinity,
		},
		Thresholds: Thresholds{
			DefaultMinScore:  DefaultMinScore,
			GeoFallbackScore: DefaultGeoFallbackScore,
		},
		Keywords: Keywords{
			Exhibition:  append([]string(nil), defaultExhibitionKeywords...),
			Renovation:  append([]string(nil), defaultRenovationKeywords...),
			Engineering: append([]string(nil), defaultEngineeringKeywords...),
			Style:       append([]string(nil), defaultStyleKeywords...),
			Material:    append([]string(nil), defaultMaterialKeywords...),
		},
	}
}

// ConfigProvider 带TTL缓存的配置提供者
// 读取外部JSON配置资源，读取或解析失败时退回内置默认值，
// 重新加载由互斥锁串行化，避免并发过期时的重复加载
type ConfigProvider struct {
	mu       sync.Mutex
	location string
	ttl      time.Duration
	cached   *MatchingConfig
	loadedAt time.Time

	now func() time.Time
}

// NewConfigProvider 创建配置提供者
// location为空时依次取环境变量MATCHING_CONFIG_LOCATION和默认路径
func NewConfigProvider(location string) *ConfigProvider {
	if location == "" {
		location = os.Getenv(ConfigLocationEnv)
	}
	if location == "" {
		location = DefaultConfigLocation
	}
	return &ConfigProvider{
		location: location,
		ttl:      ConfigCacheTTL,
		now:      time.Now,
	}
}

// Get 获取当前配置，缓存未过期时直接返回
// 任何失败都不会返回错误，只会降级到默认配置
func (p *ConfigProvider) Get() *MatchingConfig {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.cached != nil && now.Sub(p.loadedAt) < p.ttl {
		return p.cached
	}

	p.cached = p.load()
	p.loadedAt = now
	return p.cached
}

// Invalidate 立即失效缓存，下次Get时重新加载
func (p *ConfigProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
	p.loadedAt = time.Time{}
}

// DefaultMinScore 返回配置的默认最低匹配分数
func (p *ConfigProvider) DefaultMinScore() float64 {
	return p.Get().Thresholds.DefaultMinScore
}

// load 读取并解析配置资源，按顶层分区独立降级
func (p *ConfigProvider) load() *MatchingConfig {
	cfg := DefaultConfig()

	data, err := os.ReadFile(p.location)
	if err != nil {
		log.Printf("Unable to load matching config from %s: %v", p.location, err)
		return cfg
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		log.Printf("Unable to parse matching config from %s: %v", p.location, err)
		return cfg
	}

	if raw, ok := sections["weights"]; ok {
		mergeWeights(raw, &cfg.Weights)
	}
	if raw, ok := sections["thresholds"]; ok {
		mergeThresholds(raw, &cfg.Thresholds)
	}
	if raw, ok := sections["keywords"]; ok {
		mergeKeywords(raw, &cfg.Keywords)
	}

	if sum := cfg.Weights.Sum(); sum < 1.0-1e-4 || sum > 1.0+1e-4 {
		log.Printf("Matching weights sum to %.4f, composite scores will not be normalized to [0,1]", sum)
	}

	return cfg
}

// mergeWeights 逐字段合并权重分区，缺失字段保持默认值
func mergeWeights(raw json.RawMessage, w *Weights) {
	var parsed struct {
		TagSimilarity   *float64 `json:"tagSimilarity"`
		GeoProximity    *float64 `json:"geoProximity"`
		PriceMatch      *float64 `json:"priceMatch"`
		Freshness       *float64 `json:"freshness"`
		Preference      *float64 `json:"preference"`
		ProjectAffinity *float64 `json:"projectAffinity"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("Malformed weights section in matching config: %v", err)
		return
	}
	if parsed.TagSimilarity != nil {
		w.TagSimilarity = *parsed.TagSimilarity
	}
	if parsed.GeoProximity != nil {
		w.GeoProximity = *parsed.GeoProximity
	}
	if parsed.PriceMatch != nil {
		w.PriceMatch = *parsed.PriceMatch
	}
	if parsed.Freshness != nil {
		w.Freshness = *parsed.Freshness
	}
	if parsed.Preference != nil {
		w.Preference = *parsed.Preference
	}
	if parsed.ProjectAffinity != nil {
		w.ProjectAffinity = *parsed.ProjectAffinity
	}
}

// mergeThresholds 逐字段合并阈值分区
func mergeThresholds(raw json.RawMessage, t *Thresholds) {
	var parsed struct {
		DefaultMinScore  *float64 `json:"defaultMinScore"`
		GeoFallbackScore *float64 `json:"geoFallbackScore"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("Malformed thresholds section in matching config: %v", err)
		return
	}
	if parsed.DefaultMinScore != nil {
		t.DefaultMinScore = *parsed.DefaultMinScore
	}
	if parsed.GeoFallbackScore != nil {
		t.GeoFallbackScore = *parsed.GeoFallbackScore
	}
}

// mergeKeywords 逐列表合并关键词分区，空列表退回默认词典
func mergeKeywords(raw json.RawMessage, k *Keywords) {
	var parsed struct {
		Exhibition  []string `json:"exhibition"`
		Renovation  []string `json:"renovation"`
		Engineering []string `json:"engineering"`
		Style       []string `json:"style"`
		Material    []string `json:"material"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("Malformed keywords section in matching config: %v", err)
		return
	}
	if cleaned := cleanKeywordList(parsed.Exhibition); len(cleaned) > 0 {
		k.Exhibition = cleaned
	}
	if cleaned := cleanKeywordList(parsed.Renovation); len(cleaned) > 0 {
		k.Renovation = cleaned
	}
	if cleaned := cleanKeywordList(parsed.Engineering); len(cleaned) > 0 {
		k.Engineering = cleaned
	}
	if cleaned := cleanKeywordList(parsed.Style); len(cleaned) > 0 {
		k.Style = cleaned
	}
	if cleaned := cleanKeywordList(parsed.Material); len(cleaned) > 0 {
		k.Material = cleaned
	}
}

// cleanKeywordList 去除空白项
func cleanKeywordList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
