package matching

import (
	"encoding/json"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/BinLe1988/smart-marketplace/models"
)

// 项目类型
const (
	ProjectTypeNone        = "NONE"
	ProjectTypeNotProject  = "NOT_PROJECT"
	ProjectTypeExhibition  = "EXHIBITION_SETUP"
	ProjectTypeRenovation  = "RENOVATION"
	ProjectTypeEngineering = "ENGINEERING"
)

// ProjectProfile 从挂牌文本与分析元数据推导出的项目画像
// 每次打分时临时构建，不做跨挂牌缓存
type ProjectProfile struct {
	ProjectType  string
	AreaSquare   *float64
	BudgetAmount *float64
	DurationDays *float64
	LocationHint string
	StyleTags    map[string]struct{}
	MaterialTags map[string]struct{}
	Keywords     map[string]struct{}
	Metadata     map[string]interface{}
}

// NewProjectProfile 创建空画像
func NewProjectProfile() *ProjectProfile {
	return &ProjectProfile{
		ProjectType:  ProjectTypeNone,
		StyleTags:    make(map[string]struct{}),
		MaterialTags: make(map[string]struct{}),
		Keywords:     make(map[string]struct{}),
		Metadata:     make(map[string]interface{}),
	}
}

// IsProject 是否被识别为项目类需求
func (p *ProjectProfile) IsProject() bool {
	return p.ProjectType != "" &&
		p.ProjectType != ProjectTypeNone &&
		p.ProjectType != ProjectTypeNotProject
}

var (
	areaPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(平米|平方米|㎡|m2|平方)`)
	budgetPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(万元|万|千|k|元|人民币|rmb)`)
	durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(天|日|周|月|年)`)
	locationPattern = regexp.MustCompile(`(?:在|位于|地址|地点|于)(\p{Han}{2,9})(?:省|市|区|县|镇|馆|中心|展馆|工地)`)
	hanPattern      = regexp.MustCompile(`\p{Han}+`)
)

// profileExtractor 项目画像提取器
// 关键词词典来自注入的配置，每个属性独立提取、独立降级
type profileExtractor struct {
	cfg *MatchingConfig
}

// Extract 从挂牌及其分析结果构建项目画像
func (e *profileExtractor) Extract(listing *models.Listing, insights []models.ListingInsight) *ProjectProfile {
	profile := NewProjectProfile()
	if listing == nil {
		return profile
	}

	var builder strings.Builder
	appendText := func(s string) {
		if s != "" {
			builder.WriteString(s)
			builder.WriteString(" ")
		}
	}
	appendText(listing.Title)
	appendText(listing.Description)
	appendText(listing.Category)
	appendText(listing.SubCategory)

	for _, insight := range insights {
		appendText(insight.Summary)
		if insight.MetadataJSON == "" {
			continue
		}
		var metadata map[string]interface{}
		if err := json.Unmarshal([]byte(insight.MetadataJSON), &metadata); err != nil {
			log.Printf("Failed to parse insight metadata for listing %s: %v", listing.ListingID, err)
			continue
		}
		for key, value := range metadata {
			profile.Metadata[key] = value
			appendText(metadataValueText(value))
		}
	}

	rawText := builder.String()
	if rawText == "" {
		return profile
	}

	for _, token := range hanPattern.FindAllString(rawText, -1) {
		profile.Keywords[token] = struct{}{}
	}

	profile.ProjectType = e.extractProjectType(rawText, profile.Metadata)
	profile.AreaSquare = e.extractArea(rawText, profile.Metadata)
	profile.BudgetAmount = e.extractBudget(rawText, profile.Metadata)
	profile.DurationDays = e.extractDuration(rawText, profile.Metadata)
	profile.LocationHint = e.extractLocationHint(rawText, profile.Metadata)
	e.extractTags(rawText, e.cfg.Keywords.Style, profile.Metadata["stylePreferences"], profile.StyleTags)
	e.extractTags(rawText, e.cfg.Keywords.Material, profile.Metadata["materialKeywords"], profile.MaterialTags)

	return profile
}

// extractProjectType 按三类词典的命中数分类，元数据中的显式类型优先
// 平局时偏向会展，其次装修，最后工程
func (e *profileExtractor) extractProjectType(text string, metadata map[string]interface{}) string {
	projectType := ProjectTypeNone

	exhibitionCount := countKeywordMatches(text, e.cfg.Keywords.Exhibition)
	renovationCount := countKeywordMatches(text, e.cfg.Keywords.Renovation)
	engineeringCount := countKeywordMatches(text, e.cfg.Keywords.Engineering)

	switch {
	case exhibitionCount >= renovationCount && exhibitionCount >= engineeringCount && exhibitionCount > 0:
		projectType = ProjectTypeExhibition
	case renovationCount >= exhibitionCount && renovationCount >= engineeringCount && renovationCount > 0:
		projectType = ProjectTypeRenovation
	case engineeringCount > 0:
		projectType = ProjectTypeEngineering
	}

	if explicit, ok := metadata["projectType"].(string); ok && explicit != "" {
		projectType = explicit
	}

	return projectType
}

// extractArea 提取预估面积（平米）
func (e *profileExtractor) extractArea(text string, metadata map[string]interface{}) *float64 {
	if groups := areaPattern.FindStringSubmatch(text); groups != nil {
		if value, err := strconv.ParseFloat(groups[1], 64); err == nil {
			return &value
		}
	}
	return metadataNumber(metadata["estimatedArea"])
}

// extractBudget 提取预算并归一到元
func (e *profileExtractor) extractBudget(text string, metadata map[string]interface{}) *float64 {
	if groups := budgetPattern.FindStringSubmatch(strings.ToLower(text)); groups != nil {
		if value, err := strconv.ParseFloat(groups[1], 64); err == nil {
			converted := convertBudget(value, groups[2])
			return &converted
		}
	}
	return metadataNumber(metadata["budgetAmountCny"])
}

// extractDuration 提取工期并归一到天
func (e *profileExtractor) extractDuration(text string, metadata map[string]interface{}) *float64 {
	if groups := durationPattern.FindStringSubmatch(text); groups != nil {
		if value, err := strconv.ParseFloat(groups[1], 64); err == nil {
			converted := convertDuration(value, groups[2])
			return &converted
		}
	}
	return metadataNumber(metadata["estimatedDurationDays"])
}

// extractLocationHint 提取地点提示
// 先匹配方位词引导的中文地名，再退回元数据中的地点列表首项
func (e *profileExtractor) extractLocationHint(text string, metadata map[string]interface{}) string {
	if groups := locationPattern.FindStringSubmatch(text); groups != nil {
		return groups[1]
	}
	if hints, ok := metadata["locationHints"].([]interface{}); ok && len(hints) > 0 {
		return valueString(hints[0])
	}
	return ""
}

// extractTags 按词典做子串匹配，并合并元数据提供的标签列表
func (e *profileExtractor) extractTags(text string, keywords []string, metadataList interface{}, out map[string]struct{}) {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			out[keyword] = struct{}{}
		}
	}
	if list, ok := metadataList.([]interface{}); ok {
		for _, item := range list {
			if s := valueString(item); s != "" {
				out[s] = struct{}{}
			}
		}
	}
}

// countKeywordMatches 统计词典命中数，原文匹配或小写匹配均算命中
func countKeywordMatches(text string, keywords []string) int {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) || strings.Contains(lower, strings.ToLower(keyword)) {
			count++
		}
	}
	return count
}

// convertBudget 预算单位换算：万→10000倍，千/k→1000倍
func convertBudget(value float64, unit string) float64 {
	lower := strings.ToLower(unit)
	switch {
	case strings.Contains(lower, "万"):
		return value * 10000
	case strings.Contains(lower, "千") || strings.Contains(lower, "k"):
		return value * 1000
	}
	return value
}

// convertDuration 工期单位换算为天
func convertDuration(value float64, unit string) float64 {
	switch unit {
	case "天", "日":
		return value
	case "周":
		return value * 7
	case "月":
		return value * 30
	case "年":
		return value * 365
	}
	return value
}

// metadataNumber 取元数据中的数值字段
func metadataNumber(value interface{}) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return &parsed
		}
	}
	return nil
}

// metadataValueText 元数据值拼入文本语料时的字符串形式
func metadataValueText(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := valueString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	}
	return ""
}

// valueString 单个元数据项的字符串形式
func valueString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
