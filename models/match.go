package models

// FindMatchesRequest 匹配查询请求
type FindMatchesRequest struct {
	ListingID  string   `json:"listingId" binding:"required"`
	MaxResults int      `json:"maxResults"`
	MinScore   *float64 `json:"minScore"` // 缺省时使用配置的默认阈值
}
