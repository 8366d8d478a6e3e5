package search

// NearestProduct は最近傍検索の1件を表す
type NearestProduct struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"displayName"`
	Distance    float64 `json:"distance"`
}

// MatchType は検索結果の取得方法を表す
type MatchType string

const (
	// MatchTypeVector はベクトル距離による一致
	MatchTypeVector MatchType = "vector"
	// MatchTypeKeyword はキーワードによる一致（フォールバック）
	MatchTypeKeyword MatchType = "keyword"
)

// SearchHit は検索APIで返す商品情報を表す
type SearchHit struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	// Distance はベクトル距離（キーワード一致の場合は nil）
	Distance *float64 `json:"distance,omitempty"`
}

// SearchResult は検索APIの結果を表す
type SearchResult struct {
	Query     string      `json:"query"`
	MatchType MatchType   `json:"matchType"`
	Hits      []SearchHit `json:"results"`
}
