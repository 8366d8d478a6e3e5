package catalog

// Product は検索対象の商品レコードを表す
type Product struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	ModifiedName     *string      `json:"modifiedName,omitempty"`
	Price            *float64     `json:"price,omitempty"`
	PriceUnit        *string      `json:"priceUnit,omitempty"`
	Brand            *string      `json:"brand,omitempty"`
	Specifications   *string      `json:"specifications,omitempty"`
	ImageURL         *string      `json:"imageUrl,omitempty"`
	ModifiedImageURL *string      `json:"modifiedImageUrl,omitempty"`
	Subcategory      *Subcategory `json:"subcategory,omitempty"`
	Supplier         *Supplier    `json:"supplier,omitempty"`
}

// Subcategory は商品のサブカテゴリを表す
type Subcategory struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Category *Category `json:"category,omitempty"`
}

// Category はサブカテゴリの親カテゴリを表す
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Supplier は商品の仕入先を表す
type Supplier struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Location *string `json:"location,omitempty"`
}

// DisplayName は表示用の商品名を返す（modifiedName があれば優先）
func DisplayName(p Product) string {
	if p.ModifiedName != nil && *p.ModifiedName != "" {
		return *p.ModifiedName
	}
	return p.Name
}

// DisplayImageURL は表示用の画像URLを返す
func DisplayImageURL(p Product) *string {
	if p.ModifiedImageURL != nil && *p.ModifiedImageURL != "" {
		return p.ModifiedImageURL
	}
	return p.ImageURL
}

// EncodeOptions は Embedding 生成時のオプションを表す
type EncodeOptions struct {
	// Normalize が true の場合、各ベクトルを単位長に正規化する
	Normalize bool
	// BatchSize は1回のAPI呼び出しで送るテキスト数（0以下はプロバイダのデフォルト）
	BatchSize int
}
