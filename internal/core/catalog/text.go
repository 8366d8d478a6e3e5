package catalog

import (
	"strconv"
	"strings"
)

// Embedding 用テキストのキー
const (
	KeyProductName           = "product_name"
	KeyProductPrice          = "product_price"
	KeyProductPriceUnit      = "product_price_unit"
	KeyProductBrand          = "product_brand"
	KeyProductSpecifications = "product_specifications"
	KeyProductSubcategory    = "product_subcategory"
	KeyProductCategory       = "product_category"
	KeySupplierName          = "supplier_name"
	KeySupplierLocation      = "supplier_location"
)

// ComposeText は商品と関連エンティティから Embedding 用の1行テキストを組み立てる
//
// フォーマット:
//
//	product_name:<name>, product_price:<price>, ..., supplier_location:<location>
//
// 値が nil の項目は出力しない。項目の順序は固定。
func ComposeText(p Product) string {
	var b strings.Builder
	b.WriteString(KeyProductName)
	b.WriteByte(':')
	b.WriteString(lineBreaks.Replace(p.Name))

	if p.Price != nil {
		appendToken(&b, KeyProductPrice, FormatNumber(*p.Price))
	}
	if p.PriceUnit != nil {
		appendToken(&b, KeyProductPriceUnit, *p.PriceUnit)
	}
	if p.Brand != nil {
		appendToken(&b, KeyProductBrand, *p.Brand)
	}
	if p.Specifications != nil {
		appendToken(&b, KeyProductSpecifications, *p.Specifications)
	}

	if sub := p.Subcategory; sub != nil {
		appendToken(&b, KeyProductSubcategory, sub.Name)
		if sub.Category != nil {
			appendToken(&b, KeyProductCategory, sub.Category.Name)
		}
	}

	if sup := p.Supplier; sup != nil {
		appendToken(&b, KeySupplierName, sup.Name)
		if sup.Location != nil {
			appendToken(&b, KeySupplierLocation, *sup.Location)
		}
	}

	return b.String()
}

// FormatNumber はロケールに依存しない最短の10進表記を返す
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// 出力を1行に保つため、値に含まれる改行は空白に置き換える
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func appendToken(b *strings.Builder, key, value string) {
	b.WriteString(", ")
	b.WriteString(key)
	b.WriteByte(':')
	b.WriteString(lineBreaks.Replace(value))
}
