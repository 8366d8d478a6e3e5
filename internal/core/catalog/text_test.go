package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func fullProduct() Product {
	return Product{
		ID:             7,
		Name:           "Hex Bolt",
		Price:          floatPtr(12.75),
		PriceUnit:      strPtr("Piece"),
		Brand:          strPtr("Tata"),
		Specifications: strPtr("Material: Steel"),
		Subcategory: &Subcategory{
			ID:       3,
			Name:     "Fasteners",
			Category: &Category{ID: 1, Name: "Hardware"},
		},
		Supplier: &Supplier{ID: 9, Name: "Acme", Location: strPtr("NJ")},
	}
}

func TestComposeText_EndToEndScenario(t *testing.T) {
	p := Product{
		ID:    1,
		Name:  "Bolt",
		Price: floatPtr(0.5),
		Subcategory: &Subcategory{
			Name:     "Fasteners",
			Category: &Category{Name: "Hardware"},
		},
		Supplier: &Supplier{Name: "Acme", Location: strPtr("NJ")},
	}

	assert.Equal(t,
		"product_name:Bolt, product_price:0.5, product_subcategory:Fasteners, product_category:Hardware, supplier_name:Acme, supplier_location:NJ",
		ComposeText(p),
	)
}

func TestComposeText_IsDeterministic(t *testing.T) {
	p := fullProduct()
	assert.Equal(t, ComposeText(p), ComposeText(p))
}

func TestComposeText_FieldOrder(t *testing.T) {
	text := ComposeText(fullProduct())

	var keys []string
	for _, token := range strings.Split(text, ", ") {
		key, _, found := strings.Cut(token, ":")
		assert.True(t, found, "token without separator: %q", token)
		keys = append(keys, key)
	}

	assert.Equal(t, []string{
		KeyProductName,
		KeyProductPrice,
		KeyProductPriceUnit,
		KeyProductBrand,
		KeyProductSpecifications,
		KeyProductSubcategory,
		KeyProductCategory,
		KeySupplierName,
		KeySupplierLocation,
	}, keys)
}

func TestComposeText_Omission(t *testing.T) {
	tests := []struct {
		name     string
		product  Product
		expected string
	}{
		{
			name:     "name only",
			product:  Product{Name: "Washer"},
			expected: "product_name:Washer",
		},
		{
			name: "supplier without location",
			product: Product{
				Name:     "X",
				Supplier: &Supplier{Name: "Y"},
			},
			expected: "product_name:X, supplier_name:Y",
		},
		{
			name: "subcategory without category",
			product: Product{
				Name:        "Nut",
				Subcategory: &Subcategory{Name: "Fasteners"},
			},
			expected: "product_name:Nut, product_subcategory:Fasteners",
		},
		{
			name: "brand and unit without price",
			product: Product{
				Name:      "Cable",
				PriceUnit: strPtr("Meter"),
				Brand:     strPtr("Polycab"),
			},
			expected: "product_name:Cable, product_price_unit:Meter, product_brand:Polycab",
		},
		{
			name: "zero price is still present",
			product: Product{
				Name:  "Sample",
				Price: floatPtr(0),
			},
			expected: "product_name:Sample, product_price:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComposeText(tt.product))
		})
	}
}

func TestComposeText_SingleLine(t *testing.T) {
	p := Product{
		Name:           "Pump",
		Specifications: strPtr("Power: 1HP\nVoltage: 220V\r\nPhase: Single"),
	}

	text := ComposeText(p)
	assert.NotContains(t, text, "\n")
	assert.NotContains(t, text, "\r")
	assert.Equal(t, "product_name:Pump, product_specifications:Power: 1HP Voltage: 220V Phase: Single", text)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{0.5, "0.5"},
		{12, "12"},
		{1499.99, "1499.99"},
		{0.1, "0.1"},
		{1e21, "1000000000000000000000"},
		{-3.25, "-3.25"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatNumber(tt.in))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Bolt", DisplayName(Product{Name: "Bolt"}))
	assert.Equal(t, "Steel Hex Bolt", DisplayName(Product{Name: "Bolt", ModifiedName: strPtr("Steel Hex Bolt")}))
	assert.Equal(t, "Bolt", DisplayName(Product{Name: "Bolt", ModifiedName: strPtr("")}))
}

func TestDisplayImageURL(t *testing.T) {
	assert.Nil(t, DisplayImageURL(Product{}))
	assert.Equal(t, "a.png", *DisplayImageURL(Product{ImageURL: strPtr("a.png")}))
	assert.Equal(t, "b.png", *DisplayImageURL(Product{ImageURL: strPtr("a.png"), ModifiedImageURL: strPtr("b.png")}))
}
