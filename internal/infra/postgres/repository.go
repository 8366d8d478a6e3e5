package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/core/indexing"
	"github.com/jinford/product-search/internal/core/search"
)

// DBTX は *pgxpool.Pool と pgx.Tx の共通インターフェース
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository は "Product" テーブルと関連テーブルに対するデータアクセスを提供する
type ProductRepository struct {
	db DBTX
}

// NewProductRepository は新しい ProductRepository を作成する
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// インターフェース実装の確認
var (
	_ indexing.Repository = (*ProductRepository)(nil)
	_ search.Repository   = (*ProductRepository)(nil)
)

const productColumns = `
	p.id, p.name, p."modifiedName", p.price::double precision, p."priceUnit", p.brand,
	p.specifications::text, p."imageUrl", p."modifiedImageUrl",
	s.id, s.name, c.id, c.name,
	sp.id, sp.name, sp.location
FROM "Product" p
LEFT JOIN "Subcategory" s ON s.id = p."subcategoryId"
LEFT JOIN "Category" c ON c.id = s."categoryId"
LEFT JOIN "Supplier" sp ON sp.id = p."supplierId"`

const listProductsAfterSQL = `SELECT` + productColumns + `
WHERE p.id > $1
ORDER BY p.id
LIMIT $2`

const getProductSQL = `SELECT` + productColumns + `
WHERE p.id = $1`

// ListProductsAfter は afterID より大きいIDの商品を ID 昇順で取得する
func (r *ProductRepository) ListProductsAfter(ctx context.Context, afterID int64, limit int) ([]catalog.Product, error) {
	rows, err := r.db.Query(ctx, listProductsAfterSQL, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", withHint(err))
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", withHint(err))
	}

	return products, nil
}

// GetProduct はIDで商品を取得する
func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, getProductSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product: %w", withHint(err))
	}
	return &p, nil
}

// GetEmbedding は商品の Embedding を取得する（未設定の場合は nil）
func (r *ProductRepository) GetEmbedding(ctx context.Context, id int64) ([]float32, error) {
	var literal pgtype.Text
	err := r.db.QueryRow(ctx, `SELECT embedding::text FROM "Product" WHERE id = $1`, id).Scan(&literal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get embedding: %w", withHint(err))
	}
	if !literal.Valid {
		return nil, nil
	}
	return ParseVector(literal.String)
}

const updateEmbeddingsSQL = `
UPDATE "Product" AS p
SET embedding = v.embedding::vector
FROM unnest($1::bigint[], $2::text[]) AS v(id, embedding)
WHERE p.id = v.id`

// UpdateEmbeddings は ids[i] の商品に vectors[i] を1ステートメントで書き込む
func (r *ProductRepository) UpdateEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("%w: ids=%d, vectors=%d", catalog.ErrVectorCountMismatch, len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := r.db.Exec(ctx, updateEmbeddingsSQL, ids, VectorLiterals(vectors)); err != nil {
		return fmt.Errorf("failed to update embeddings: %w", withHint(err))
	}
	return nil
}

const nearestProductsSQL = `
SELECT id, COALESCE(NULLIF("modifiedName", ''), name), embedding <=> $1::vector
FROM "Product"
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1::vector
LIMIT $2`

// NearestProducts は queryVector とのコサイン距離が小さい順に商品を返す
func (r *ProductRepository) NearestProducts(ctx context.Context, queryVector []float32, limit int) ([]search.NearestProduct, error) {
	rows, err := r.db.Query(ctx, nearestProductsSQL, VectorLiteral(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest products: %w", withHint(err))
	}
	defer rows.Close()

	results := []search.NearestProduct{}
	for rows.Next() {
		var n search.NearestProduct
		if err := rows.Scan(&n.ID, &n.DisplayName, &n.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan nearest product: %w", err)
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nearest products: %w", withHint(err))
	}

	return results, nil
}

const hitColumns = `
	id, name, COALESCE(NULLIF("modifiedName", ''), name),
	"imageUrl", "modifiedImageUrl",
	price::double precision, brand`

const searchProductsSQL = `SELECT` + hitColumns + `, embedding <=> $1::vector
FROM "Product"
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1::vector
LIMIT $2`

// SearchProducts は距離の昇順で表示用の商品情報を返す
func (r *ProductRepository) SearchProducts(ctx context.Context, queryVector []float32, limit int) ([]search.SearchHit, error) {
	rows, err := r.db.Query(ctx, searchProductsSQL, VectorLiteral(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", withHint(err))
	}
	defer rows.Close()

	hits := []search.SearchHit{}
	for rows.Next() {
		var distance float64
		hit, err := scanHit(rows, &distance)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hit.Distance = &distance
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search hits: %w", withHint(err))
	}

	return hits, nil
}

const keywordSearchSQL = `SELECT` + hitColumns + `
FROM "Product"
WHERE "modifiedName" ILIKE $1 OR name ILIKE $1 OR brand ILIKE $1
ORDER BY
	CASE
		WHEN "modifiedName" ILIKE $1 THEN 1
		WHEN name ILIKE $1 THEN 2
		ELSE 3
	END,
	id DESC
LIMIT $2`

// KeywordSearch は表示名・商品名・ブランドの部分一致で商品を返す
func (r *ProductRepository) KeywordSearch(ctx context.Context, keyword string, limit int) ([]search.SearchHit, error) {
	pattern := "%" + EscapeLike(keyword) + "%"
	rows, err := r.db.Query(ctx, keywordSearchSQL, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products by keyword: %w", withHint(err))
	}
	defer rows.Close()

	hits := []search.SearchHit{}
	for rows.Next() {
		hit, err := scanHit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keyword hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keyword hits: %w", withHint(err))
	}

	return hits, nil
}

// CountEmbedded は Embedding を持つ商品数を返す
func (r *ProductRepository) CountEmbedded(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM "Product" WHERE embedding IS NOT NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embedded products: %w", withHint(err))
	}
	return count, nil
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var (
		p              catalog.Product
		modifiedName   pgtype.Text
		price          pgtype.Float8
		priceUnit      pgtype.Text
		brand          pgtype.Text
		specifications pgtype.Text
		imageURL       pgtype.Text
		modifiedImage  pgtype.Text
		subcategoryID  pgtype.Int8
		subcategory    pgtype.Text
		categoryID     pgtype.Int8
		category       pgtype.Text
		supplierID     pgtype.Int8
		supplier       pgtype.Text
		location       pgtype.Text
	)

	err := row.Scan(
		&p.ID, &p.Name, &modifiedName, &price, &priceUnit, &brand,
		&specifications, &imageURL, &modifiedImage,
		&subcategoryID, &subcategory, &categoryID, &category,
		&supplierID, &supplier, &location,
	)
	if err != nil {
		return catalog.Product{}, err
	}

	p.ModifiedName = PgtextToStringPtr(modifiedName)
	p.Price = PgFloat8ToFloat64Ptr(price)
	p.PriceUnit = PgtextToStringPtr(priceUnit)
	p.Brand = PgtextToStringPtr(brand)
	p.Specifications = PgtextToStringPtr(specifications)
	p.ImageURL = PgtextToStringPtr(imageURL)
	p.ModifiedImageURL = PgtextToStringPtr(modifiedImage)

	if subcategoryID.Valid {
		p.Subcategory = &catalog.Subcategory{ID: subcategoryID.Int64, Name: subcategory.String}
		if categoryID.Valid {
			p.Subcategory.Category = &catalog.Category{ID: categoryID.Int64, Name: category.String}
		}
	}
	if supplierID.Valid {
		p.Supplier = &catalog.Supplier{
			ID:       supplierID.Int64,
			Name:     supplier.String,
			Location: PgtextToStringPtr(location),
		}
	}

	return p, nil
}

func scanHit(row pgx.Row, extra ...any) (search.SearchHit, error) {
	var (
		hit           search.SearchHit
		image         pgtype.Text
		modifiedImage pgtype.Text
		price         pgtype.Float8
		brand         pgtype.Text
	)

	dest := append([]any{&hit.ID, &hit.Name, &hit.DisplayName, &image, &modifiedImage, &price, &brand}, extra...)
	if err := row.Scan(dest...); err != nil {
		return search.SearchHit{}, err
	}

	hit.ImageURL = catalog.DisplayImageURL(catalog.Product{
		ImageURL:         PgtextToStringPtr(image),
		ModifiedImageURL: PgtextToStringPtr(modifiedImage),
	})
	hit.Price = PgFloat8ToFloat64Ptr(price)
	hit.Brand = PgtextToStringPtr(brand)
	return hit, nil
}
