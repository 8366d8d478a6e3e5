package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	pgvector "github.com/pgvector/pgvector-go"
)

// PgtextToStringPtr converts pgtype.Text to *string
func PgtextToStringPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

// PgFloat8ToFloat64Ptr converts pgtype.Float8 to *float64
func PgFloat8ToFloat64Ptr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

// VectorLiteral は pgvector のテキスト表現（例: [0.1,0.2]）を返す
// 数値は strconv で整形されるためロケールに依存しない
func VectorLiteral(v []float32) string {
	return pgvector.NewVector(v).String()
}

// VectorLiterals は複数ベクトルのテキスト表現を返す
func VectorLiterals(vectors [][]float32) []string {
	literals := make([]string, len(vectors))
	for i, v := range vectors {
		literals[i] = VectorLiteral(v)
	}
	return literals
}

// ParseVector は pgvector のテキスト表現をスライスに変換する
func ParseVector(s string) ([]float32, error) {
	var v pgvector.Vector
	if err := v.Scan(s); err != nil {
		return nil, fmt.Errorf("failed to parse vector: %w", err)
	}
	return v.Slice(), nil
}

// EscapeLike は LIKE パターンのメタ文字をエスケープする
func EscapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
