package openai

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultMaxTokens は text-embedding-3 系モデルの入力トークン上限
	DefaultMaxTokens = 8191
	// DefaultEncoding は text-embedding-3 系モデルと互換のエンコーディング
	DefaultEncoding = "cl100k_base"
)

// TokenLimiter は Embedding 入力をモデルのトークン上限に収める
type TokenLimiter struct {
	encoder   *tiktoken.Tiktoken
	maxTokens int
}

// NewTokenLimiter は新しい TokenLimiter を作成する
func NewTokenLimiter(maxTokens int) (*TokenLimiter, error) {
	encoder, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoder: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &TokenLimiter{
		encoder:   encoder,
		maxTokens: maxTokens,
	}, nil
}

// Truncate はトークン上限を超えるテキストの末尾を切り詰める
func (l *TokenLimiter) Truncate(text string) string {
	tokens := l.encoder.Encode(text, nil, nil)
	if len(tokens) <= l.maxTokens {
		return text
	}
	return l.encoder.Decode(tokens[:l.maxTokens])
}
