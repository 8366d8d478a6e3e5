package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// OpenAI設定（Embeddings用）
	OpenAI OpenAIConfig

	// インデクサ設定
	Index IndexConfig

	// 検索設定
	Search SearchConfig

	// HTTPサーバ設定
	Server ServerConfig

	// ログ設定
	Log LogConfig
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	URL      string // 指定時は個別の接続パラメータより優先
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Timeout  time.Duration // 1回のクエリのタイムアウト（0で無効）
}

// OpenAIConfig はOpenAI互換 Embeddings API の設定
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	EmbeddingDimension int
	MaxTokens          int
	Timeout            time.Duration // 1回のAPI呼び出しのタイムアウト（0で無効）
}

// IndexConfig はインデクサの設定
type IndexConfig struct {
	PageSize            int
	BatchSize           int
	Ceiling             int // 0以下で無効
	ProcessBoundaryPage bool
}

// SearchConfig は検索の設定
type SearchConfig struct {
	Limit             int
	FallbackThreshold float64 // 0でキーワード検索へのフォールバックを無効化
}

// ServerConfig はHTTPサーバの設定
type ServerConfig struct {
	Port int
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string
	Format string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "products"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Timeout:  getEnvAsDuration("STORE_TIMEOUT", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 384),
			MaxTokens:          getEnvAsInt("EMBEDDING_MAX_TOKENS", 8191),
			Timeout:            getEnvAsDuration("PROVIDER_TIMEOUT", 0),
		},
		Index: IndexConfig{
			PageSize:            getEnvAsInt("INDEX_PAGE_SIZE", 1000),
			BatchSize:           getEnvAsInt("INDEX_BATCH_SIZE", 64),
			Ceiling:             getEnvAsInt("INDEX_CEILING", 200000),
			ProcessBoundaryPage: getEnvAsBool("INDEX_PROCESS_BOUNDARY_PAGE", false),
		},
		Search: SearchConfig{
			Limit:             getEnvAsInt("QUERY_LIMIT", 20),
			FallbackThreshold: getEnvAsFloat("SEARCH_FALLBACK_THRESHOLD", 0),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate は設定値の整合性を検証します
func (c *Config) Validate() error {
	var errs []error
	if c.Index.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("INDEX_PAGE_SIZE must be positive: %d", c.Index.PageSize))
	}
	if c.Index.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("INDEX_BATCH_SIZE must be positive: %d", c.Index.BatchSize))
	}
	if c.OpenAI.EmbeddingDimension <= 0 {
		errs = append(errs, fmt.Errorf("OPENAI_EMBEDDING_DIMENSION must be positive: %d", c.OpenAI.EmbeddingDimension))
	}
	if c.OpenAI.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_MAX_TOKENS must be positive: %d", c.OpenAI.MaxTokens))
	}
	if c.Search.Limit <= 0 {
		errs = append(errs, fmt.Errorf("QUERY_LIMIT must be positive: %d", c.Search.Limit))
	}
	if c.Search.FallbackThreshold < 0 {
		errs = append(errs, fmt.Errorf("SEARCH_FALLBACK_THRESHOLD must not be negative: %g", c.Search.FallbackThreshold))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT is out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

// RequireOpenAI は Embedding 生成に必要な設定が揃っているか検証します
func (c *Config) RequireOpenAI() error {
	if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration として取得します（例: "30s"）
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
