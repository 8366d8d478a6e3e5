package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jinford/product-search/internal/platform/config"
	"github.com/jinford/product-search/internal/platform/container"
	"github.com/jinford/product-search/internal/platform/logger"
)

// Version はビルド時に -ldflags で上書きされる
var Version = "dev"

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config    *config.Config
	Container *container.ServiceContainer
}

type appContextOptions struct {
	logOutput      io.Writer
	requireEncoder bool
	containerOpts  []container.ContainerOption
}

// AppContextOption は AppContext 構築時のオプション
type AppContextOption func(*appContextOptions)

// withLogOutput はログの出力先を差し替える（標準出力を結果表示やプロトコルに使うコマンド向け）
func withLogOutput(w io.Writer) AppContextOption {
	return func(o *appContextOptions) {
		o.logOutput = w
	}
}

// withEncoder は Embedding API の設定を必須にする
func withEncoder() AppContextOption {
	return func(o *appContextOptions) {
		o.requireEncoder = true
	}
}

// withContainerOptions はコンテナ構築時のオプションを追加する
func withContainerOptions(opts ...container.ContainerOption) AppContextOption {
	return func(o *appContextOptions) {
		o.containerOpts = append(o.containerOpts, opts...)
	}
}

// NewAppContext は設定ファイルを読み込み、DBに接続して AppContext を作成する
func NewAppContext(ctx context.Context, envFile string, opts ...AppContextOption) (*AppContext, error) {
	var options appContextOptions
	for _, opt := range opts {
		opt(&options)
	}

	// 設定の読み込み（platform層を使用）
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	if options.requireEncoder {
		if err := cfg.RequireOpenAI(); err != nil {
			return nil, fmt.Errorf("設定が不正です: %w", err)
		}
	}

	// ロガーの初期化（platform層を使用）
	appLogger, err := newLogger(cfg, options.logOutput)
	if err != nil {
		return nil, err
	}

	// コンテナの初期化（platform層を使用）
	containerOpts := append([]container.ContainerOption{container.WithContainerLogger(appLogger)}, options.containerOpts...)
	cont, err := container.NewContainer(ctx, cfg, containerOpts...)
	if err != nil {
		return nil, fmt.Errorf("コンテナの初期化に失敗: %w", err)
	}

	return &AppContext{
		Config:    cfg,
		Container: cont,
	}, nil
}

func newLogger(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	logCfg := logger.DefaultConfig()
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	logCfg.Level = level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = out
	return logger.New(logCfg), nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Container != nil {
		ac.Container.Close()
	}
}

// Logger はAppContextのロガーを返す
func (ac *AppContext) Logger() *slog.Logger {
	if ac.Container != nil {
		return ac.Container.Logger()
	}
	return slog.Default()
}
