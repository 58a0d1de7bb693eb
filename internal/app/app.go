// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/shopguard/internal/auth"
	"github.com/hitoshi/shopguard/internal/config"
	"github.com/hitoshi/shopguard/internal/database"
	"github.com/hitoshi/shopguard/internal/handler"
	"github.com/hitoshi/shopguard/internal/logger"
	"github.com/hitoshi/shopguard/internal/metrics"
	"github.com/hitoshi/shopguard/internal/middleware"
	"github.com/hitoshi/shopguard/internal/product"
	"github.com/hitoshi/shopguard/internal/repository"
	"github.com/hitoshi/shopguard/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("env", cfg.AppEnv),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// stores はrunServeが利用するリポジトリ一式。
type stores struct {
	users    repository.UserRepository
	products repository.ProductRepository
	tokens   repository.TokenRepository
	csrf     repository.CsrfSessionRepository
	db       handler.Pinger
	closer   io.Closer
}

// runServe はAPIサーバーモードで起動する。
// DATABASE_URLが設定されていればPostgreSQL、未設定ならインメモリストアを使う。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストアの初期化
	st, err := buildStores(cfg)
	if err != nil {
		return err
	}
	if st.closer != nil {
		defer st.closer.Close()
	}

	// 2. セキュリティコンポーネントの初期化
	inputSanitizer := security.NewInputSanitizer()
	injectionGuard := security.NewInjectionGuard()
	outputSanitizer := security.NewOutputSanitizer()
	hasher := security.NewBcryptHasher()
	issuer := security.NewRandomTokenIssuer()

	// 3. インメモリ構成ではデモデータを投入する
	if cfg.UseInMemoryStores() {
		if err := seedDemoData(context.Background(), st.users, st.products, hasher); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(st.users, st.tokens, hasher, issuer)
	productService := product.NewService(st.products, product.NewQueryEngine())

	// 6. ミドルウェアの初期化
	rateLimiterCfg := middleware.RateLimiterConfig{
		General:         middleware.WindowPolicy{Window: cfg.RateLimitGeneralWindow, Max: cfg.RateLimitGeneral},
		Auth:            middleware.WindowPolicy{Window: cfg.RateLimitAuthWindow, Max: cfg.RateLimitAuth},
		ProductCreate:   middleware.WindowPolicy{Window: cfg.RateLimitProductCreateWindow, Max: cfg.RateLimitProductCreate},
		CleanupInterval: 5 * time.Minute,
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg, collector)
	defer rateLimiter.Stop()

	requestSanitizer := middleware.NewRequestSanitizer(inputSanitizer, injectionGuard, cfg.MaxBodyBytes, collector)
	csrfGuard := middleware.NewCsrfGuard(st.csrf, issuer, cfg.IsProduction(), collector)
	authGate := middleware.NewAuthGate(st.tokens, st.users)

	// 7. ルーターの構築
	responder := handler.NewResponder(outputSanitizer, !cfg.IsProduction())
	deps := &handler.RouterDeps{
		RateLimiter:      rateLimiter,
		RequestSanitizer: requestSanitizer,
		InputSanitizer:   inputSanitizer,
		CsrfGuard:        csrfGuard,
		AuthGate:         authGate,
		AllowedOrigins:   cfg.AllowedOrigins,
		Metrics:          collector,
		SecurityMetrics:  collector,

		AuthService:    authService,
		ProductService: productService,

		Responder:      responder,
		DB:             st.db,
		MetricsHandler: metrics.Handler(registry),
		Logger:         slog.Default(),
	}
	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildStores はDATABASE_URLの有無でPostgreSQLかインメモリのストアを選択する。
// CSRFセッションはエフェメラルなため、常にインメモリで保持する。
func buildStores(cfg *config.Config) (*stores, error) {
	if cfg.UseInMemoryStores() {
		slog.Info("using in-memory stores (DATABASE_URL not set)")
		return &stores{
			users:    repository.NewMemoryUserRepo(),
			products: repository.NewMemoryProductRepo(),
			tokens:   repository.NewMemoryTokenRepo(),
			csrf:     repository.NewMemoryCsrfRepo(),
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	return &stores{
		users:    repository.NewPostgresUserRepo(db),
		products: repository.NewPostgresProductRepo(db),
		tokens:   repository.NewPostgresTokenRepo(db),
		csrf:     repository.NewMemoryCsrfRepo(),
		db:       db,
		closer:   db,
	}, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
