package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/notely/internal/auth"
	"github.com/hitoshi/notely/internal/config"
	"github.com/hitoshi/notely/internal/database"
	"github.com/hitoshi/notely/internal/handler"
	"github.com/hitoshi/notely/internal/logger"
	"github.com/hitoshi/notely/internal/metrics"
	"github.com/hitoshi/notely/internal/middleware"
	"github.com/hitoshi/notely/internal/note"
	"github.com/hitoshi/notely/internal/repository"
	"github.com/hitoshi/notely/internal/security"
	"github.com/hitoshi/notely/internal/user"
	"github.com/hitoshi/notely/internal/worker/cleanup"
)

const defaultHealthcheckPort = "3333"

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込んでログレベルを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルを反映
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

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
			port = defaultHealthcheckPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("addr", cfg.Addr()),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCleanup:
		return runCleanup(cfg)
	default:
		return runServe(cfg)
	}
}

// stores はストレージ実装ごとのリポジトリ群をまとめる。
type stores struct {
	users      repository.UserRepository
	notes      repository.NoteRepository
	highlights repository.HighlightRepository
	purger     repository.TrashPurger

	// health はDB疎通確認に使用する。メモリストアではnil。
	health handler.HealthChecker
	close  func() error
}

// openStores はDATABASE_URLに応じてPostgreSQLまたはメモリストアを開く。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.UsesMemoryStore() {
		slog.Warn("using in-memory store; data will be lost on restart")
		mem := repository.NewMemoryStore()
		return &stores{
			users:      mem.Users(),
			notes:      mem.Notes(),
			highlights: mem.Highlights(),
			purger:     mem.Notes(),
			close:      func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	return newPostgresStores(db), nil
}

func newPostgresStores(db *sql.DB) *stores {
	noteRepo := repository.NewPostgresNoteRepo(db)
	return &stores{
		users:      repository.NewPostgresUserRepo(db),
		notes:      noteRepo,
		highlights: repository.NewPostgresHighlightRepo(db),
		purger:     noteRepo,
		health:     db,
		close:      db.Close,
	}
}

// newRegistry はアプリケーションとランタイムのメトリクスを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// buildRouter はサービスとミドルウェアをワイヤリングしてルーターを構築する。
// 返されたRateLimiterはシャットダウン時に停止すること。
func buildRouter(cfg *config.Config, st *stores, reg *prometheus.Registry) (http.Handler, *middleware.RateLimiter) {
	collector := metrics.NewCollector(reg)

	provider := auth.NewGoogleProvider(auth.GoogleProviderConfig{
		UserInfoURL: cfg.GoogleUserInfoURL,
		Timeout:     cfg.GoogleTimeout,
	})
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	authService := auth.NewService(
		st.users, auth.NewBcryptHasher(cfg.BcryptCost), tokens, provider, collector,
	)
	userService := user.NewService(st.users)
	noteService := note.NewService(st.notes, st.highlights, security.NewNoteSanitizer(), collector)

	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)

	deps := &handler.RouterDeps{
		TokenVerifier:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		Logger:            slog.Default(),

		HealthChecker:  st.health,
		MetricsHandler: metrics.Handler(reg),

		AuthService:    authService,
		ProfileService: userService,

		NoteService: noteService,
	}

	return handler.NewRouter(deps), rateLimiter
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	st, err := openStores(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer st.close()

	router, rateLimiter := buildRouter(cfg, st, newRegistry())
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runCleanup はゴミ箱の自動削除ジョブを1回実行して終了する。
// cronやKubernetes CronJobからの定期実行を想定する。
func runCleanup(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	job := cleanup.NewCleanupJob(st.purger, slog.Default(), cfg.TrashRetentionDays)
	return job.Run(ctx)
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.UsesMemoryStore() {
		slog.Info("in-memory store requires no migrations")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
	)
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

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "***"
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
