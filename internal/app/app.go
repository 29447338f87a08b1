package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/sharehub/internal/config"
	"github.com/hitoshi/sharehub/internal/handler"
	"github.com/hitoshi/sharehub/internal/logger"
	"github.com/hitoshi/sharehub/internal/metrics"
	"github.com/hitoshi/sharehub/internal/middleware"
	"github.com/hitoshi/sharehub/internal/proxy"
	"github.com/hitoshi/sharehub/internal/security"
	"github.com/hitoshi/sharehub/internal/storage"
	"github.com/hitoshi/sharehub/internal/worker/cleanup"
	"github.com/hitoshi/sharehub/internal/workspace"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、LOG_LEVELに従ったJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, "info")

	// 2. .envと環境変数から設定を読み込む
	if err := config.LoadDotEnv(); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定のログレベルで再構成する
	l := logger.SetupDefault(w, cfg.LogLevel)
	return cfg, l, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。SIGINTまたはSIGTERMでグレースフルシャットダウンする。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "3000"
		}
		return runHealthcheck(healthURL(port))
	}

	cfg, l, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	l.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("api_url", cfg.APIURL),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	switch cmd {
	case CommandProxy:
		return runProxy(ctx, cfg, l, ln)
	default:
		return runServe(ctx, cfg, l, ln)
	}
}

// Server は画面サーバーの構成一式。
type Server struct {
	Handler  http.Handler
	Registry *workspace.Registry

	cleanup     *cleanup.CleanupJob
	cleanupTick time.Duration
	limiter     *middleware.RateLimiter
	closeStore  func() error
	logger      *slog.Logger
}

// NewServer は設定から全依存関係をワイヤリングする。
func NewServer(ctx context.Context, cfg *config.Config, l *slog.Logger) (*Server, error) {
	// 1. 永続ストレージ
	factory, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. ワークスペース
	registry := workspace.NewRegistry(workspace.Options{
		APIURL:    cfg.APIURL,
		Storage:   factory,
		StaleTime: cfg.CacheStaleTime,
		Metrics:   collector,
		Logger:    l,
	})

	// 4. 開発用プロキシ
	var apiProxy http.Handler
	if cfg.ProxyEnabled {
		p, err := proxy.New(cfg.BackendURL, proxy.WithLogger(l), proxy.WithMetrics(collector))
		if err != nil {
			closeStore()
			return nil, err
		}
		apiProxy = p
	}

	// 5. ルーター
	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral))
	router, err := handler.NewRouter(&handler.RouterDeps{
		Workspaces:        registry,
		Origin:            "http://127.0.0.1:" + cfg.ServerPort,
		Proxy:             apiProxy,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		CookieSecure:      cfg.CookieSecure,
		Gatherer:          reg,
		Sanitizer:         security.NewContentSanitizer(),
		Logger:            l,
	})
	if err != nil {
		limiter.Stop()
		closeStore()
		return nil, err
	}

	// 6. アイドルワークスペースのクリーンアップ
	job := cleanup.NewCleanupJob(registry, l)
	if cfg.WorkspaceIdleTTL > 0 {
		job.IdleTTL = cfg.WorkspaceIdleTTL
	}

	return &Server{
		Handler:     router,
		Registry:    registry,
		cleanup:     job,
		cleanupTick: cleanupInterval(job.IdleTTL),
		limiter:     limiter,
		closeStore:  closeStore,
		logger:      l,
	}, nil
}

// Serve はlnで待ち受け、ctxがキャンセルされるとグレースフルシャットダウンする。
// 終了時にワークスペースとストレージを閉じる。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()
	return serveHTTP(ctx, ln, s.Handler, s.logger, func(ctx context.Context) {
		s.cleanup.Start(ctx, s.cleanupTick)
	})
}

// Close はワークスペースとレートリミッタとストレージを閉じる。
func (s *Server) Close() error {
	s.Registry.Close()
	s.limiter.Stop()
	return s.closeStore()
}

// runServe は画面サーバーモードで起動する。
func runServe(ctx context.Context, cfg *config.Config, l *slog.Logger, ln net.Listener) error {
	srv, err := NewServer(ctx, cfg, l)
	if err != nil {
		ln.Close()
		return err
	}
	return srv.Serve(ctx, ln)
}

// runProxy は開発用プロキシ単体で起動する。/api/* をBACKEND_URLへ中継する。
func runProxy(ctx context.Context, cfg *config.Config, l *slog.Logger, ln net.Listener) error {
	reg := prometheus.NewRegistry()
	p, err := proxy.New(cfg.BackendURL, proxy.WithLogger(l), proxy.WithMetrics(metrics.NewCollector(reg)))
	if err != nil {
		ln.Close()
		return err
	}
	l.Info("proxy target", slog.String("backend_url", p.Target()))
	return serveHTTP(ctx, ln, handler.NewProxyRouter(p, cfg.CORSAllowedOrigin, l), l)
}

// serveHTTP はHTTPサーバーとバックグラウンド処理を並行に動かし、
// ctxのキャンセルでサーバーを止めてからバックグラウンド処理の終了を待つ。
func serveHTTP(ctx context.Context, ln net.Listener, h http.Handler, l *slog.Logger, background ...func(context.Context)) error {
	server := &http.Server{
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range background {
		g.Go(func() error {
			fn(gctx)
			return nil
		})
	}
	g.Go(func() error {
		l.Info("server starting", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	l.Info("server stopped gracefully")
	return nil
}

// openStorage はSTORAGE_DRIVERに応じたFactoryと後始末を返す。
func openStorage(ctx context.Context, cfg *config.Config) (storage.Factory, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StorageDriver {
	case storage.DriverMemory:
		return storage.NewMemoryFactory(), noop, nil
	case storage.DriverFile:
		if err := os.MkdirAll(cfg.StorageDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create storage dir: %w", err)
		}
		return storage.NewFileFactory(cfg.StorageDir), noop, nil
	case storage.DriverRedis:
		client, err := storage.OpenRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pingRedis(ctx, client); err != nil {
			client.Close()
			return nil, nil, err
		}
		return storage.NewRedisFactory(client, cfg.RedisPrefix), client.Close, nil
	default:
		return nil, nil, storage.ValidateDriver(cfg.StorageDriver)
	}
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// cleanupInterval はアイドル判定の半分の間隔で掃除する。最短1分。
func cleanupInterval(idleTTL time.Duration) time.Duration {
	if d := idleTTL / 2; d > time.Minute {
		return d
	}
	return time.Minute
}

func healthURL(port string) string {
	return fmt.Sprintf("http://127.0.0.1:%s/health", port)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(url string) error {
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
