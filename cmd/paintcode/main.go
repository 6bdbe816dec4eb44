package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"paintcode/internal/app"
	"paintcode/internal/config"
	"paintcode/internal/ratelimit"
	"paintcode/internal/server"
	"paintcode/internal/util"
	"paintcode/pkg/ai"
	"paintcode/pkg/cache"
	"paintcode/pkg/diagnose"
	"paintcode/pkg/domain"
	"paintcode/pkg/paint"
	"paintcode/pkg/research"
	"paintcode/pkg/resolver"
	"paintcode/pkg/search"
	"paintcode/pkg/session"
	"paintcode/pkg/storage"
	"paintcode/pkg/store"
)

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.InitLogger(cfg.LogLevel)

	db, err := paint.LoadDatabase(cfg.Tier1Path, cfg.Tier2Path)
	if err != nil {
		log.Fatalf("failed to load paint database: %v", err)
	}
	tier1, tier2 := db.TierSizes()
	slog.Info("paint database loaded", "tier1", tier1, "tier2", tier2)

	// LLM provider. Without one the service still answers catalog lookups
	// and keyword diagnoses.
	var generator ai.TextGenerator
	var vision ai.ImageAnalyzer
	switch cfg.AIProvider {
	case "gemini":
		gemini := ai.NewGeminiClient(cfg.GeminiAPIKey, "", cfg.GeminiModel)
		generator = gemini
		vision = gemini
	case "openai":
		generator = ai.NewOpenAICompatClient(cfg.OpenAIAPIKey, cfg.OpenAIBase, cfg.OpenAIModel)
	}
	var extractor *ai.Extractor
	if generator != nil {
		extractor = ai.NewExtractor(generator)
	}

	// Web search, wrapped in the shared one-day cache.
	var searcher search.Searcher
	if cfg.SearchAPIKey != "" && cfg.SearchEngineID != "" {
		google := search.NewGoogleClient(cfg.SearchAPIKey, cfg.SearchEngineID, "")
		searcher = search.NewCached(google, newCache[[]domain.SearchResult](cfg, "paintcode:search"), cache.WebSearchTTL)
	}

	var colorExtractor resolver.ColorExtractor
	var locationExtractor research.LocationExtractor
	var contentSelector research.ContentSelector
	if extractor != nil {
		colorExtractor = extractor
		locationExtractor = extractor
		contentSelector = extractor
	}

	res := resolver.New(db, searcher, colorExtractor,
		newCache[domain.ResolvedColor](cfg, "paintcode:color"))
	locations := research.NewLocationResearcher(searcher, locationExtractor,
		newCache[domain.LocationInfo](cfg, "paintcode:location"))
	era := research.NewEraResearcher(searcher, contentSelector,
		newCache[domain.EraContent](cfg, "paintcode:era"))

	var convStore store.ConversationStore
	if cfg.DatabaseDSN != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("failed to open conversation store: %v", err)
		}
		convStore = gormStore
	} else {
		slog.Warn("no database configured, conversations are in-memory only")
		convStore = store.NewMemoryStore()
	}

	var photos storage.PhotoStore
	if cfg.MinioEndpoint != "" {
		photos, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init photo store: %v", err)
		}
	}

	sessions, err := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionIssuer, 0)
	if err != nil {
		log.Fatalf("failed to init session manager: %v", err)
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	appCore := app.New(app.Options{
		DB:         db,
		Resolver:   res,
		Classifier: diagnose.New(diagnoseExtractor(extractor)),
		Locations:  locations,
		Era:        era,
		Extractor:  extractor,
		Vision:     vision,
		Store:      convStore,
		Photos:     photos,
	})

	httpServer := server.New(server.Options{
		App:             appCore,
		Sessions:        sessions,
		LookupLimiter:   newLimiter(cfg, "lookup", cfg.LookupRateLimitPerMinute),
		ResearchLimiter: newLimiter(cfg, "research", cfg.ResearchRateLimitPerMinute),
		UploadLimiter:   newLimiter(cfg, "upload", cfg.SearchRateLimitPerMinute),
		TrustedProxies:  trustedProxies,
		AllowedOrigins:  cfg.AllowedOrigins,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("paintcode listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		log.Fatalf("server exited: %v", err)
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			slog.Error("shutdown", "err", err)
		}
	}
}

// newCache picks Redis-backed caching when configured, in-process otherwise.
func newCache[T any](cfg config.FileConfig, prefix string) cache.Store[T] {
	if cfg.RedisAddr != "" {
		return cache.NewRedis[T](cfg.RedisAddr, cfg.RedisPassword, prefix)
	}
	return cache.NewMemory[T](0)
}

func newLimiter(cfg config.FileConfig, name string, perMinute int) ratelimit.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewRedisFixedWindow(cfg.RedisAddr, cfg.RedisPassword, "paintcode:ratelimit:"+name, perMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init %s rate limiter: %v", name, err)
		}
		return limiter
	}
	return ratelimit.NewMemoryFixedWindow(perMinute, time.Minute)
}

// diagnoseExtractor avoids handing the classifier a non-nil interface
// wrapping a nil extractor.
func diagnoseExtractor(e *ai.Extractor) diagnose.RepairExtractor {
	if e == nil {
		return nil
	}
	return e
}
