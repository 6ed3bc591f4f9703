package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tadeyemo32/prospect-backend/api"
	"github.com/tadeyemo32/prospect-backend/config"
	"github.com/tadeyemo32/prospect-backend/db"
	"github.com/tadeyemo32/prospect-backend/logger"
	"github.com/tadeyemo32/prospect-backend/rules"
	"github.com/tadeyemo32/prospect-backend/services"
)

func main() {
	secrets := flag.String("secrets", envOr("SECRETS_FILE", "secrets.json"), "optional JSON secrets file")
	flag.Parse()

	cfg, err := config.Load(*secrets)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tables, err := rules.Load(cfg.RulesPath)
	if err != nil {
		log.Fatal("Loading rule tables failed", "path", cfg.RulesPath, "error", err)
	}

	conn, err := db.Open(cfg, log)
	if err != nil {
		log.Fatal("Opening database failed", "error", err)
	}
	repo := db.NewSearchRepo(conn, log)

	// A nil *OpenAI must not end up inside a non-nil interface.
	var llm services.LLM
	var model api.ModelSwitcher
	if openai := services.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log); openai != nil {
		llm, model = openai, openai
	} else {
		log.Warn("OPENAI_API_KEY not set, using rule-based fallbacks for every LLM step")
	}

	var fameCache services.FameCache = services.NewMemoryFameCache()
	if cfg.RedisAddr != "" {
		redisCache, err := services.NewRedisFameCache(cfg.RedisAddr, log)
		if err != nil {
			log.Warn("Redis unavailable, public figure cache stays in memory", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			fameCache = redisCache
		}
	}

	if cfg.InternalDatabaseAPIKey == "" {
		log.Warn("INTERNAL_DATABASE_API_KEY not set, people searches will fail")
	}

	guard := services.NewGuard(tables, services.NewCreepyDetector(tables))
	photos := services.NewPhotoValidator(tables)
	pipeline := services.NewPipeline(services.PipelineDeps{
		Repo:       repo,
		Filters:    services.NewFilterTranslator(llm, tables, log),
		People:     services.NewPeopleSearchClient(cfg.InternalDatabaseAPIKey, cfg.InternalDatabaseURL, log),
		Geo:        services.NewGeoFilter(tables),
		Fame:       services.NewPublicFigureChecker(cfg.WikipediaAPIURL, fameCache, log),
		Ranker:     services.NewRanker(llm, log),
		Photos:     photos,
		LinkedIn:   services.NewLinkedInEnricher(cfg.ScrapingDogAPIKey, cfg.ScrapingDogURL, log),
		Behavioral: services.NewBehavioralEnricher(llm, cfg.UseAIBehavioralMetrics, tables, log),
		Log:        log,
	})
	runner := services.NewRunner(pipeline, log)

	handler := api.NewHandler(api.Deps{
		Config:  cfg,
		Search:  services.NewSearchService(repo, guard, runner, photos, log),
		DB:      repo,
		Demo:    services.NewDemoGenerator(llm, guard, tables, log),
		HubSpot: services.NewHubSpotOAuth(cfg.HubSpotClientID, cfg.HubSpotClientSecret, cfg.HubSpotTokenURL, log),
		Model:   model,
		Log:     log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewEngine(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting prospect backend", "port", cfg.Port, "env", cfg.Env, "version", cfg.Version,
			"integrations", cfg.Integrations())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	log.Info("Shutting down", "in_flight_searches", runner.InFlight())
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}
	if err := runner.Wait(ctx); err != nil {
		log.Warn("Searches still running at exit", "error", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
