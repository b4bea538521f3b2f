package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"paper-flow/config"
	"paper-flow/models"
	"paper-flow/openalex"
	"paper-flow/services"
	"paper-flow/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	pipelineRunsCounter         prometheus.Counter
	pipelineRunFailuresCounter  prometheus.Counter
	papersInsertedCounter       prometheus.Counter
	papersUpdatedCounter        prometheus.Counter
	qualityCheckFailuresCounter prometheus.Counter
)

func init() {
	pipelineRunsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs started.",
		},
	)
	pipelineRunFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_run_failures_total",
			Help: "Total number of failed pipeline runs.",
		},
	)
	papersInsertedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_inserted_total",
			Help: "Total number of papers inserted into the database.",
		},
	)
	papersUpdatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_updated_total",
			Help: "Total number of papers updated in the database.",
		},
	)
	qualityCheckFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quality_check_failures_total",
			Help: "Total number of failed quality checks across all runs.",
		},
	)
	prometheus.MustRegister(
		pipelineRunsCounter,
		pipelineRunFailuresCounter,
		papersInsertedCounter,
		papersUpdatedCounter,
		qualityCheckFailuresCounter,
	)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APIKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	configPath := flag.String("config", "pipeline.yaml", "Pfad zur Pipeline-Konfiguration")
	inputFile := flag.String("input", "", "Werke aus dieser JSON-Datei statt von der API laden")
	dryRun := flag.Bool("dry-run", false, "Konfiguration prüfen, ohne in die Datenbank zu schreiben")
	skipQualityTests := flag.Bool("skip-quality-tests", false, "Qualitätsprüfungen überspringen")
	forceStore := flag.Bool("force-store", false, "Daten trotz fehlgeschlagener Prüfungen behalten")
	serve := flag.Bool("serve", false, "Ops-Server starten und Läufe per Cron ausführen")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	runCfg, found, err := config.LoadPipelineConfig(*configPath)
	if err != nil {
		logging.Fatal("Pipeline config error", zap.Error(err))
	}
	if !found {
		logging.Warn("Pipeline config not found, using defaults", zap.String("path", *configPath))
	}

	checkCfg, found, err := config.LoadCheckConfig(runCfg.Testing.ConfigFile)
	if err != nil {
		logging.Fatal("Check config error", zap.Error(err))
	}
	if !found {
		logging.Warn("Check config not found, using defaults", zap.String("path", runCfg.Testing.ConfigFile))
	}

	// Setup Database Connection
	db, err := storage.Open(cfg.DSN())
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to papers database.")

	// Setup Services
	client := openalex.NewClient(cfg.OpenAlexBaseURL, cfg.OpenAlexMailto, logging)

	var archiver *storage.Archiver
	if cfg.ArchiveEnabled() {
		archiver, err = storage.NewArchiver(cfg, logging)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		logging.Info("Snapshot archive enabled", zap.String("bucket", cfg.ArchiveS3Bucket))
	}

	pipeline := &services.Pipeline{
		RunCfg:   runCfg,
		CheckCfg: checkCfg,
		DB:       db,
		Client:   client,
		Archiver: archiver,
		Logger:   logging,
	}

	opts := services.RunOptions{
		InputFile:        *inputFile,
		DryRun:           *dryRun,
		SkipQualityTests: *skipQualityTests,
		ForceStore:       *forceStore,
	}

	if !*serve {
		if _, err := runPipeline(pipeline, opts); err != nil {
			os.Exit(1)
		}
		return
	}

	serveOps(cfg, db, pipeline, opts, logging)
}

// runPipeline führt einen Lauf aus und pflegt die Prometheus-Zähler.
func runPipeline(pipeline *services.Pipeline, opts services.RunOptions) (*services.RunResult, error) {
	pipelineRunsCounter.Inc()
	result, err := pipeline.Run(context.Background(), opts)
	if result != nil && result.Stats != nil {
		papersInsertedCounter.Add(float64(result.Stats.Import.PapersInserted))
		papersUpdatedCounter.Add(float64(result.Stats.Import.PapersUpdated))
		qualityCheckFailuresCounter.Add(float64(result.Stats.TestsFailed))
	}
	if err != nil {
		pipelineRunFailuresCounter.Inc()
	}
	return result, err
}

// serveOps startet den Ops-Server und plant die Läufe per Cron.
func serveOps(cfg *config.Config, db *gorm.DB, pipeline *services.Pipeline, opts services.RunOptions, logging *zap.Logger) {
	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupRunRoutes(router, db, cfg, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled pipeline job...")
		result, err := runPipeline(pipeline, opts)
		if err != nil {
			logging.Error("Cron job failed", zap.Error(err))
			return
		}
		logging.Info("Cron job completed",
			zap.Int("inserted", result.Stats.Import.PapersInserted),
			zap.Int("updated", result.Stats.Import.PapersUpdated),
			zap.Bool("forced", result.Forced))
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupRunRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/runs", apiKeyAuthMiddleware(cfg))

	// Letzte Läufe, neueste zuerst
	rg.GET("", func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
				limit = v
			}
		}

		var runs []models.ImportRun
		if err := db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
			log.Error("Database query for runs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		var run models.ImportRun
		if err := db.First(&run, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusOK, run)
	})
}
