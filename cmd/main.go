package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inkwave/teamsync-backend/internal/annotations"
	"github.com/inkwave/teamsync-backend/internal/db"
	"github.com/inkwave/teamsync-backend/internal/docstore"
	"github.com/inkwave/teamsync-backend/internal/events"
	"github.com/inkwave/teamsync-backend/internal/handlers"
	"github.com/inkwave/teamsync-backend/internal/kvstore"
	"github.com/inkwave/teamsync-backend/internal/notify"
	"github.com/inkwave/teamsync-backend/internal/observability"
	"github.com/inkwave/teamsync-backend/internal/platform/envutil"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/readstate"
	"github.com/inkwave/teamsync-backend/internal/replication"
	"github.com/inkwave/teamsync-backend/internal/server"
	"github.com/inkwave/teamsync-backend/internal/services"
	"github.com/inkwave/teamsync-backend/internal/settings"
	"github.com/inkwave/teamsync-backend/internal/tracker"
	"github.com/inkwave/teamsync-backend/internal/users"
	"github.com/inkwave/teamsync-backend/internal/validation"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "teamsync-backend",
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})

	// Env
	log.Info("Loading environment variables from main...")
	currentUser := envutil.String("TEAM_USERNAME", "")
	if currentUser == "" {
		log.Error("Missing TEAM_USERNAME")
		os.Exit(1)
	}

	// Local ledger
	var kv kvstore.Store
	ledgerService, err := db.NewLedgerService(log)
	if err != nil {
		log.Warn("Ledger database init failed, using in-memory ledger", "error", err)
		kv = kvstore.NewMemory()
	} else {
		if err := ledgerService.AutoMigrateAll(); err != nil {
			log.Warn("Ledger auto migration failed", "error", err)
		}
		kv = kvstore.NewLedger(ledgerService.DB(), log)
	}

	// Document store
	var docs docstore.Store
	docs, err = docstore.NewCouchDBFromEnv(log)
	if err != nil {
		log.Warn("CouchDB init failed, using in-memory document store", "error", err)
		docs = docstore.NewMemory()
	}

	// Core state
	log.Info("Setting up core state from main...")
	tr := tracker.New(currentUser)
	hub := events.NewHub(log)
	rs := readstate.NewManager(kv, log)

	// Stores
	log.Info("Setting up stores from main...")
	annotationStore := annotations.NewStore(docs, log)
	notifyStore := notify.NewStore(docs, log)
	settingsStore := settings.NewStore(docs, log)

	// Services
	log.Info("Setting up services from main...")
	dispatcher := notify.NewDispatcher(notifyStore, notify.NewWebhookChannel(log), notify.NewSMTPChannel(log), log)
	teamService := services.NewTeamService(docs, currentUser, log)
	if err := teamService.LoadConfig(ctx); err != nil {
		log.Warn("Team config load failed", "error", err)
	}
	annotationService := services.NewAnnotationService(annotationStore, dispatcher, teamService, log)
	diffService := services.NewDiffViewService(docs, rs, tr, log)

	// Write policy
	if teamService.IsCurrentUserAdmin() {
		if err := validation.NewInstaller(docs, log).Install(ctx); err != nil {
			log.Warn("Write policy install failed", "error", err)
		}
	}

	// Account directory (admin-side only)
	var directory *users.Client
	if os.Getenv("COUCHDB_ADMIN_USER") != "" {
		directory, err = users.NewClient(log, users.ConfigFromEnv())
		if err != nil {
			log.Warn("User directory init failed", "error", err)
		}
	}

	// Replication feed
	log.Info("Setting up replication feed from main...")
	var feed replication.Feed
	if os.Getenv("REDIS_ADDR") != "" {
		feed, err = replication.NewRedisFeed(log)
		if err != nil {
			log.Error("Redis replication feed init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("No REDIS_ADDR, replication feed is process-local")
		feed = replication.NewMemoryFeed()
	}
	defer feed.Close()

	err = feed.StartForwarder(ctx, func(ev replication.Event) {
		tr.TrackChange(ev.Path, ev.ModifiedBy, ev.Timestamp, ev.Rev)
		hub.Emit(events.KindFileChanged, events.Payload{
			"path":       ev.Path,
			"modifiedBy": ev.ModifiedBy,
			"rev":        ev.Rev,
		})
		hub.Emit(events.KindActivityUpdated, events.Payload{"path": ev.Path})
	})
	if err != nil {
		log.Error("Replication forwarder failed to start", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	teamHandler := handlers.NewTeamHandler(teamService, directory)
	annotationHandler := handlers.NewAnnotationHandler(annotationService, annotationStore)
	activityHandler := handlers.NewActivityHandler(tr, rs, hub)
	diffHandler := handlers.NewDiffHandler(diffService)
	settingsHandler := handlers.NewSettingsHandler(settingsStore, teamService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:       "teamsync-backend",
		TeamHandler:       teamHandler,
		AnnotationHandler: annotationHandler,
		ActivityHandler:   activityHandler,
		DiffHandler:       diffHandler,
		SettingsHandler:   settingsHandler,
	})

	port := envutil.String("PORT", "8080")
	srv := &http.Server{Addr: ":" + port, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if shutdownOTel != nil {
			_ = shutdownOTel(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
