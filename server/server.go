package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WaveFM/cache"
	"WaveFM/config"
	"WaveFM/core/catalog"
	"WaveFM/core/player"
	"WaveFM/db"
	"WaveFM/logger"
	"WaveFM/model"
	"WaveFM/repository"
	"WaveFM/storage"
	"WaveFM/store"

	"github.com/gorilla/mux"
)

// Start wires the stores and serves the HTTP API until interrupted.
func Start() {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect gorm", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.PlayRecord{}); err != nil {
		logger.Fatal("failed to migrate play history", logger.ErrorField(err))
	}

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	blobs, err := storage.NewMinioBlobStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	songRepo := repository.NewMySQLSongRepository()
	historyRepo := repository.NewGormHistoryRepository(db.GormDB)

	// Seed the catalog and keep it live while the seed file changes.
	if err := catalog.Seed(songRepo, cfg.CatalogSeedPath); err != nil {
		logger.Fatal("failed to seed catalog", logger.ErrorField(err))
	}
	if cfg.WatchCatalogSeed {
		watcher, err := catalog.NewWatcher(songRepo, cfg.CatalogSeedPath)
		if err != nil {
			logger.Warn("catalog watcher unavailable", logger.ErrorField(err))
		} else {
			defer watcher.Close()
		}
	}

	kv := cache.NewRedisKV(db.RedisClient)
	favorites := store.NewFavorites(kv)
	recent := store.NewRecentLog(kv, cfg.RecentLimit)
	uploads := store.NewUploads(kv, blobs, cfg.SourceTTL)

	sessions := player.NewManager(cfg.SessionIdleTTL)
	defer sessions.Shutdown()

	hub := player.NewHub()
	go hub.Run()
	defer hub.Stop()

	apiHandler := NewAPIHandler(cfg, songRepo, historyRepo, favorites, recent, uploads, sessions, hub)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Catalog
	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", apiHandler.GetSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.GetPlaylistsHandler).Methods(http.MethodGet)

	// Favorites
	router.HandleFunc("/api/favorites", apiHandler.GetFavoritesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/{id}/toggle", apiHandler.ToggleFavoriteHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/favorites/{id}", apiHandler.RemoveFavoriteHandler).Methods(http.MethodDelete)

	// Recent plays and the history archive
	router.HandleFunc("/api/recent", apiHandler.GetRecentHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/recent/history", apiHandler.GetHistoryHandler).Methods(http.MethodGet)

	// Upload library
	router.HandleFunc("/api/uploads", apiHandler.GetUploadsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/uploads", apiHandler.UploadSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/uploads/{id}", apiHandler.RemoveUploadHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/uploads/{id}/source", apiHandler.GetUploadSourceHandler).Methods(http.MethodGet)

	// Player sessions
	router.HandleFunc("/api/player/sessions", apiHandler.CreateSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/player/sessions/{id}", apiHandler.GetSessionStateHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/player/sessions/{id}", apiHandler.DeleteSessionHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/player/sessions/{id}/select", apiHandler.SelectSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/player/sessions/{id}/play-pause", apiHandler.PlayPauseHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/player/sessions/{id}/seek", apiHandler.SeekHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/player/sessions/{id}/volume", apiHandler.SetVolumeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/player/sessions/{id}/mute", apiHandler.ToggleMuteHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/player/sessions/{id}/advance", apiHandler.AdvanceHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/player/sessions/{id}/fullscreen", apiHandler.ToggleFullScreenHandler).Methods(http.MethodPost)

	// Player surfaces
	router.HandleFunc("/ws/player/{id}", apiHandler.WSPlayerHandler).Methods(http.MethodGet)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}
