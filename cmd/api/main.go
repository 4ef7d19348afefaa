package main

import (
	"context"
	"database/sql"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/catalog"
	"github.com/cleberrangel/caregiver-fit-api/internal/client"
	"github.com/cleberrangel/caregiver-fit-api/internal/config"
	"github.com/cleberrangel/caregiver-fit-api/internal/database"
	"github.com/cleberrangel/caregiver-fit-api/internal/handler"
	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/cleberrangel/caregiver-fit-api/internal/migration"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/repository"
	"github.com/cleberrangel/caregiver-fit-api/internal/service"
	"github.com/cleberrangel/caregiver-fit-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

const Version = "2.0.0"

const shutdownTimeout = 30 * time.Second

func main() {
	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("log_json", cfg.LogJSON).
		Msg("Caregiver Fit API iniciando")

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Erro ao carregar catálogo")
	}
	log.Info().
		Int("tasks", len(cat.Tasks)).
		Str("unmatched_policy", string(cat.UnmatchedPolicy)).
		Msg("Catálogo carregado")

	db, store, err := openStore(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Erro ao preparar armazenamento")
	}
	defer database.Close(db)

	// Sem chave o analyzer fica nil (interface nula), não um *Gemini nil
	var analyzer service.Analyzer
	gemini, err := client.NewGeminiFromAPIKey(ctx, cfg.GeminiAPIKey, cfg.GeminiModels, cfg.GeminiRPM)
	switch {
	case err == nil:
		analyzer = gemini
		log.Info().Strs("models", gemini.Models()).Int("rpm", cfg.GeminiRPM).Msg("Cliente Gemini configurado")
	case errors.Is(err, model.ErrMissingAPIKey):
		log.Warn().Msg("GEMINI_API_KEY não configurada, apenas /assessments/score disponível")
	default:
		log.Fatal().Err(err).Msg("Erro ao criar cliente Gemini")
	}

	hub := websocket.NewHub()
	go hub.Run()

	assessments := service.NewAssessmentService(cat, store, analyzer, service.NewSyncService(), hub)
	drafts := service.NewDraftService(cat, cfg.CacheTTL)

	// Configura modo do Gin
	gin.SetMode(cfg.GinMode)

	router := handler.NewRouter(cfg.TokenAPI, handler.Handlers{
		Health:     handler.NewHealthHandler(db, hub, analyzer != nil, Version),
		Catalog:    handler.NewCatalogHandler(cat),
		Assessment: handler.NewAssessmentHandler(assessments, handler.WSPath),
		Draft:      handler.NewDraftHandler(drafts),
		WebSocket:  handler.NewWebSocketHandler(hub),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Sinal recebido, encerrando")

	hub.Broadcast(websocket.Message{
		Type:      "shutdown",
		Data:      map[string]string{"status": "server_shutting_down"},
		Timestamp: time.Now(),
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Erro no shutdown do servidor")
	}

	drafts.Stop()
	// Análises e sincronizações em andamento terminam antes de fechar o banco
	assessments.Wait()

	log.Info().Msg("Servidor encerrado")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// openStore conecta ao PostgreSQL quando DB_HOST existe; senão usa memória
func openStore(ctx context.Context, cfg config.DBConfig) (*sql.DB, repository.AssessmentStore, error) {
	log := logger.Get(ctx)

	if !cfg.Enabled() {
		log.Warn().Msg("DB_HOST não configurado, histórico em memória")
		return nil, repository.NewMemoryStore(), nil
	}

	db, err := database.Connect(ctx, database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.Name,
		SSLMode:  cfg.SSLMode,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := migration.NewMigrator(db).Run(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, repository.NewAssessmentRepository(db), nil
}
