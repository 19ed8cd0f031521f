package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nsqio/go-nsq"

	"vidchat/features/chat"
	"vidchat/features/mcp"
	"vidchat/features/stats"
	"vidchat/internal/adapter/gemini"
	wstore "vidchat/internal/adapter/weaviate"
	"vidchat/internal/answer"
	"vidchat/internal/config"
	"vidchat/internal/index"
	"vidchat/internal/middleware"
	"vidchat/internal/retrieval"
	"vidchat/internal/session"
	"vidchat/internal/static"
	"vidchat/internal/transcript"
	"vidchat/internal/turnlog"
	"vidchat/internal/worker"
)

// Embedder embeds both queries and transcript chunks.
type Embedder interface {
	retrieval.Embedder
	index.BatchEmbedder
}

// Options overrides the collaborators New would otherwise build from
// config. Nil fields fall back to the defaults.
type Options struct {
	Embedder  Embedder
	Generator answer.Generator
	Fetcher   session.Fetcher
	Builder   index.Builder
}

type App struct {
	Handler      http.Handler
	Sessions     *session.Manager
	TurnConsumer *worker.TurnConsumer

	cfg     *config.Config
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, deps *Dependencies, opts *Options) (*App, error) {
	if deps == nil {
		deps = &Dependencies{}
	}
	if opts == nil {
		opts = &Options{}
	}
	a := &App{cfg: cfg}

	// Adapters
	embedder := opts.Embedder
	if embedder == nil {
		e, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		a.closers = append(a.closers, e.Close)
		embedder = e
	}

	generator := opts.Generator
	if generator == nil {
		g, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.ChatModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("generator: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		generator = g
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = transcript.NewClient(cfg.TranscriptServiceURL)
	}

	builder := opts.Builder
	if builder == nil {
		switch {
		case cfg.IndexBackend == config.BackendWeaviate && deps.Weaviate != nil:
			builder = wstore.NewStore(deps.Weaviate)
		case cfg.IndexBackend == config.BackendWeaviate:
			a.Close()
			return nil, errors.New("weaviate backend selected but no client bootstrapped")
		default:
			builder = index.NewMemoryBuilder()
		}
	}

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	a.closers = append(a.closers, queryLogger.Close)

	// Pipeline
	orchestrator := answer.NewOrchestrator(
		static.NewResponder(static.DefaultTable()),
		retrieval.NewService(embedder, cfg.RetrievalTopK, queryLogger),
		generator,
	)
	pipeline := session.NewPipeline(fetcher, index.NewIndexer(embedder, builder), orchestrator, session.PipelineConfig{
		Languages:    cfg.TranscriptLanguages,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})

	var recorder session.TurnRecorder = worker.NopRecorder{}
	if deps.NSQProducer != nil {
		recorder = worker.NewTurnPublisher(deps.NSQProducer)
	}
	a.Sessions = session.NewManager(pipeline, recorder)

	// Routes
	chatHandler := chat.NewHandler(a.Sessions)
	wrap := func(h http.HandlerFunc) http.Handler {
		return middleware.CorrelationID(h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /sessions", wrap(chatHandler.Create))
	mux.Handle("POST /sessions/{id}/video", wrap(chatHandler.ProcessVideo))
	mux.Handle("POST /sessions/{id}/questions", wrap(chatHandler.Ask))
	mux.Handle("GET /sessions/{id}/history", wrap(chatHandler.History))
	mux.Handle("DELETE /sessions/{id}", wrap(chatHandler.Delete))

	var turnCounter stats.TurnCounter
	if deps.DB != nil {
		turnRepo := turnlog.NewPostgresRepo(deps.DB)
		mux.Handle("GET /turns", wrap(chat.NewTurnsHandler(turnRepo).List))
		a.TurnConsumer = worker.NewTurnConsumer(turnRepo)
		turnCounter = turnRepo
	}

	mux.Handle("GET /stats", wrap(stats.NewHandler(a.Sessions, turnCounter, cfg.IndexBackend).GetStats))

	mcpHandler := mcp.NewHandler(a.Sessions)
	mux.Handle("POST /mcp", middleware.CorrelationID(mcpHandler))
	mux.Handle("GET /mcp/sse", wrap(mcpHandler.HandleSSE))
	mux.Handle("POST /mcp/messages", wrap(mcpHandler.HandleMessage))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	a.Handler = middleware.CORS(mux)
	return a, nil
}

// StartTurnConsumer subscribes the turn consumer to chat.turn. It is a
// no-op when the turn log is disabled.
func (a *App) StartTurnConsumer() (*nsq.Consumer, error) {
	if a.TurnConsumer == nil {
		return nil, nil
	}

	consumer, err := nsq.NewConsumer(config.TopicChatTurn, config.ChannelTurnLog, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq consumer error: %w", err)
	}
	consumer.AddHandler(a.TurnConsumer)

	if err := consumer.ConnectToNSQLookupd(a.cfg.NSQLookupd); err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("failed to connect to NSQLookupd: %w", err)
	}
	slog.Info("NSQ turn consumer connected", "topic", config.TopicChatTurn)
	return consumer, nil
}

// Server returns the HTTP server Run listens with. Event streams clear
// their own write deadline.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.cfg.RequestTimeout() + 5*time.Second,
	}
}

func (a *App) Run(ctx context.Context) error {
	timeout := a.cfg.RequestTimeout()
	srv := a.Server()

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases every session index and the model clients.
func (a *App) Close() {
	if a.Sessions != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.Sessions.CloseAll(ctx); err != nil {
			slog.Warn("failed to release session indexes", "error", err)
		}
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("failed to close client", "error", err)
		}
	}
	a.closers = nil
}
