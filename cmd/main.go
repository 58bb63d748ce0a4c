package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"paper-rag/internal/chunker"
	"paper-rag/internal/config"
	"paper-rag/internal/embedding"
	"paper-rag/internal/helper"
	"paper-rag/internal/history"
	"paper-rag/internal/llmservice"
	"paper-rag/internal/models"
	"paper-rag/internal/parser"
	"paper-rag/internal/rag"
	"paper-rag/internal/session"
	httptransport "paper-rag/internal/transport/http"
)

const (
	configFilePath  = "./configs/config.yaml"
	shutdownTimeout = 5 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	files := flag.String("file", "", "Comma separated list of document files")
	query := flag.String("query", "", "Question to be answered from the documents")
	topK := flag.Int("top-k", 0, "Number of chunks to retrieve (defaults to rag.top_k)")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk the files, print the chunks and exit")
	serve := flag.Bool("serve", false, "Start the HTTP server")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setLogLevel(cfg.LogLevel)
	log.Debug().Interface("rag", cfg.RAG).Msg("Loaded config")

	ctx := context.Background()

	switch {
	case *serve:
		runServer(ctx, cfg)
	case *files != "" && *dryRun:
		if err := printChunks(cfg, splitList(*files)); err != nil {
			log.Fatal().Err(err).Msg("Error chunking documents")
		}
	case *files != "" && *query != "":
		k := *topK
		if k == 0 {
			k = cfg.RAG.TopK
		}
		if err := askOnce(ctx, cfg, splitList(*files), *query, k); err != nil {
			log.Fatal().Err(err).Msg("Error answering query")
		}
	default:
		log.Fatal().Msg("Please provide -serve, or -file with either -query or -dry-run")
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFiles(paths []string) ([]models.Document, error) {
	var docs []models.Document
	for _, path := range paths {
		parsed, err := parser.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		docs = append(docs, parsed...)
	}
	if len(docs) == 0 {
		return nil, errors.New("no extractable text in the given files")
	}
	return docs, nil
}

func printChunks(cfg *config.Config, paths []string) error {
	docs, err := parseFiles(paths)
	if err != nil {
		return err
	}
	chunks, err := chunker.SplitAll(docs, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return err
	}
	log.Info().Int("chunks", len(chunks)).Msg("Parsed content")
	helper.PrettyPrint(chunks)
	return nil
}

func newManager(ctx context.Context, cfg *config.Config) (*session.Manager, history.Store) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	embedService := embedding.NewService(embedder,
		embedding.WithTimeout(cfg.EmbedLLM.Timeout),
		embedding.WithBatchSize(cfg.EmbedLLM.BatchSize),
		embedding.WithDimension(cfg.EmbedLLM.Dimension),
	)

	llm, err := llmservice.NewClient(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing llm client")
	}

	hist, err := history.New(ctx, &cfg.History)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing history store")
	}

	manager := session.NewManager(embedService, rag.NewAssembler(llm, cfg.LLM.Timeout), hist, session.Options{
		ChunkSize:       cfg.RAG.ChunkSize,
		ChunkOverlap:    cfg.RAG.ChunkOverlap,
		MaxContextChars: cfg.RAG.MaxContextChars,
		VectorStore:     cfg.RAG.VectorStore,
	})
	return manager, hist
}

// askOnce runs a throwaway session. Errors are returned so that the
// session and history store are always released before the process exits.
func askOnce(ctx context.Context, cfg *config.Config, paths []string, query string, k int) error {
	docs, err := parseFiles(paths)
	if err != nil {
		return err
	}

	manager, hist := newManager(ctx, cfg)
	defer func() {
		if err := hist.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing history store")
		}
	}()

	s, err := manager.Create(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer func() {
		if err := manager.Close(ctx, s.ID); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("Error closing session")
		}
	}()

	if _, err := s.Ingest(ctx, docs); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	out, err := s.Ask(ctx, query, k)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, sc := range out.Answer.Sources.Chunks {
		fmt.Printf("[%s p.%d score=%.4f]\n%s\n\n", sc.Chunk.Source, sc.Chunk.Page, sc.Score, sc.Chunk.Text)
	}

	log.Info().Dur("elapsed", out.Elapsed).Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", out.Answer.Text)
	return nil
}

func runServer(ctx context.Context, cfg *config.Config) {
	manager, hist := newManager(ctx, cfg)
	defer func() {
		if err := hist.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing history store")
		}
	}()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httptransport.NewRouter(cfg, manager),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
