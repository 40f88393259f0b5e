package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"

	"faqbot/internal/chunker"
	"faqbot/internal/config"
	"faqbot/internal/domain"
	"faqbot/internal/embedding"
	"faqbot/internal/generation"
	geminigen "faqbot/internal/generation/gemini"
	openaigen "faqbot/internal/generation/openai"
	"faqbot/internal/indexcache"
	"faqbot/internal/prompt"
	"faqbot/internal/retriever"
	"faqbot/internal/session"
	"faqbot/internal/source"
	afssource "faqbot/internal/source/afs"
	"faqbot/internal/source/drive"
	"faqbot/internal/summarizer"
	"faqbot/internal/tui"
	"faqbot/internal/vectorstore"
	"faqbot/internal/vectorstore/memory"
	"faqbot/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, question string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/faqbot/config.yaml if not provided)")
	flag.StringVar(&question, "ask", "", "Answer a single question and exit instead of starting the console")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: faqbot [--config=config.yaml] [--ask=question] [location]")
		flag.PrintDefaults()
	}
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// a positional location overrides the configured source
	if flag.NArg() > 0 {
		cfg.Source = config.SourceConfig{Type: "afs", AFS: &config.AFSSourceConfig{Location: flag.Arg(0)}}
	}

	logger := newLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	emb, err := embedding.New(ctx, cfg.Embedder)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "none", "":
		ch = chunker.None{}
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		log.Fatalf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     os.Getenv(cfg.VectorStore.Qdrant.APIKeyEnv),
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
			BatchSize:  cfg.VectorStore.Qdrant.BatchSize,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var cache indexcache.Store
	switch cfg.IndexCache.Type {
	case "none", "":
	case "file":
		cache = indexcache.NewFileStore(cfg.IndexCache.Dir)
	case "redis":
		rc := cfg.IndexCache.Redis
		store, err := indexcache.NewRedisStore(ctx, indexcache.RedisConfig{
			Addr:      rc.Addr,
			Password:  os.Getenv(rc.PasswordEnv),
			DB:        rc.DB,
			KeyPrefix: rc.KeyPrefix,
			TTL:       time.Duration(rc.TTLSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("index cache init failed: %v", err)
		}
		defer store.Close()
		cache = store
	default:
		log.Fatalf("unknown index cache: %s", cfg.IndexCache.Type)
	}

	var gen generation.Generator
	switch cfg.Generator.Type {
	case "none", "":
	case "openai":
		g, err := openaigen.NewGenerator(openaigen.Config{
			BaseURL:   cfg.Generator.OpenAI.BaseURL,
			APIKeyEnv: cfg.Generator.OpenAI.APIKeyEnv,
			Model:     cfg.Generator.OpenAI.Model,
			Timeout:   time.Duration(cfg.Generator.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		gen = g
	case "gemini":
		client, err := embedding.NewGenAIClient(ctx, cfg.Generator.Gemini.APIKeyEnv)
		if err != nil {
			log.Fatalf("gemini generator init failed: %v", err)
		}
		gen = geminigen.NewGenerator(client, cfg.Generator.Gemini.Model)
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
	}

	r, err := retriever.New(retriever.Config{
		Embedder:  emb,
		Storage:   st,
		Chunker:   ch,
		Cache:     cache,
		TopK:      cfg.Retrieval.TopK,
		MaxLength: cfg.Retrieval.MaxContextChars,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("retriever init failed: %v", err)
	}

	docs, buildErr := build(ctx, cfg, r, logger)
	if buildErr != nil {
		if gen == nil {
			log.Fatalf("build failed: %v", buildErr)
		}
		logger.Error("build failed, continuing without retrieval", "error", buildErr)
	}

	var sess *session.Session
	if gen != nil {
		var ctxRetriever session.ContextRetriever
		if buildErr == nil {
			ctxRetriever = r
		}
		tools := []generation.ToolSpec{prompt.CourseInformationTool}
		sess, err = session.New(session.Config{
			Retriever: ctxRetriever,
			Generator: gen,
			System:    cfg.Prompt.System,
			Template:  cfg.Prompt.Template,
			MaxTokens: cfg.Generator.MaxTokens,
			Tools:     tools,
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("session init failed: %v", err)
		}
		defer sess.Close()
	}

	if question != "" {
		if sess == nil {
			fmt.Println(r.GetRelevantContext(ctx, question))
			return
		}
		ans, err := sess.Ask(ctx, question)
		if err != nil {
			log.Fatalf("ask failed: %v", err)
		}
		fmt.Println(ans.Text)
		return
	}

	summary := summarize(cfg, docs)
	var asker tui.Asker
	if sess != nil {
		asker = sess
	}
	m := tui.New(ctx, r, asker, cfg.Retrieval.TopK, summary)
	if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil {
		log.Fatal(err)
	}
}

// build loads the corpus and indexes it under the configured build timeout.
func build(ctx context.Context, cfg *config.AppConfig, r *retriever.Retriever, logger *slog.Logger) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Retrieval.BuildTimeoutSecs)*time.Second)
	defer cancel()

	var src domain.DocumentSource
	switch cfg.Source.Type {
	case "afs", "":
		s, err := afssource.New(afssource.Config{
			Location:   cfg.Source.AFS.Location,
			Extensions: cfg.Source.AFS.Extensions,
			Recursive:  cfg.Source.AFS.Recursive,
		})
		if err != nil {
			return nil, err
		}
		src = s
	case "drive":
		s, err := drive.New(ctx, drive.Config{
			CredentialsFile: cfg.Source.Drive.CredentialsFile,
			Query:           cfg.Source.Drive.Query,
		})
		if err != nil {
			return nil, err
		}
		src = s
	default:
		return nil, fmt.Errorf("unknown source: %s", cfg.Source.Type)
	}

	docs, err := source.LoadCorpus(ctx, src, logger)
	if err != nil {
		return nil, err
	}
	if err := r.Build(ctx, docs); err != nil {
		return docs, err
	}
	return docs, nil
}

func summarize(cfg *config.AppConfig, docs []domain.Document) string {
	if cfg.Summarizer.Type != "frequency" || len(docs) == 0 {
		return fmt.Sprintf("%d documents", len(docs))
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	var sum domain.Summarizer = summarizer.NewFrequencySummarizer()
	summary, err := sum.Summarize(strings.Join(texts, "\n"), cfg.Summarizer.MaxSentences)
	if err != nil || summary == "" {
		return fmt.Sprintf("%d documents", len(docs))
	}
	return summary
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
