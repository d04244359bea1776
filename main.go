package main

import (
	"context"
	"os"
	"time"

	"github.com/aulalabs/aula/config"
	"github.com/aulalabs/aula/rag"
	"github.com/aulalabs/aula/rag/engine"
	"github.com/aulalabs/aula/rag/providers"
	"github.com/aulalabs/aula/store"
	"github.com/aulalabs/aula/tutor"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

func main() {
	cfg, err := config.Load(os.Getenv("AULA_CONFIG"))
	if err != nil {
		xlog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	openaiConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		openaiConfig.BaseURL = cfg.OpenAI.BaseURL
	}
	openaiClient := openai.NewClientWithConfig(openaiConfig)

	index, err := engine.NewChromemIndex(cfg.Storage.Collection, cfg.Storage.IndexPath, openaiClient, cfg.OpenAI.EmbeddingsModel)
	if err != nil {
		xlog.Error("Failed to create vector index", "error", err)
		os.Exit(1)
	}

	library, err := rag.NewLibrary(cfg.Storage.StateFile, cfg.Storage.AssetDir, index, cfg.Storage.MaxChunkSize)
	if err != nil {
		xlog.Error("Failed to create lesson library", "error", err)
		os.Exit(1)
	}

	providerCfg := providers.Config{
		TavilyAPIKey:  cfg.Providers.TavilyAPIKey,
		ExaAPIKey:     cfg.Providers.ExaAPIKey,
		ScrapeSources: cfg.Providers.ScrapeSources,
	}

	var slots []rag.ProviderSlot
	for _, p := range []struct {
		kind providers.Kind
		cap  int
	}{
		{providers.TavilyProvider, cfg.Providers.BreadthResults},
		{providers.ExaProvider, cfg.Providers.SemanticResults},
		{providers.ScrapeProvider, cfg.Providers.DeepResults},
	} {
		provider, err := providers.New(p.kind, providerCfg)
		if err != nil {
			xlog.Error("Failed to create provider", "provider", p.kind, "error", err)
			os.Exit(1)
		}
		slots = append(slots, rag.ProviderSlot{
			Provider:   provider,
			MaxResults: p.cap,
			Timeout:    cfg.Providers.Timeout,
		})
	}

	augmenter := rag.NewAugmenter(index, rag.NewAggregator(slots...),
		rag.WithThreshold(float32(cfg.Augmentation.Threshold)),
		rag.WithContextLimit(cfg.Augmentation.ContextLimit),
		rag.WithTimeouts(cfg.Augmentation.LocalTimeout, cfg.Augmentation.AugmentTimeout),
	)

	var db *store.Store
	if cfg.Storage.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = store.New(ctx, cfg.Storage.DatabaseURL)
		cancel()
		if err != nil {
			// The immediate chat experience does not depend on
			// persistence, so a missing database is a warning.
			xlog.Warn("Interaction store unavailable, continuing without persistence", "error", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	tutors := map[tutor.Persona]*tutor.Tutor{}
	for _, p := range tutor.Personas() {
		var recorder tutor.Recorder
		if db != nil {
			recorder = db
		}
		tutors[p] = tutor.New(openaiClient, cfg.OpenAI.ChatModel, p, augmenter, recorder)
	}

	sourceManager := rag.NewSourceManager(library)
	ctx := context.Background()
	for _, url := range cfg.Storage.CurriculumSources {
		if err := sourceManager.AddSource(ctx, url, cfg.Storage.RefreshInterval); err != nil {
			xlog.Warn("Failed to register curriculum source", "url", url, "error", err)
		}
	}
	sourceManager.Start(ctx)

	startAPI(cfg.Server.ListenAddress, &apiDeps{
		tutors:        tutors,
		augmenter:     augmenter,
		library:       library,
		sourceManager: sourceManager,
		store:         db,
		refresh:       cfg.Storage.RefreshInterval,
	})
}
