package cli

import (
	"fmt"

	"github.com/ppiankov/verifyhub/internal/llm"
	"github.com/ppiankov/verifyhub/internal/logger"
	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/pipeline"
	"github.com/ppiankov/verifyhub/internal/store"
	"github.com/ppiankov/verifyhub/internal/submission"
)

// buildService wires the pipeline, storage and optional reviewer from cfg.
// fetcher may be nil to fetch over the network.
func buildService(cfg *model.Config, fetcher pipeline.PageFetcher) (*submission.Service, error) {
	p, err := pipeline.NewPipeline(cfg, fetcher)
	if err != nil {
		return nil, err
	}

	repo := submission.NewRepository(store.New(cfg.Store))

	var opts []submission.Option
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider != nil {
		opts = append(opts, submission.WithReviewer(llm.NewReviewer(provider)))
		log := logger.Named("cli")
		log.Info().Str("provider", provider.Name()).Msg("reviewer notes enabled")
	}

	return submission.NewService(repo, p, opts...), nil
}
