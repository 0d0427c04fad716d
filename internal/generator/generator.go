// Package generator holds the card generation strategies and selects one
// from configuration.
package generator

import (
	"fmt"

	"cardsmith/internal/client"
	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/logger"

	"go.uber.org/zap"
)

// New returns the strategy named by cfg.Generation.Strategy.
func New(cfg *config.Config) (domain.CardGenerator, error) {
	gen := cfg.Generation
	logger.Get().Info("Initializing card generator", zap.String("strategy", gen.Strategy))

	switch gen.Strategy {
	case config.StrategyLocal:
		return NewHeuristic(gen.MaxCards, gen.MinSentenceLength), nil
	case config.StrategyOllama:
		return NewOllama(cfg.LLM, gen.MaxCards)
	case config.StrategyOpenAI:
		return NewOpenAI(cfg.LLM, gen.MaxCards)
	case config.StrategyRemote:
		return client.New(cfg.Client, nil), nil
	default:
		return nil, fmt.Errorf("unsupported generation strategy: %s", gen.Strategy)
	}
}
