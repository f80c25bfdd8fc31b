//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/ragforge/ragcore/internal/bootstrap"
	"github.com/ragforge/ragcore/internal/domain/rag/auth"
	"github.com/ragforge/ragcore/internal/domain/rag/chat"
	"github.com/ragforge/ragcore/internal/infra/config"
	"github.com/ragforge/ragcore/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,

		provideValkeyClient,
		provideQueue,
		provideCache,
		provideStorage,

		provideLLMClient,
		provideLLM,
		provideEmbedder,

		provideUserRepository,
		provideCollectionRepository,
		provideDocumentRepository,
		provideChunkRepository,
		provideChatSessionRepository,

		provideVectorIndex,
		provideKeywordIndex,
		provideGraphIndex,

		provideParserRegistry,
		provideClassifierRegistry,
		provideSummaryService,
		provideIngestConfig,
		provideCoordinator,

		provideSynonymService,
		provideRetrievalEngine,
		provideReformulateService,
		providePromptAssembler,
		provideChatConfig,
		provideReranker,
		chat.New,

		provideRateLimiter,
		provideAuthConfig,
		auth.NewService,

		bootstrap.NewApp,
	)
	return nil, nil
}
