package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/trials_intel/app/trials_intel/internal/service"
)

// ProviderSet 是 HTTP 服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Core providers
	NewModel,
	NewSearcher,
	NewAnalyzer,
	NewExtractor,

	// Data providers
	NewSessionStore,
	NewStorage,

	// Service providers
	service.NewTrialsService,
)
