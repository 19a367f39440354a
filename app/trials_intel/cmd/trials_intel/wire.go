//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final binary.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/iWorld-y/trials_intel/app/trials_intel/internal/server"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
)

// initApp init kratos application.
func initApp(config.LLMConfig, config.ConcurrencyConfig, config.RegistryConfig, config.SessionConfig, config.DBConfig, config.ServerConfig, config.VisionConfig, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		newApp,
	))
}
