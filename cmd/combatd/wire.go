//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/config"
)

func initApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(
		wire.FieldsOf(new(config.Config), "Database", "Combat", "Content", "Messaging", "Persistence"),
		provideRNG,
		provideRules,
		provideAttacks,
		provideWorld,
		provideItems,
		provideAffects,
		provideNATS,
		provideBus,
		provideScripts,
		provideTriggers,
		provideEngine,
		provideNPCs,
		provideRespawn,
		providePulse,
		providePersistence,
		provideApp,
	)
	return nil, nil, nil
}
