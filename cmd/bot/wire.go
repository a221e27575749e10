//go:build wireinject
// +build wireinject

package main

import (
	"github.com/Jacobbrewer1/yupil/cmd/bot/config"
	"github.com/Jacobbrewer1/yupil/pkg/automod"
	"github.com/Jacobbrewer1/yupil/pkg/logging"
	"github.com/Jacobbrewer1/yupil/pkg/mirror"
	"github.com/Jacobbrewer1/yupil/pkg/platform"
	"github.com/Jacobbrewer1/yupil/pkg/ticketing"
	"github.com/Jacobbrewer1/yupil/pkg/transcript"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

func InitializeApp() (*App, func(), error) {
	wire.Build(
		wire.Value(logging.Name(config.AppName)),
		logging.NewConfig,
		logging.CommonLogger,
		config.Parse,
		NewSession,
		NewPlatform,
		wire.Bind(new(platform.Service), new(*platform.Discord)),
		NewMongoClient,
		NewStores,
		wire.FieldsOf(new(*Stores), "Panels"),
		NewOverwriteLimiter,
		NewVisibility,
		NewArchiver,
		wire.Bind(new(ticketing.Archiver), new(*transcript.Archiver)),
		NewTickets,
		NewMirror,
		wire.Bind(new(automod.Auditor), new(*mirror.Mirror)),
		NewAutomod,
		NewTranslator,
		wire.Struct(new(Services), "*"),
		NewScheduler,
		mux.NewRouter,
		NewApp,
	)
	return nil, nil, nil
}
