package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/fpnav/internal/config"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"github.com/zeusync/fpnav/internal/core/session"
	"github.com/zeusync/fpnav/internal/scene"
	"github.com/zeusync/fpnav/internal/server"
)

// Runtime is everything the navsim command runs.
type Runtime struct {
	Logger  *log.Logger
	Session *session.Session
	Server  *server.Server
	Loader  *scene.Loader
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideSession,
	wire.Bind(new(server.Session), new(*session.Session)),
	ProvideServer,
	scene.NewLoader,
	wire.Struct(new(Runtime), "*"),
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(log.ParseLevel(cfg.LogLevel))
}

func ProvideSession(cfg config.Config, logger log.Log) (*session.Session, error) {
	return session.New(cfg, logger)
}

func ProvideServer(cfg config.Config, sess server.Session, logger log.Log) (*server.Server, error) {
	return server.New(cfg.Server, sess, logger)
}
