package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Vidtube/internal/config/api-gateway"
	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/domain/user"
	"github.com/NordCoder/Vidtube/internal/repository/memory"
	pg "github.com/NordCoder/Vidtube/internal/repository/postgres"
)

// store bundles the credential store behind the selected driver.
type store struct {
	users  user.Repo
	rt     domainauth.RefreshTokenRepo
	tx     domainauth.Transactor
	events domainauth.EventPublisher
	ping   func(context.Context) error
	close  func()
}

func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn("using in-memory credential store; data is lost on restart")
		mem := memory.NewStore(nil)
		return &store{
			users: mem,
			rt:    mem,
			tx:    memory.Transactor{},
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil
	}

	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &store{
		users:  pg.NewUserRepo(db),
		rt:     pg.NewRefreshTokenRepo(db),
		tx:     pg.NewTransactor(db, logger),
		events: pg.NewAuthEventOutbox(pg.NewOutboxRepo(db)),
		ping:   db.Ping,
		close:  db.Close,
	}, nil
}
