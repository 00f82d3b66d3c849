package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"jobmirror/internal/ats"
	"jobmirror/internal/ats/util"
	"jobmirror/internal/config"
	"jobmirror/internal/logging"
	"jobmirror/internal/secrets"
	"jobmirror/internal/store"
)

type app struct {
	cfg config.Config
	log *zap.Logger
}

func loadApp() (*app, error) {
	raw, path, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg, v := config.NormalizeAndValidate(raw)
	if err := v.Err(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		return nil, err
	}
	for _, w := range v.Warnings {
		log.Warn("config", zap.String("path", path), zap.String("warning", w))
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() { _ = a.log.Sync() }

func (a *app) connectorOptions() ats.Options {
	return ats.Options{
		Timeout:   a.cfg.HTTP.Timeout,
		UserAgent: a.cfg.HTTP.UserAgent,
		Limiter:   util.NewHostLimiter(a.cfg.HTTP.HostRPS, a.cfg.HTTP.HostBurst),
		Logger:    a.log,
	}
}

func (a *app) keyringAccount() string {
	s := a.cfg.Store
	return secrets.StoreAccount(s.User, s.Host, s.DBName)
}

func (a *app) openStore() (*store.DB, error) {
	s := a.cfg.Store
	if s.Driver != config.DriverPostgres {
		return store.OpenSQLite(s.Path)
	}

	pw, err := secrets.StorePassword(s.Password, a.keyringAccount())
	if errors.Is(err, secrets.ErrNoPassword) {
		a.log.Warn("connecting to postgres without a password", zap.String("user", s.User), zap.String("host", s.Host))
	}
	return store.OpenPostgres(store.PostgresConfig{
		Host:     s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: pw,
		DBName:   s.DBName,
		SSLMode:  s.SSLMode,
	})
}
