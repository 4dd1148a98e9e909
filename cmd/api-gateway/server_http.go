package main

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	tokens "github.com/NordCoder/Vidtube/internal/auth"
	config "github.com/NordCoder/Vidtube/internal/config/api-gateway"
	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/obs"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/auth"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/httpx"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/profile"
)

const apiPrefix = "/api/v1/users"

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, st *store) (*http.Server, error) {
	issuer, err := tokens.NewIssuer(tokens.IssuerConfig{
		Issuer:  cfg.Auth.Issuer,
		Access:  tokens.KeyConfig{Secret: []byte(cfg.Auth.AccessSecret), TTL: cfg.Auth.AccessTTL},
		Refresh: tokens.KeyConfig{Secret: []byte(cfg.Auth.RefreshSecret), TTL: cfg.Auth.RefreshTTL},
	})
	if err != nil {
		return nil, err
	}

	authUC := auth.NewUseCase(auth.Deps{
		Users:         st.users,
		RefreshTokens: st.rt,
		Tokens:        issuer,
		Hasher:        tokens.NewHasher(cfg.Auth.BcryptCost),
		Tx:            st.tx,
		Events:        st.events,
		Logger:        logger,
	}, auth.Config{MinPasswordLen: cfg.Auth.MinPasswordLen})
	guard := auth.NewMiddleware(authUC, logger)

	authSrv := auth.NewServer(authUC, guard, auth.Opts{
		Logger:       logger,
		CookieDomain: cfg.Auth.CookieDomain,
		CookiePath:   cfg.Auth.CookiePath,
		CookieSecure: cfg.Auth.CookieSecure,
		SameSite:     cfg.Auth.SameSite(),
		AccessTTL:    issuer.TTL(domainauth.KindAccess),
		RefreshTTL:   issuer.TTL(domainauth.KindRefresh),
	})
	profileSrv := profile.NewServer(logger, profile.NewUsecase(st.users), guard)

	mux := http.NewServeMux()
	authSrv.Routes(mux, apiPrefix)
	profileSrv.Routes(mux, apiPrefix)
	obs.RegisterOps(mux, st.ping)

	handler := httpx.Chain(mux,
		httpx.Recover(logger),
		httpx.CORS(cfg.Server.CORSOrigins),
		httpx.AccessLog(logger),
		obs.HTTPMetrics,
	)

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(handler, "api-gateway"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
