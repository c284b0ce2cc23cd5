package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/restaurant/internal/api"
	authjwt "github.com/vyrodovalexey/restaurant/internal/auth/jwt"
	"github.com/vyrodovalexey/restaurant/internal/authz"
	"github.com/vyrodovalexey/restaurant/internal/cache"
	"github.com/vyrodovalexey/restaurant/internal/config"
	"github.com/vyrodovalexey/restaurant/internal/health"
	"github.com/vyrodovalexey/restaurant/internal/observability"
	"github.com/vyrodovalexey/restaurant/internal/payment"
	"github.com/vyrodovalexey/restaurant/internal/resource"
	"github.com/vyrodovalexey/restaurant/internal/server"
	"github.com/vyrodovalexey/restaurant/internal/store"
)

const metricsNamespace = "restaurant"

// application holds all application components.
type application struct {
	server        *server.Server
	store         *store.Store
	roleCache     cache.Cache
	healthChecker *health.Checker
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	config        *config.Config
}

// newApplication connects to the store and the cache and wires every
// component into an HTTP server. Resources acquired before a failure are
// released.
func newApplication(ctx context.Context, cfg *config.Config, logger observability.Logger) (app *application, err error) {
	metrics := observability.NewMetrics(metricsNamespace)
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	registry := metrics.Registry()

	tracer, err := initTracer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	storeMetrics := store.NewMetrics(metricsNamespace)
	storeMetrics.MustRegister(registry)
	st, err := store.Open(ctx, &cfg.Store,
		store.WithLogger(logger),
		store.WithMetrics(storeMetrics),
		store.WithTimeout(cfg.Store.Timeout.Duration()),
	)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err != nil {
			_ = st.Close(context.Background())
			_ = tracer.Shutdown(context.Background())
		}
	}()
	logger.Info("store connected",
		observability.String("driver", st.Driver()),
		observability.String("database", cfg.Store.Database))

	cacheMetrics := cache.NewMetrics(metricsNamespace)
	cacheMetrics.MustRegister(registry)
	roleCache, err := cache.New(&cfg.Cache, logger, cache.WithMetrics(cacheMetrics))
	if err != nil {
		return nil, fmt.Errorf("create role cache: %w", err)
	}
	defer func() {
		if err != nil {
			_ = roleCache.Close()
		}
	}()

	deps, err := buildDeps(ctx, cfg, st, roleCache, logger, registry)
	if err != nil {
		return nil, err
	}

	healthMetrics := health.NewMetrics(metricsNamespace)
	healthMetrics.MustRegister(registry)
	checker := health.NewChecker(version,
		health.WithLogger(logger),
		health.WithMetrics(healthMetrics),
		health.WithTimeout(cfg.Store.Timeout.Duration()),
	)
	checker.RegisterCheck("store", st.Ping)

	serverOpts := []server.Option{}
	if cfg.Observability.Metrics.Enabled {
		serverOpts = append(serverOpts, server.WithMetrics(metrics))
	}
	if cfg.Observability.Tracing.Enabled {
		serverOpts = append(serverOpts, server.WithTracing(cfg.Observability.Tracing.ServiceName))
	}
	srv := server.New(cfg.Server, logger, serverOpts...)

	apiOpts := api.Options{Health: checker}
	if cfg.Observability.Metrics.Enabled {
		apiOpts.Metrics = metrics
		apiOpts.MetricsPath = cfg.Observability.Metrics.Path
	}
	api.Mount(srv.Engine(), deps, apiOpts)

	return &application{
		server:        srv,
		store:         st,
		roleCache:     roleCache,
		healthChecker: checker,
		metrics:       metrics,
		tracer:        tracer,
		config:        cfg,
	}, nil
}

// buildDeps builds the gate, the resource handlers and the payment facade.
func buildDeps(
	ctx context.Context,
	cfg *config.Config,
	st *store.Store,
	roleCache cache.Cache,
	logger observability.Logger,
	registry *prometheus.Registry,
) (api.Deps, error) {
	jwtMetrics := authjwt.NewMetrics(metricsNamespace)
	jwtMetrics.MustRegister(registry)
	jwtCfg := authjwt.Config{
		Secret:    []byte(cfg.Auth.TokenSecret),
		TTL:       cfg.Auth.TokenTTL.Duration(),
		ClockSkew: cfg.Auth.ClockSkew.Duration(),
		Issuer:    cfg.Auth.Issuer,
	}
	signer, err := authjwt.NewSigner(jwtCfg, authjwt.WithLogger(logger), authjwt.WithMetrics(jwtMetrics))
	if err != nil {
		return api.Deps{}, fmt.Errorf("create token signer: %w", err)
	}
	verifier, err := authjwt.NewVerifier(jwtCfg, authjwt.WithLogger(logger), authjwt.WithMetrics(jwtMetrics))
	if err != nil {
		return api.Deps{}, fmt.Errorf("create token verifier: %w", err)
	}

	authzMetrics := authz.NewMetrics(metricsNamespace)
	authzMetrics.MustRegister(registry)
	resolver := authz.NewRoleResolver(resource.AccountCollection(st, cfg.Store.Collections),
		authz.WithResolverLogger(logger),
		authz.WithResolverMetrics(authzMetrics),
		authz.WithRoleCache(roleCache, cfg.Cache.TTL.Duration()),
	)
	gate := authz.NewGate(verifier, resolver,
		authz.WithGateLogger(logger),
		authz.WithGateMetrics(authzMetrics),
	)
	if !cfg.Auth.RequireKnownAccount {
		logger.Warn("token issuance signs caller-supplied identities; set auth.requireKnownAccount to restrict it")
	}

	dispatcher := resource.NewDispatcher(st, cfg.Store.Collections,
		resource.WithLogger(logger),
		resource.WithRoleInvalidator(resolver),
	)
	if err := dispatcher.EnsureIndexes(ctx); err != nil {
		logger.Warn("account emails are not enforced unique by the store", observability.Error(err))
	}

	paymentMetrics := payment.NewMetrics(metricsNamespace)
	paymentMetrics.MustRegister(registry)
	facade := payment.NewFacade(newProcessor(cfg.Payment, logger, paymentMetrics), cfg.Payment.Currency, cfg.Payment.Methods,
		payment.WithLogger(logger),
		payment.WithMetrics(paymentMetrics),
		payment.WithTimeout(cfg.Payment.Timeout.Duration()),
	)

	return api.Deps{
		Gate:      gate,
		Issuer:    authz.NewIssuer(signer, resolver, cfg.Auth.RequireKnownAccount, logger),
		Resources: resource.NewHandler(dispatcher, resolver, logger),
		Payments:  facade,
	}, nil
}

// newProcessor returns the Stripe processor, behind a circuit breaker when
// enabled. Without a secret key every payment call fails.
func newProcessor(cfg config.PaymentConfig, logger observability.Logger, metrics *payment.Metrics) payment.Processor {
	stripeProc, err := payment.NewStripeProcessor(payment.StripeConfig{
		SecretKey: cfg.SecretKey,
		URL:       cfg.APIURL,
		Logger:    logger,
	})
	if err != nil {
		logger.Warn("payment processor unavailable", observability.Error(err))
		return payment.ProcessorFunc(func(context.Context, int64, string, []string) (*payment.Intent, error) {
			return nil, err
		})
	}
	if !cfg.Breaker.Enabled {
		return stripeProc
	}
	return payment.NewBreakerProcessor(stripeProc, cfg.Breaker.Threshold, cfg.Breaker.Timeout.Duration(), logger, metrics)
}

// initTracer initializes the tracer.
func initTracer(ctx context.Context, cfg *config.Config, logger observability.Logger) (*observability.Tracer, error) {
	t := cfg.Observability.Tracing
	tracer, err := observability.NewTracer(ctx, observability.TracerConfig{
		ServiceName:    t.ServiceName,
		ServiceVersion: version,
		Endpoint:       t.Endpoint,
		SampleRate:     t.SampleRate,
		Insecure:       t.Insecure,
		Enabled:        t.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize tracer: %w", err)
	}
	if t.Enabled {
		logger.Info("tracing enabled",
			observability.String("endpoint", t.Endpoint),
			observability.Float64("sample_rate", t.SampleRate))
	}
	return tracer, nil
}

// close releases the store, the cache and the tracer.
func (a *application) close(ctx context.Context) error {
	return errors.Join(
		a.store.Close(ctx),
		a.roleCache.Close(),
		a.tracer.Shutdown(ctx),
	)
}
