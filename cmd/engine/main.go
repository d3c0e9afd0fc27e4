// Command engine launches the market-data value-resolution runtime.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/quantfabric/meridian/config"
	"github.com/quantfabric/meridian/internal/configstore"
	"github.com/quantfabric/meridian/internal/defaults"
	"github.com/quantfabric/meridian/internal/feed"
	"github.com/quantfabric/meridian/internal/normalization"
	"github.com/quantfabric/meridian/internal/observability"
	"github.com/quantfabric/meridian/internal/scenario"
	"github.com/quantfabric/meridian/internal/telemetry"
)

const (
	defaultConfigPath        = "config/engine.yaml"
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 5 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath     = flag.String("config", defaultConfigPath, "Path to engine configuration file")
		ruleSetID   = flag.String("rule-set", "", "Rule set driving the feed pipeline (default: first configured)")
		metricsAddr = flag.String("metrics-addr", ":9180", "Prometheus metrics listen address")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	zlog, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()
	observability.SetLogger(observability.NewZapLogger(zlog))
	log := observability.Log()

	log.Info("configuration loaded",
		observability.Field{Key: "environment", Value: string(cfg.Environment)},
		observability.Field{Key: "rule_sets", Value: len(cfg.RuleSets)},
		observability.Field{Key: "scenarios", Value: len(cfg.Scenarios)})

	_, telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}

	store, err := buildConfigStore(ctx, cfg.Defaults)
	if err != nil {
		return err
	}
	resolver := buildResolver(cfg.Defaults.Mode, store)
	log.Info("default-property resolver ready",
		observability.Field{Key: "mode", Value: resolver.Mode().String()},
		observability.Field{Key: "keys", Value: len(store.Keys())})

	scenarios, err := loadScenarios(cfg.Scenarios)
	if err != nil {
		return err
	}
	for _, def := range scenarios {
		log.Info("scenario loaded",
			observability.Field{Key: "scenario", Value: def.Name()},
			observability.Field{Key: "selections", Value: def.Size()})
	}

	promReg := prometheus.NewRegistry()
	metrics := normalization.NewPipelineMetrics(promReg)

	registry, err := buildRegistry(cfg.RuleSets)
	if err != nil {
		return err
	}

	activeSet, err := selectRuleSet(registry, cfg.RuleSets, *ruleSetID)
	if err != nil {
		return err
	}

	pipeline := normalization.NewPipeline(activeSet, func(instrument string, tick normalization.Tick) {
		log.Debug("tick forwarded",
			observability.Field{Key: "instrument", Value: instrument},
			observability.Field{Key: "fields", Value: tick.Len()})
	}, metrics)
	manager := feed.NewManager(pipeline)

	var client *feed.Client
	if strings.TrimSpace(cfg.Feed.URL) != "" {
		client = feed.NewClient(ctx, cfg.Feed.URL, manager.Dispatch, buildLimiter(cfg.Feed))
		if err := client.Start(); err != nil {
			return fmt.Errorf("start feed client: %w", err)
		}
		log.Info("feed connected", observability.Field{Key: "url", Value: cfg.Feed.URL})
	} else {
		log.Info("no feed configured; pipeline idle")
	}

	metricsServer := &http.Server{
		Addr:              *metricsAddr,
		Handler:           metricsHandler(promReg),
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", observability.Field{Key: "error", Value: err.Error()})
		}
	}()
	log.Info("metrics listening", observability.Field{Key: "addr", Value: *metricsAddr})

	log.Info("engine started; awaiting shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received")

	if client != nil {
		client.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	metricsErr := metricsServer.Shutdown(shutdownCtx)
	shutdownCancel()

	telemetryCtx, telemetryCancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	telemetryErr := telemetryShutdown(telemetryCtx)
	telemetryCancel()

	if err := observability.AggregateErrors("shutdown", []error{metricsErr, telemetryErr}); err != nil {
		return err
	}
	log.Info("engine stopped")
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(parsed)
	return zcfg.Build()
}

func buildConfigStore(ctx context.Context, cfg config.DefaultsSettings) (configstore.Store, error) {
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect config store: %w", err)
		}
		defer pool.Close()
		return configstore.LoadPostgres(ctx, pool)
	}
	if strings.TrimSpace(cfg.File) != "" {
		return configstore.FromYAMLFile(cfg.File)
	}
	return configstore.NewMemoryStore(nil), nil
}

func buildResolver(mode string, store configstore.Store) *defaults.Resolver {
	if mode == "generic" {
		return defaults.NewGenericResolver(store)
	}
	return defaults.NewIdentifiedResolver(store)
}

func loadScenarios(settings []config.ScenarioSettings) ([]*scenario.Definition, error) {
	defs := make([]*scenario.Definition, 0, len(settings))
	for _, sc := range settings {
		if sc.Script != "" {
			def, err := scenario.LoadDefinitionFromFile(sc.Name, sc.Script)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
			continue
		}
		entries := make([]scenario.DefinitionEntry, 0, len(sc.Shifts))
		for _, shift := range sc.Shifts {
			entries = append(entries, scenario.DefinitionEntry{
				Selector: scenario.NewCurveSelector(shift.Currency, shift.Curve),
				Params: scenario.Parameters{
					scenario.ParamShiftType: scenario.ShiftType(shift.ShiftType),
					scenario.ParamAmount:    decimal.NewFromFloat(shift.Amount),
				},
			})
		}
		defs = append(defs, scenario.NewDefinition(sc.Name, entries...))
	}
	return defs, nil
}

func buildRegistry(settings []config.RuleSetSettings) (*normalization.Registry, error) {
	registry := normalization.NewRegistry()
	for _, set := range settings {
		rules, err := buildRules(set)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(normalization.NewRuleSet(set.ID, rules...)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildRules(set config.RuleSetSettings) ([]normalization.Rule, error) {
	rules := make([]normalization.Rule, 0, len(set.Rules))
	for _, rc := range set.Rules {
		switch rc.Type {
		case config.RuleFieldFilter:
			rules = append(rules, normalization.NewFieldFilter(rc.Fields...))
		case config.RuleFieldNameChange:
			rules = append(rules, normalization.NewFieldNameChange(rc.From, rc.To))
		case config.RuleUnitChange:
			multiplier, err := decimal.NewFromString(rc.Multiplier)
			if err != nil {
				return nil, fmt.Errorf("rule set %s: parse unit multiplier %q: %w", set.ID, rc.Multiplier, err)
			}
			rules = append(rules, normalization.NewUnitChange(multiplier, rc.Fields...))
		case config.RuleImpliedVol:
			rules = append(rules, normalization.NewImpliedVolatilityCalculator())
		default:
			return nil, fmt.Errorf("rule set %s: unknown rule type %q", set.ID, rc.Type)
		}
	}
	return rules, nil
}

func selectRuleSet(registry *normalization.Registry, settings []config.RuleSetSettings, id string) (normalization.RuleSet, error) {
	if id == "" {
		if len(settings) == 0 {
			return normalization.NewRuleSet("passthrough"), nil
		}
		id = settings[0].ID
	}
	set, ok := registry.Resolve(id)
	if !ok {
		return normalization.RuleSet{}, fmt.Errorf("rule set %q not configured", id)
	}
	return set, nil
}

func buildLimiter(cfg config.FeedSettings) *rate.Limiter {
	if cfg.RatePerSecond <= 0 {
		return nil
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}
