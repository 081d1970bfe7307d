// Command overseerd runs one user turn through a tenant's supervisor tree:
// it loads the topology from the configured store, compiles it, and routes
// the request until a terminal decision.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"overseer-ai/internal/adapter/capability"
	"overseer-ai/internal/adapter/oracle"
	"overseer-ai/internal/adapter/topostore"
	"overseer-ai/internal/domain"
	"overseer-ai/internal/infra/config"
	"overseer-ai/internal/infra/logger"
	"overseer-ai/internal/infra/tracer"
	"overseer-ai/internal/usecase/orchestrate"
	"overseer-ai/internal/usecase/topology"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	tenant := flag.String("tenant", "", "tenant to serve (overrides config)")
	seed := flag.Bool("seed", false, "seed the demo topology into the store before running")
	flag.Parse()

	message := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if message == "" && !*seed {
		fmt.Fprintln(os.Stderr, "usage: overseerd [-config file] [-tenant id] [-seed] <message>")
		os.Exit(2)
	}

	if err := run(*configPath, *tenant, *seed, message); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, tenantFlag string, seed bool, message string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	tenant := cfg.Tenant
	if tenantFlag != "" {
		tenant = tenantFlag
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	if seed {
		sqlite, ok := store.(*topostore.SQLiteStore)
		if !ok {
			return fmt.Errorf("-seed requires the sqlite store driver")
		}
		if err := seedDemo(ctx, sqlite, tenant); err != nil {
			return fmt.Errorf("seed demo topology: %w", err)
		}
		log.Info("demo topology seeded", "tenant", tenant)
		if message == "" {
			return nil
		}
	}

	registry := capability.NewRegistry(log)
	if err := capability.RegisterBuiltins(registry); err != nil {
		return err
	}

	decider := buildOracle(cfg.Oracle, log)

	compiler := topology.NewCompiler(topology.CompilerDeps{
		Store:        store,
		Capabilities: registry,
		Oracle:       decider,
		Limits: orchestrate.Limits{
			MaxAttemptsPerTarget: cfg.Routing.MaxAttemptsPerTarget,
			MaxTotalAttempts:     cfg.Routing.MaxTotalAttempts,
			MaxDepth:             cfg.Routing.MaxDepth,
		},
		JudgeEnabled:   cfg.Routing.JudgeEnabled,
		FailurePhrases: cfg.Routing.FailurePhrases,
		Logger:         log,
	})
	cache := topology.NewCache(compiler, log)
	orch := orchestrate.NewOrchestrator(cache, log)

	conv, err := orch.Run(ctx, tenant, message)
	if err != nil {
		return err
	}

	for _, msg := range conv.Messages {
		label := msg.Role
		if msg.Name != "" {
			label = msg.Name
		}
		fmt.Printf("[%s] %s\n", label, msg.Content)
	}
	return nil
}

func openStore(cfg config.StoreConfig) (domain.TopologyStore, func() error, error) {
	switch cfg.Driver {
	case "yaml":
		store, err := topostore.NewYAMLStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		store, err := topostore.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}

// buildOracle assembles the decision oracle chain: provider, then bounded
// transient retries, then the transport circuit breaker outermost.
func buildOracle(cfg config.OracleConfig, log *slog.Logger) domain.DecisionOracle {
	var base domain.DecisionOracle
	switch cfg.Provider {
	case "rules":
		rules := make([]oracle.Rule, len(cfg.Rules))
		for i, r := range cfg.Rules {
			rules[i] = oracle.Rule{Contains: r.Contains, Target: r.Target}
		}
		base = oracle.NewRulesOracle(rules, log)
	default:
		base = oracle.NewChatOracle(cfg, log)
	}
	return oracle.WithBreaker(oracle.WithRetry(base, cfg.MaxRetries, log), cfg.Breaker, log)
}

// seedDemo installs the reference restaurant topology: a root supervisor
// over presentation workers and a nested operations team hierarchy.
func seedDemo(ctx context.Context, store *topostore.SQLiteStore, tenant string) error {
	desc := func(d string) map[string]string { return map[string]string{"description": d} }
	agents := []domain.AgentDefinition{
		{Name: "front_desk", Kind: domain.KindSupervisor,
			Prompt:   "You coordinate the restaurant assistant. Route each request to the best team or specialist.",
			Metadata: desc("root coordinator")},
		{Name: "visualization", Kind: domain.KindWorker, Parent: "front_desk",
			Prompt:       "You build visual displays when users want to see data graphically.",
			Metadata:     desc("renders charts, cards, and alert panels"),
			Capabilities: []string{"display_recipes", "display_scaling", "display_forecast", "display_inventory_alert", "display_team_assignment"}},
		{Name: "marketing", Kind: domain.KindWorker, Parent: "front_desk",
			Prompt:       "You write marketing and promotional copy for culinary products.",
			Metadata:     desc("creates marketing and promotional content"),
			Capabilities: []string{"marketing_copy"}},
		{Name: "chef_team", Kind: domain.KindSupervisor, Parent: "front_desk",
			Prompt:   "You run kitchen operations. Route to the kitchen, inventory, or sales team.",
			Metadata: desc("handles recipes, inventory, costs, and team management")},
		{Name: "kitchen_team", Kind: domain.KindSupervisor, Parent: "chef_team",
			Prompt:   "You manage recipes, dish planning, and team assignments.",
			Metadata: desc("recipes, dish ideas, and staff assignments")},
		{Name: "recipe", Kind: domain.KindWorker, Parent: "kitchen_team",
			Prompt:       "You are the recipe catalog specialist.",
			Metadata:     desc("searches recipes and fetches details"),
			Capabilities: []string{"recipe_search", "recipe_details"}},
		{Name: "team_pm", Kind: domain.KindWorker, Parent: "kitchen_team",
			Prompt:       "You manage team members and task assignments.",
			Metadata:     desc("lists team members and assigns tasks"),
			Capabilities: []string{"team_members", "assign_task"}},
		{Name: "dish_ideation", Kind: domain.KindWorker, Parent: "kitchen_team",
			Prompt:       "You suggest dish ideas from available ingredients.",
			Metadata:     desc("suggests dishes from ingredients"),
			Capabilities: []string{"suggest_dishes"}},
		{Name: "inventory_team", Kind: domain.KindSupervisor, Parent: "chef_team",
			Prompt:   "You track stock, suppliers, and demand.",
			Metadata: desc("stock levels, suppliers, demand forecasting")},
		{Name: "stock", Kind: domain.KindWorker, Parent: "inventory_team",
			Prompt:       "You check inventory stock levels.",
			Metadata:     desc("checks stock levels"),
			Capabilities: []string{"check_stock"}},
		{Name: "suppliers", Kind: domain.KindWorker, Parent: "inventory_team",
			Prompt:       "You manage supplier information.",
			Metadata:     desc("lists suppliers"),
			Capabilities: []string{"list_suppliers"}},
		{Name: "analysis", Kind: domain.KindWorker, Parent: "inventory_team",
			Prompt:       "You forecast demand for inventory items.",
			Metadata:     desc("forecasts demand"),
			Capabilities: []string{"forecast_demand"}},
		{Name: "sales_team", Kind: domain.KindSupervisor, Parent: "chef_team",
			Prompt:   "You analyze costs and profitability.",
			Metadata: desc("cost and margin analysis")},
		{Name: "profit", Kind: domain.KindWorker, Parent: "sales_team",
			Prompt:       "You calculate recipe costs and margins.",
			Metadata:     desc("calculates cost per serving and margins"),
			Capabilities: []string{"calculate_cost"}},
	}

	for i := range agents {
		agents[i].TenantID = tenant
		agents[i].Enabled = true
		if err := store.Save(ctx, &agents[i], i); err != nil {
			return fmt.Errorf("save %q: %w", agents[i].Name, err)
		}
	}
	return nil
}
