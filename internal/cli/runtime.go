package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"notequiz/internal/app"
	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/infra/memory"
	infraopenai "notequiz/internal/infra/openai"
	pgloader "notequiz/internal/infra/postgres"
	infraredis "notequiz/internal/infra/redis"
)

const (
	defaultGenerationTimeout = 60 * time.Second
	defaultCacheTTL          = 30 * time.Minute
)

// runtime is the wired service graph shared by the start, generate and play commands.
type runtime struct {
	store   *memory.ModuleStore
	service *app.Service
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func newRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return nil, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
	}

	seed, err := seedModules(ctx, cfg, pool)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = memory.NewModuleStore(seed...)

	var genOpts []app.GeneratorOption
	genOpts = append(genOpts, app.WithTimeout(config.Duration(cfg.Generation.Timeout, defaultGenerationTimeout)))
	cache, err := questionCache(cfg, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if cache != nil {
		genOpts = append(genOpts, app.WithQuestionCache(cache))
	}

	completer := infraopenai.NewCompleter(infraopenai.Config{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
	})
	generator := app.NewGenerator(completer, rt.store, genOpts...)

	rt.service = app.NewService(rt.store, generator,
		app.WithQuestionLimits(cfg.Generation.DefaultQuestions, cfg.Generation.MaxQuestions),
		app.WithGameConfig(app.GameConfig{
			QuestionTime: cfg.Game.QuestionTime,
			Tick:         config.Duration(cfg.Game.Tick, app.DefaultTick),
		}),
	)
	slog.DebugContext(ctx, "runtime: service ready",
		"modules", len(seed),
		"cache", cfg.Generation.Cache,
		"catalog", pool != nil,
	)
	return rt, nil
}

// seedModules loads the catalog (when configured) followed by the demo module. Ids seen
// earlier win.
func seedModules(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) ([]domain.QuizModule, error) {
	var loaders []memory.ModuleLoader
	if pool != nil {
		loaders = append(loaders, pgloader.NewModuleLoader(pool))
	}
	if cfg.SeedDemo() {
		loaders = append(loaders, memory.NewStaticModuleLoader(memory.DemoModule()))
	}
	return loadSeed(ctx, loaders...)
}

// loadSeed merges the loaders in order. Every module must hold valid questions.
func loadSeed(ctx context.Context, loaders ...memory.ModuleLoader) ([]domain.QuizModule, error) {
	seen := make(map[string]struct{})
	var modules []domain.QuizModule
	for _, loader := range loaders {
		loaded, err := loader.LoadModules(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range loaded {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			if err := app.ValidateQuestions(m.Questions); err != nil {
				return nil, fmt.Errorf("seed module %s: %w", m.ID, err)
			}
			seen[m.ID] = struct{}{}
			modules = append(modules, m)
		}
	}
	return modules, nil
}

func questionCache(cfg config.Config, rt *runtime) (app.QuestionCache, error) {
	ttl := config.Duration(cfg.Generation.CacheTTL, defaultCacheTTL)
	switch cfg.Generation.Cache {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		return memory.NewQuestionCache(ttl), nil
	case config.CacheRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("generation cache %q requires redis.addr", cfg.Generation.Cache)
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		return infraredis.NewQuestionCache(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown generation cache %q", cfg.Generation.Cache)
	}
}
