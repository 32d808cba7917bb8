package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notequiz/internal/app"
	"notequiz/internal/config"
	"notequiz/internal/domain"
	"notequiz/internal/infra/memory"
)

type noCompleter struct{}

func (noCompleter) Complete(context.Context, domain.GenerationPrompt) (string, error) {
	return "", domain.ErrGeneration
}

func TestPlayModuleRecordsScore(t *testing.T) {
	store := memory.NewModuleStore(memory.DemoModule())
	service := app.NewService(store, app.NewGenerator(noCompleter{}, store),
		app.WithGameConfig(app.GameConfig{Tick: time.Hour}),
	)

	in := strings.NewReader("3\n\n9\n4\n\n1\n\n")
	var out bytes.Buffer
	require.NoError(t, playModule(context.Background(), service, "1", in, &out))

	assert.Contains(t, out.String(), "What is the capital of Japan?")
	assert.Contains(t, out.String(), "type a number between 1 and 4")
	assert.Contains(t, out.String(), "The answer was 3) Ottawa")
	assert.Contains(t, out.String(), "Final score: 3000 over 3 questions")

	module, ok := store.Module("1")
	require.True(t, ok)
	assert.Equal(t, 3000, module.HighScore)
}

func TestPlayModuleStopsWhenInputEnds(t *testing.T) {
	store := memory.NewModuleStore(memory.DemoModule())
	service := app.NewService(store, app.NewGenerator(noCompleter{}, store),
		app.WithGameConfig(app.GameConfig{Tick: time.Hour}),
	)

	err := playModule(context.Background(), service, "1", strings.NewReader("3\n"), &bytes.Buffer{})
	require.Error(t, err)

	module, _ := store.Module("1")
	assert.Equal(t, 850, module.HighScore)
}

func TestSeedModulesWithoutCatalog(t *testing.T) {
	modules, err := seedModules(context.Background(), config.Config{}, nil)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "Capital Cities", modules[0].Title)

	off := false
	cfg := config.Config{}
	cfg.Seed.Demo = &off
	modules, err = seedModules(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestLoadSeedRejectsMalformedCatalogRows(t *testing.T) {
	broken := domain.QuizModule{
		ID:        "catalog-7",
		Title:     "Broken",
		Questions: []domain.Question{{Question: "?", Options: []string{"a", "b"}, Answer: 7}},
	}

	_, err := loadSeed(context.Background(),
		memory.NewStaticModuleLoader(broken),
		memory.NewStaticModuleLoader(memory.DemoModule()),
	)
	require.ErrorIs(t, err, domain.ErrInvalidModule)
	assert.Contains(t, err.Error(), "catalog-7")

	_, err = loadSeed(context.Background(), memory.NewStaticModuleLoader(domain.QuizModule{ID: "empty"}))
	require.ErrorIs(t, err, domain.ErrEmptyModule)
}

func TestLoadSeedFirstIDWins(t *testing.T) {
	catalogDemo := memory.DemoModule()
	catalogDemo.HighScore = 2000

	modules, err := loadSeed(context.Background(),
		memory.NewStaticModuleLoader(catalogDemo),
		memory.NewStaticModuleLoader(memory.DemoModule()),
	)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, 2000, modules[0].HighScore)
}

func TestQuestionCacheSelection(t *testing.T) {
	tests := map[string]struct {
		cache   string
		addr    string
		wantNil bool
		wantErr bool
	}{
		"disabled":         {cache: config.CacheNone, wantNil: true},
		"memory":           {cache: config.CacheMemory},
		"redis":            {cache: config.CacheRedis, addr: "localhost:6379"},
		"redis no address": {cache: config.CacheRedis, wantErr: true},
		"unknown":          {cache: "disk", wantErr: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			cfg := config.Config{}
			cfg.Generation.Cache = tt.cache
			cfg.Redis.Addr = tt.addr
			rt := &runtime{}
			defer rt.Close()

			cache, err := questionCache(cfg, rt)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, cache == nil)
		})
	}
}

func TestReadImageDetectsType(t *testing.T) {
	dir := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	path := filepath.Join(dir, "notes.bin")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	img, err := readImage(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "notes.bin", img.Name)

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("plain"), 0o600))
	_, err = readImage(text)
	require.Error(t, err)
}

func TestGenerateRequiresMaterial(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"generate", "--title", "Math"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}
