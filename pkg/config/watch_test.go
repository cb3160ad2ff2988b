package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/config/provider"
	"github.com/quiverhq/quiver/pkg/tools"
)

const watchConfigEnabled = `
version: "1"
name: watch-test

external:
  echo:
    provider: echo
`

const watchConfigDisabled = `
version: "1"
name: watch-test

external:
  echo:
    provider: echo
    enabled: false
`

// buildCatalog rebuilds a registry from a config the way a reload callback
// would and returns the resulting tool names.
func buildCatalog(t *testing.T, cfg *config.Config) []string {
	t.Helper()

	var descriptors []tools.Descriptor
	for name := range cfg.External {
		descriptors = append(descriptors, tools.Descriptor{
			Category: config.NewCategory(config.KindExternal, name),
			Tools:    []tools.Definition{{Name: name + "_ping"}},
			Build: func(ctx context.Context, category config.Category, settings config.Settings) (tools.Invoker, error) {
				return nil, nil
			},
		})
	}

	registry, err := tools.BuildRegistry(config.NewLiveResolver(cfg), descriptors)
	require.NoError(t, err)

	definitions := registry.Catalog()
	names := make([]string, 0, len(definitions))
	for _, definition := range definitions {
		names = append(names, definition.Name)
	}
	return names
}

func TestWatchRebuildsRegistryOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(watchConfigEnabled), 0o644))

	p, err := provider.New(provider.Options{Type: provider.TypeFile, Path: path})
	require.NoError(t, err)

	reloaded := make(chan *config.Config, 1)
	loader := config.NewLoader(p, config.WithOnChange(func(cfg *config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}))
	defer loader.Close()

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"echo_ping"}, buildCatalog(t, cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- loader.Watch(ctx)
	}()

	// Give the fsnotify watcher time to register before mutating the file.
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(watchConfigDisabled), 0o644))

	select {
	case newCfg := <-reloaded:
		assert.Empty(t, buildCatalog(t, newCfg), "disabled category must vanish from the rebuilt catalog")
	case <-time.After(5 * time.Second):
		t.Fatal("config change was never observed")
	}

	cancel()
	select {
	case err := <-watchDone:
		// Cancellation surfaces as context.Canceled or as a clean channel
		// close depending on which the watcher observes first.
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on context cancellation")
	}
}
