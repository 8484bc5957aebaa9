package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStore(t *testing.T) {
	store := NewValueStore()

	data := map[string]any{"key": "value"}
	store.Store(data)

	loaded := store.Load()
	assert.Equal(t, "value", loaded["key"])

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Load()
		}()
	}
	wg.Wait()
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, pathSegments("a:b.c"))
	// 命中缓存
	assert.Equal(t, []string{"a", "b", "c"}, pathSegments("a:b.c"))
	assert.Empty(t, pathSegments(""))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestYamlFileSource(t *testing.T) {
	path := writeFile(t, "app.yaml", `
logging:
  level: debug
  color: false
demo:
  messages: [a, b]
  mangle: Hi!
`)

	cfg, err := NewConfigurationBuilder().AddYamlFile(path).Build()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Get("logging:level"))
	assert.Equal(t, "Hi!", cfg.Get("demo.mangle"))

	color, err := cfg.GetBool("logging:color")
	require.NoError(t, err)
	assert.False(t, color)

	assert.True(t, cfg.Exists("demo:messages"))
	assert.False(t, cfg.Exists("demo:missing"))
	assert.Equal(t, "x", cfg.GetWithDefault("demo:missing", "x"))
}

func TestJsonFileSource(t *testing.T) {
	path := writeFile(t, "app.json", `{"scheduler": {"enabled": true, "spec": "@every 1s"}}`)

	cfg, err := NewConfigurationBuilder().AddJsonFile(path).Build()
	require.NoError(t, err)

	enabled, err := cfg.GetBool("scheduler:enabled")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, "@every 1s", cfg.GetSection("scheduler").Get("spec"))
}

func TestOptionalFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := NewConfigurationBuilder().AddYamlFile(missing).Build()
	assert.Error(t, err)

	cfg, err := NewConfigurationBuilder().AddYamlFile(missing, true).Build()
	require.NoError(t, err)
	assert.False(t, cfg.Exists("logging"))
}

func TestInvalidYaml(t *testing.T) {
	path := writeFile(t, "bad.yaml", "logging: [unclosed")

	_, err := NewConfigurationBuilder().AddYamlFile(path).Build()
	assert.Error(t, err)
}

func TestSourcesMergeInOrder(t *testing.T) {
	defaults := map[string]any{
		"logging": map[string]any{"level": "info", "format": "text"},
	}
	path := writeFile(t, "app.yaml", "logging:\n  level: warn\n")

	cfg, err := NewConfigurationBuilder().
		AddInMemory(defaults).
		AddYamlFile(path).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Get("logging:level"))
	assert.Equal(t, "text", cfg.Get("logging:format"))

	// 配置源的数据不会被合并修改
	assert.Equal(t, "info", defaults["logging"].(map[string]any)["level"])
}

func TestGetInt(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{
		"a": 3,
		"b": "42",
		"c": 1.0,
		"d": true,
	}).Build()
	require.NoError(t, err)

	for key, want := range map[string]int{"a": 3, "b": 42, "c": 1} {
		got, err := cfg.GetInt(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}

	_, err = cfg.GetInt("d")
	assert.Error(t, err)
	_, err = cfg.GetInt("missing")
	assert.Error(t, err)
}

type demoSettings struct {
	Messages  []string `json:"messages"`
	Mangle    string   `json:"mangle"`
	KeepAlive bool     `json:"keepAlive"`
}

func TestSection(t *testing.T) {
	defaults := demoSettings{Messages: []string{"hello"}, Mangle: "Hi!"}

	empty, err := NewConfigurationBuilder().Build()
	require.NoError(t, err)
	got, err := Section(empty, "demo", defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)

	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{
		"demo": map[string]any{"keepAlive": true},
	}).Build()
	require.NoError(t, err)

	got, err = Section(cfg, "demo", defaults)
	require.NoError(t, err)
	assert.True(t, got.KeepAlive)
	assert.Equal(t, "Hi!", got.Mangle, "fields absent from config keep their defaults")

	bad, err := NewConfigurationBuilder().AddInMemory(map[string]any{
		"demo": map[string]any{"keepAlive": "not-a-bool"},
	}).Build()
	require.NoError(t, err)
	_, err = Section(bad, "demo", defaults)
	assert.Error(t, err)
}

func TestLoadRegistersConfiguration(t *testing.T) {
	path := writeFile(t, "app.yaml", "demo:\n  mangle: yo\n")

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(Load(path)))
	require.NoError(t, rt.Container.Build())

	cfg, err := di.Resolve[Configuration](rt.Container)
	require.NoError(t, err)
	assert.Equal(t, "yo", cfg.Get("demo:mangle"))

	assert.Same(t, cfg, FromRuntime(rt))
}

func TestLoadOptionalMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	rt := core.NewRuntime()
	assert.Error(t, rt.Apply(Load(missing)))

	rt = core.NewRuntime()
	require.NoError(t, rt.Apply(Load(missing, Optional(), WithDefaults(map[string]any{"k": "v"}))))
	assert.Equal(t, "v", FromRuntime(rt).Get("k"))
}

func TestFromRuntimeWithoutLoad(t *testing.T) {
	cfg := FromRuntime(core.NewRuntime())
	require.NotNil(t, cfg)
	assert.False(t, cfg.Exists("anything"))
}

func BenchmarkConfigGet(b *testing.B) {
	cfg, _ := NewConfigurationBuilder().AddInMemory(map[string]any{
		"server": map[string]any{
			"host": "localhost",
			"port": 8080,
		},
	}).Build()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg.Get("server:host")
	}
}
