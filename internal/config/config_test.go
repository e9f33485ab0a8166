package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile — утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir — смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
api:
  base_url: "https://controlae.example.com/api/"
  user_agent: "controlae-test"
timeouts:
  request: "5s"
session:
  backend: "memory"
  profile: "maria"
limits:
  rps: 10
  burst: 3
metrics:
  textfile: "/tmp/controlae.prom"
`

const minimalYAML = `
env: "dev"
`

const brokenYAML = `
env: [unclosed
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "https://controlae.example.com/api", cfg.API.BaseURL)
	require.Equal(t, "controlae-test", cfg.API.UserAgent)
	require.Equal(t, 5*time.Second, cfg.Timeouts.Request)
	require.Equal(t, BackendMemory, cfg.Session.Backend)
	require.Equal(t, "maria", cfg.Session.Profile)
	require.InDelta(t, 10.0, cfg.Limits.RPS, 1e-9)
	require.Equal(t, 3, cfg.Limits.Burst)
	require.Equal(t, "/tmp/controlae.prom", cfg.Metrics.Textfile)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Timeouts.Request)
	require.Equal(t, BackendFile, cfg.Session.Backend)
	require.Equal(t, "default", cfg.Session.Profile)
	require.Equal(t, "controlae:session:", cfg.Session.RedisPrefix)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_WithExplicitPath_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat failed")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "maria", cfg.Session.Profile)
}

// CONFIG_PATH важнее local.yaml.
func TestLoad_Priority_ENVWinsOverLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, ".", "local.yaml", sampleYAML)
	envPath := writeFile(t, dir, "from_env.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", envPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
}

// Без файлов конфигурация собирается из ENV и .env.
func TestLoad_EnvOnly_WithDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SESSION_PROFILE", "from-env")
	// godotenv не перетирает заданные переменные, поэтому API_BASE_URL
	// должен быть пустым в окружении, чтобы взяться из .env.
	t.Setenv("API_BASE_URL", "")
	require.NoError(t, os.Unsetenv("API_BASE_URL"))

	writeFile(t, ".", ".env", "API_BASE_URL=http://api.local:9000/api\n")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://api.local:9000/api", cfg.API.BaseURL)
	require.Equal(t, "from-env", cfg.Session.Profile)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			API:     APIConfig{BaseURL: "http://localhost:8000/api/"},
			Session: SessionConfig{Backend: BackendFile},
			Limits:  LimitsConfig{Burst: 1},
		}
	}

	t.Run("ok_trims_slash", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		require.NoError(t, cfg.Validate())
		require.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	})

	t.Run("relative_url", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.API.BaseURL = "/api"
		require.Error(t, cfg.Validate())
	})

	t.Run("redis_without_url", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Session.Backend = BackendRedis
		require.ErrorContains(t, cfg.Validate(), "redis_url")
	})

	t.Run("unknown_backend", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Session.Backend = "sqlite"
		require.ErrorContains(t, cfg.Validate(), "unknown session backend")
	})

	t.Run("rps_without_burst", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Limits = LimitsConfig{RPS: 5, Burst: 0}
		require.Error(t, cfg.Validate())
	})
}

func TestSessionConfig_FilePath(t *testing.T) {
	t.Parallel()

	p, err := SessionConfig{Path: "/x/y.json"}.FilePath()
	require.NoError(t, err)
	require.Equal(t, "/x/y.json", p)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	require.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}
