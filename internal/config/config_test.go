package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("AEGIS_API_URL", "")
	t.Setenv("AEGIS_LOG_LEVEL", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3001", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval)
	assert.Zero(t, cfg.Poll.MaxAttempts)
	assert.Equal(t, "", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.MinioEnabled())
}

func TestParse_YAML(t *testing.T) {
	t.Setenv("AEGIS_API_URL", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Parse([]byte(`
api:
  baseURL: https://aegis.internal/
  timeout: 10s
poll:
  interval: 500ms
  maxAttempts: 40
  maxWait: 2m
database:
  driver: Postgres
  host: db
  user: u
  password: p
  name: aegis
minio:
  endpoint: minio:9000
  bucketName: results
`))
	require.NoError(t, err)
	assert.Equal(t, "https://aegis.internal", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 40, cfg.Poll.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Poll.MaxWait)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=aegis sslmode=disable", cfg.PostgresDSN())
	assert.True(t, cfg.MinioEnabled())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("AEGIS_API_URL", "http://remote:3001")
	t.Setenv("AEGIS_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Parse([]byte("api:\n  baseURL: http://ignored\nopenai:\n  apiKey: sk-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://remote:3001", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: sqlite\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("poll:\n  maxAttempts: -1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("server: ["))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	t.Setenv("AEGIS_API_URL", "")
	cfg, err := Parse([]byte("database:\n  driver: mysql\n  host: db\n  user: u\n  password: p\n  name: aegis\n"))
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(db:3306)/aegis?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
