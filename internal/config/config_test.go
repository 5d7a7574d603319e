package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("non-existent config file", func(t *testing.T) {
		cfg, err := Load("invalid/path/to/config.yml")

		assert.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, cfg)
	})

	t.Run("invalid config file", func(t *testing.T) {
		data := `http_server:
  port: not number
auth:
  google_client_id: test-client-id`

		f := createTempFile(t, []byte(data))
		cfg, err := Load(f.Name())

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("missing google client id", func(t *testing.T) {
		data := `http_server:
  port: 9090`

		f := createTempFile(t, []byte(data))
		cfg, err := Load(f.Name())

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("success", func(t *testing.T) {
		data := `base_url: https://url.example.work
http_server:
  port: 9090
redis:
  host: cache
  password: secret
auth:
  google_client_id: test-client-id`

		f := createTempFile(t, []byte(data))
		cfg, err := Load(f.Name())

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		var wantCfg Config
		setDefaults(&wantCfg)

		wantCfg.BaseURL = "https://url.example.work"
		wantCfg.HTTPServer.Port = 9090
		wantCfg.Redis.Host = "cache"
		wantCfg.Redis.Password = "secret"
		wantCfg.Auth.GoogleClientID = "test-client-id"

		assert.Equal(t, wantCfg, *cfg)
	})
}

func createTempFile(t testing.TB, data []byte) *os.File {
	t.Helper()

	f, err := os.CreateTemp("", "config.yml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() {
		f.Close()
		os.Remove(f.Name())
	})

	if _, err := f.Write(data); err != nil {
		t.Fatalf("Failed to write to file: %v", err)
	}

	return f
}

func TestHTTPServer_Addr(t *testing.T) {
	s := HTTPServer{Port: 8080}

	assert.Equal(t, ":8080", s.Addr())
}

func TestRedis_DSN(t *testing.T) {
	r := Redis{
		Host:     "localhost",
		Port:     6379,
		Password: "secret",
		DB:       1,
	}

	assert.Equal(t, "redis://:secret@localhost:6379/1", r.DSN())
}
