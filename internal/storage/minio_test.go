package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func validStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		Enabled:   true,
		Endpoint:  "https://objects.example.com/",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "reports",
		Prefix:    "/forecast-reports/",
	}
}

func TestNewMinioClient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.StorageConfig)
		want   string
	}{
		{"missing endpoint", func(c *config.StorageConfig) { c.Endpoint = " " }, "endpoint"},
		{"missing secret", func(c *config.StorageConfig) { c.SecretKey = "" }, "credentials"},
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validStorageConfig()
			tt.mutate(&cfg)
			_, err := NewMinioClient(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewMinioClient_Defaults(t *testing.T) {
	c, err := NewMinioClient(validStorageConfig())
	require.NoError(t, err)
	assert.Equal(t, defaultRegion, c.region)
	assert.Equal(t, "forecast-reports/batch.xlsx", c.ObjectKey("batch.xlsx"))

	cfg := validStorageConfig()
	cfg.Prefix = ""
	c, err = NewMinioClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, "batch.xlsx", c.ObjectKey("batch.xlsx"))
}

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("http://localhost:9000", true)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("https://s3.example.com/", false)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("minio:9000", false)
	assert.Equal(t, "minio:9000", host)
	assert.False(t, secure)
}
