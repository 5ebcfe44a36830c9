package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"APP_NAME":           "resume-match",
		"APP_ENV":            "development",
		"HTTP_PORT":          "8080",
		"JWT_ACCESS_SECRET":  "access",
		"JWT_REFRESH_SECRET": "refresh",
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "resume-match", cfg.App.AppName)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, int64(8*1024*1024), cfg.Match.MaxUploadBytes)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiresIn)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 1, cfg.Rasterizer.FirstPage)
	assert.Equal(t, 1, cfg.Rasterizer.LastPage)
	assert.Equal(t, "resume_match.events", cfg.AMQP.Exchange)
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	vars := baseEnv()
	delete(vars, "HTTP_PORT")
	delete(vars, "JWT_ACCESS_SECRET")

	_, err := LoadFrom(vars)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingRequiredEnv))
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestLoadFrom_Overrides(t *testing.T) {
	vars := baseEnv()
	vars["STORAGE_DRIVER"] = "S3"
	vars["STORAGE_S3_BUCKET"] = "resumes"
	vars["RASTERIZER_BINARY"] = "/opt/poppler/bin/pdftoppm"
	vars["MATCH_RENDER_PREVIEW_ON_SUBMIT"] = "true"
	vars["DB_POOL_MAX_CONNS"] = "25"

	cfg, err := LoadFrom(vars)
	require.NoError(t, err)
	assert.Equal(t, StorageDriverS3, cfg.Storage.Driver)
	assert.Equal(t, "resumes", cfg.Storage.S3Bucket)
	assert.Equal(t, "/opt/poppler/bin/pdftoppm", cfg.Rasterizer.Binary)
	assert.True(t, cfg.Match.RenderPreviewOnSubmit)
	assert.Equal(t, int32(25), cfg.Database.PoolMaxConns)
}

func TestLoadFrom_S3RequiresBucket(t *testing.T) {
	vars := baseEnv()
	vars["STORAGE_DRIVER"] = "s3"

	_, err := LoadFrom(vars)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingRequiredEnv))
}

func TestLoadFrom_UnknownStorageDriver(t *testing.T) {
	vars := baseEnv()
	vars["STORAGE_DRIVER"] = "ftp"

	_, err := LoadFrom(vars)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}
