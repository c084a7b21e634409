package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpidash/internal/session"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", "", nil, false, nil)
	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Minute)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	dir := t.TempDir()
	sample := filepath.Join(dir, "sample.xlsx")
	store := session.NewMemoryStore(time.Hour)
	store.Create("en")

	t.Run("sample missing and sheets disabled", func(t *testing.T) {
		hs := NewHealthService("dev", sample, store, false, nil)
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, "unavailable", status.Services["sample"].(ServiceHealth).Status)
		assert.Equal(t, "disabled", status.Services["sheets"].(ServiceHealth).Status)
		assert.Equal(t, "1 active", status.Services["sessions"].(ServiceHealth).Message)
	})

	t.Run("all sources ready", func(t *testing.T) {
		require.NoError(t, os.WriteFile(sample, []byte("x"), 0644))
		hs := NewHealthService("dev", sample, nil, true, nil)
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Services["sample"].(ServiceHealth).Status)
		assert.Equal(t, "ready", status.Services["sheets"].(ServiceHealth).Status)
		assert.NotContains(t, status.Services, "sessions")
	})
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("dev", "", nil, false, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "dev", v["version"])
	assert.Contains(t, v, "go_version")
}
