package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsDescribeSlotCatalog(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	require.Equal(t, []string{"12:00 PM", "12:15 PM", "12:30 PM", "12:45 PM"}, cfg.Scheduling.SlotCatalog)
	assert.Equal(t, 2, cfg.Scheduling.SlotCapacity)
	assert.Equal(t, 15, cfg.Scheduling.SlotLengthMinutes)
	assert.Contains(t, cfg.Scheduling.AcademicCategories, "senior-project")
	assert.Equal(t, int64(5*1024*1024), cfg.Attachments.MaxFileSizeBytes)
	assert.Equal(t, []string{"application/pdf", "image/png"}, cfg.Attachments.AllowedMIMEs)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.False(t, cfg.JWT.Required)
	assert.Equal(t, RateLimitConfig{PerMinute: 60, Burst: 20}, cfg.RateLimit)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SLOT_CAPACITY", 0)
	v.Set("SLOT_CATALOG", " 9:00 AM , ,9:15 AM")
	v.Set("JWT_EXPIRATION", "not-a-duration")
	cfg := fromViper(v)

	assert.Equal(t, 2, cfg.Scheduling.SlotCapacity)
	assert.Equal(t, []string{"9:00 AM", "9:15 AM"}, cfg.Scheduling.SlotCatalog)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, b ,"))
}
