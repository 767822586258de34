package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validEnv = map[string]string{
	"APP_ENV":                "test",
	"APP_PORT":               "8080",
	"DB_USER":                "app",
	"DB_HOST":                "localhost",
	"DB_PORT":                "3306",
	"DB_NAME":                "rooms",
	"JWT_SECRET":             "secret",
	"ACCESS_TOKEN_TTL_MIN":   "15",
	"REFRESH_TOKEN_TTL_DAYS": "7",
	"BCRYPT_COST":            "10",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("valid config with defaults", func(t *testing.T) {
		setEnv(t, validEnv)
		t.Setenv("DB_PASS", "")
		t.Setenv("POLICY_PATH", "")
		t.Setenv("CONFLICT_CHECK_TIMEOUT", "")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 15, cfg.AccessTTLMin)
		assert.Equal(t, "./config/policy.toml", cfg.PolicyPath)
		assert.Equal(t, 3*time.Second, cfg.ConflictTimeout)
		assert.Empty(t, cfg.DBPass)
	})

	t.Run("overrides", func(t *testing.T) {
		setEnv(t, validEnv)
		t.Setenv("CONFLICT_CHECK_TIMEOUT", "750ms")
		t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")
		t.Setenv("DB_MIGRATE", "yes")
		t.Setenv("ADMIN_EMPLOYEE_IDS", " 1000001, ,1000002")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, 750*time.Millisecond, cfg.ConflictTimeout)
		assert.Equal(t, "amqp://u:p@mq:5672/", cfg.AMQPURL)
		assert.True(t, cfg.MigrateOnStart)
		assert.Equal(t, []string{"1000001", "1000002"}, cfg.AdminEmployees)
		assert.True(t, cfg.IsAdminEmployee("1000002"))
		assert.False(t, cfg.IsAdminEmployee("1000003"))
	})

	missing := []string{"APP_PORT", "DB_HOST", "JWT_SECRET", "BCRYPT_COST"}
	for _, key := range missing {
		t.Run("missing "+key, func(t *testing.T) {
			setEnv(t, validEnv)
			t.Setenv(key, "")
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing required env var: "+key)
		})
	}

	t.Run("reports every missing key", func(t *testing.T) {
		setEnv(t, validEnv)
		t.Setenv("DB_USER", "")
		t.Setenv("DB_NAME", "")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_USER")
		assert.Contains(t, err.Error(), "DB_NAME")
	})

	t.Run("non numeric ttl", func(t *testing.T) {
		setEnv(t, validEnv)
		t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid int for ACCESS_TOKEN_TTL_MIN: "soon"`)
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		setEnv(t, validEnv)
		t.Setenv("BCRYPT_COST", "2")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BCRYPT_COST")
	})
}

func TestLoadPolicy(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		p, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Equal(t, 10*time.Minute, p.CancelCutoff())
		assert.Zero(t, p.MaxDuration())
		assert.Equal(t, "08:00", p.Booking.Open)
		assert.Equal(t, "19:00", p.Booking.Close)
		assert.Empty(t, p.Rooms)
	})

	t.Run("repository sample", func(t *testing.T) {
		p, err := LoadPolicy("../../config/policy.toml")
		require.NoError(t, err)
		assert.Equal(t, 10*time.Minute, p.CancelCutoff())
		assert.Equal(t, 8*time.Hour, p.MaxDuration())
		assert.True(t, p.WithinHours("08:00", "19:00"))
		require.Len(t, p.Rooms, 3)
		assert.Equal(t, "Orion", p.Rooms[0].Name)
		assert.Equal(t, uint32(12), p.Rooms[0].Capacity)
		assert.Contains(t, p.Rooms[0].Amenities, "projector")
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := writeFile(t, "[booking]\nmax_duration_minutes = 60\n")
		p, err := LoadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Minute, p.CancelCutoff())
		assert.Equal(t, time.Hour, p.MaxDuration())
	})

	invalid := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"syntax", "[cancellation\n", "failed to load policy"},
		{"negative cutoff", "[cancellation]\ncutoff_minutes = -1\n", "cutoff_minutes"},
		{"room without name", "[[rooms]]\ncapacity = 3\n", "name is required"},
		{"room without capacity", "[[rooms]]\nname = \"A\"\n", "capacity must be positive"},
		{"unpadded open", "[booking]\nopen = \"8:00\"\n", "booking.open must be HH:MM"},
		{"close past midnight", "[booking]\nclose = \"24:00\"\n", "booking.close must be HH:MM"},
		{"open after close", "[booking]\nopen = \"19:00\"\nclose = \"08:00\"\n", "open must be before"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPolicy(writeFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithinHours(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		start, end string
		want       bool
	}{
		{"08:00", "19:00", true},
		{"07:59", "09:00", false},
		{"18:00", "19:01", false},
		{"03:00", "23:00", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.WithinHours(tt.start, tt.end), "%s-%s", tt.start, tt.end)
	}

	p.Booking.Open, p.Booking.Close = "", ""
	assert.True(t, p.WithinHours("00:00", "23:59"))
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rl := LoadRateLimitConfig("")
		assert.True(t, rl.Enabled)
		assert.Equal(t, 30, rl.Capacity)
		assert.Equal(t, "mrr:rl", rl.Prefix)
		assert.GreaterOrEqual(t, rl.TTL, 5*rl.RefillInterval)
	})

	t.Run("scoped falls back to unscoped enable flag", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_ENABLED", "false")
		t.Setenv("RATE_LIMIT_AUTH_CAPACITY", "3")
		rl := LoadRateLimitConfig("auth")
		assert.False(t, rl.Enabled)
		assert.Equal(t, 3, rl.Capacity)
		assert.Equal(t, "mrr:rl:auth", rl.Prefix)
		assert.Equal(t, "ip", rl.KeyStrategy)
	})

	t.Run("refill every", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_REFILL_TOKENS", "5")
		t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
		rl := LoadRateLimitConfig("")
		assert.Equal(t, 1, rl.RefillTokens)
		assert.Equal(t, 2*time.Second, rl.RefillInterval)
	})
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")
	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.False(t, c.Methods["POST"])
	assert.Equal(t, 15*time.Second, c.TTL)
	assert.Equal(t, "mrr:cache", c.Prefix)
	assert.Equal(t, 5*time.Minute, c.TTLFor(RoomsRoute))
	assert.Equal(t, 10*time.Second, c.TTLFor(CalendarRoute))
	assert.Equal(t, 15*time.Second, c.TTLFor("/v1/elsewhere"))

	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CACHE_TTL_CALENDAR", "-1s")
	t.Setenv("CACHE_TTL_ROOMS", "1m")
	c = LoadCacheConfig()
	assert.Equal(t, 30*time.Second, c.TTLFor(CalendarRoute))
	assert.Equal(t, time.Minute, c.TTLFor(RoomsRoute))
	assert.Equal(t, 15*time.Second, CacheConfig{}.TTLFor(RoomsRoute))
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "1")
	rc := LoadRedisConfig()
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.True(t, rc.TLS)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "redis:6379", LoadRedisConfig().Addr)
}
