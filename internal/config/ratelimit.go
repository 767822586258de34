package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig drives one Redis token bucket.  The server runs two: the
// default bucket in front of reservation writes and a stricter "auth" bucket
// in front of sign-in and token refresh.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  A non-empty scope
// first looks for RATE_LIMIT_<SCOPE>_* and falls back to the unscoped key.
func LoadRateLimitConfig(scope string) RateLimitConfig {
    e := scoped(strings.ToUpper(scope))
    capacity, prefix, strategy := 30, "mrr:rl", "ip_user"
    if scope != "" {
        capacity, prefix, strategy = 10, "mrr:rl:"+strings.ToLower(scope), "ip"
    }
    def := RateLimitConfig{
        Enabled:        envBool(e("ENABLED"), envBool("RATE_LIMIT_ENABLED", true)),
        Capacity:       envInt(e("CAPACITY"), capacity),
        RefillTokens:   envInt(e("REFILL_TOKENS"), 1),
        RefillInterval: envDur(e("REFILL_INTERVAL"), time.Second),
        TTL:            envDur(e("TTL"), 10*time.Minute),
        KeyStrategy:    envStr(e("KEY_STRATEGY"), strategy),
        Prefix:         envStr(e("PREFIX"), prefix),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if every := envDur(e("REFILL_EVERY"), 0); every > 0 {
        def.RefillTokens = 1
        def.RefillInterval = every
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

func scoped(scope string) func(string) string {
    return func(key string) string {
        if scope == "" {
            return "RATE_LIMIT_" + key
        }
        return "RATE_LIMIT_" + scope + "_" + key
    }
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch strings.ToLower(v) {
    case "1", "true", "yes", "on": return true
    case "0", "false", "no", "off": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
