package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Cached public routes.  Room listings change only when an admin edits a
// room; the calendar changes on every booking, so it expires sooner.
const (
    RoomsRoute    = "/v1/rooms"
    CalendarRoute = "/v1/reservations/public"
)

// CacheConfig configures the Redis response cache in front of the room list
// and the public reservation calendar.  Writes to reservations, rooms or
// users purge every key under Prefix, so the TTLs only bound staleness
// when a purge fails.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration            // fallback for routes without their own TTL
    RouteTTL     map[string]time.Duration // keyed by echo route path
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// TTLFor returns the expiry for responses of route.
func (c CacheConfig) TTLFor(route string) time.Duration {
    if ttl, ok := c.RouteTTL[route]; ok && ttl > 0 {
        return ttl
    }
    if c.TTL > 0 {
        return c.TTL
    }
    return 15 * time.Second
}

// LoadCacheConfig reads CACHE_* variables.  CACHE_TTL_ROOMS and
// CACHE_TTL_CALENDAR override CACHE_TTL for their routes.
func LoadCacheConfig() CacheConfig {
    ttl := parseDur(getenv("CACHE_TTL", "15s"), 15*time.Second)
    return CacheConfig{
        Enabled: getenv("CACHE_ENABLED", "true") == "true",
        Methods: parseMethods(getenv("CACHE_METHODS", "GET")),
        TTL:     ttl,
        RouteTTL: map[string]time.Duration{
            RoomsRoute:    parseDur(getenv("CACHE_TTL_ROOMS", "5m"), ttl),
            CalendarRoute: parseDur(getenv("CACHE_TTL_CALENDAR", "10s"), ttl),
        },
        KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       getenv("CACHE_PREFIX", "mrr:cache"),
        MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
            m[p] = true
        }
    }
    return m
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

// parseDur returns def for malformed or non-positive durations.
func parseDur(s string, def time.Duration) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil || d <= 0 {
        return def
    }
    return d
}
