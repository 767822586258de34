package config

import (
    "errors"
    "fmt"
    "os"
    "time"

    "github.com/BurntSushi/toml"
)

const clockLayout = "15:04"

// Policy holds booking rules operators can change without redeploying.
// Source: TOML file at POLICY_PATH.
type Policy struct {
    Cancellation CancellationPolicy `toml:"cancellation"`
    Booking      BookingPolicy      `toml:"booking"`
    Rooms        []RoomSeed         `toml:"rooms"`
}

type CancellationPolicy struct {
    // CutoffMinutes blocks non-admin cancellation this close to the start.
    CutoffMinutes int `toml:"cutoff_minutes"`
}

type BookingPolicy struct {
    MaxDurationMinutes int `toml:"max_duration_minutes"` // 0 means unlimited
    // Open and Close bound every reservation in local "HH:MM" clock time.
    Open  string `toml:"open"`
    Close string `toml:"close"`
}

// RoomSeed is a room created at startup when no room with that name exists.
type RoomSeed struct {
    Name        string   `toml:"name"`
    Description string   `toml:"description"`
    Capacity    uint32   `toml:"capacity"`
    Location    string   `toml:"location"`
    Amenities   []string `toml:"amenities"`
}

// DefaultPolicy is used when no policy file exists.
func DefaultPolicy() Policy {
    return Policy{
        Cancellation: CancellationPolicy{CutoffMinutes: 10},
        Booking:      BookingPolicy{Open: "08:00", Close: "19:00"},
    }
}

// CancelCutoff returns the cancellation cutoff as a duration.
func (p Policy) CancelCutoff() time.Duration {
    return time.Duration(p.Cancellation.CutoffMinutes) * time.Minute
}

// MaxDuration returns the longest bookable interval, or 0 for no limit.
func (p Policy) MaxDuration() time.Duration {
    return time.Duration(p.Booking.MaxDurationMinutes) * time.Minute
}

// WithinHours reports whether the local clocks start and end fall inside the
// booking hours.  Clocks are zero-padded "HH:MM", so they compare as strings.
// Empty Open or Close leaves that side unbounded.
func (p Policy) WithinHours(start, end string) bool {
    if p.Booking.Open != "" && start < p.Booking.Open {
        return false
    }
    if p.Booking.Close != "" && end > p.Booking.Close {
        return false
    }
    return true
}

// LoadPolicy decodes the policy file at path.  A missing file yields
// DefaultPolicy; keys absent from the file keep their defaults.
func LoadPolicy(path string) (Policy, error) {
    p := DefaultPolicy()
    if _, err := toml.DecodeFile(path, &p); err != nil {
        if errors.Is(err, os.ErrNotExist) {
            return DefaultPolicy(), nil
        }
        return Policy{}, fmt.Errorf("failed to load policy: %w", err)
    }
    if err := p.Validate(); err != nil {
        return Policy{}, err
    }
    return p, nil
}

// Validate rejects negative limits and incomplete room seeds.
func (p Policy) Validate() error {
    if p.Cancellation.CutoffMinutes < 0 {
        return fmt.Errorf("cancellation.cutoff_minutes must not be negative")
    }
    if p.Booking.MaxDurationMinutes < 0 {
        return fmt.Errorf("booking.max_duration_minutes must not be negative")
    }
    for key, v := range map[string]string{"open": p.Booking.Open, "close": p.Booking.Close} {
        if v == "" {
            continue
        }
        if _, err := time.Parse(clockLayout, v); err != nil || len(v) != len(clockLayout) {
            return fmt.Errorf("booking.%s must be HH:MM, got %q", key, v)
        }
    }
    if p.Booking.Open != "" && p.Booking.Close != "" && p.Booking.Open >= p.Booking.Close {
        return fmt.Errorf("booking.open must be before booking.close")
    }
    for i, r := range p.Rooms {
        if r.Name == "" {
            return fmt.Errorf("rooms[%d]: name is required", i)
        }
        if r.Capacity == 0 {
            return fmt.Errorf("rooms[%d] %q: capacity must be positive", i, r.Name)
        }
    }
    return nil
}
