package models

import "time"

// Settings holds the per-user tunables read by the scheduler and the
// pitch detector. Owned by the storage layer; the engine never mutates it.
type Settings struct {
	UserID                 int       `json:"user_id"`
	Box0IntervalMs         int       `json:"box0_interval_ms"`
	Box1IntervalMs         int       `json:"box1_interval_ms"`
	Box2IntervalMs         int       `json:"box2_interval_ms"`
	Box3IntervalMs         int       `json:"box3_interval_ms"`
	Box4IntervalMs         int       `json:"box4_interval_ms"`
	EnableHarmonicRatio    bool      `json:"enable_harmonic_ratio"`
	HarmonicRatioThreshold float64   `json:"harmonic_ratio_threshold"` // 0..1
	TimeoutSeconds         int       `json:"timeout_seconds"`          // 0 = infinite
	SilentTimeout          bool      `json:"silent_timeout"`
	Locale                 string    `json:"locale"` // e.g. "nb", "en"
	UpdatedAt              time.Time `json:"updated_at"`
}

// GetDefaultSettings returns the default settings for a user.
func GetDefaultSettings(userID int) *Settings {
	return &Settings{
		UserID:                 userID,
		Box0IntervalMs:         5000,    // re-drill a missed fact almost immediately
		Box1IntervalMs:         25000,   // 25 seconds
		Box2IntervalMs:         120000,  // 2 minutes
		Box3IntervalMs:         600000,  // 10 minutes
		Box4IntervalMs:         3600000, // 1 hour
		EnableHarmonicRatio:    true,
		HarmonicRatioThreshold: 0.5,
		TimeoutSeconds:         0, // infinite
		SilentTimeout:          false,
		Locale:                 "nb",
		UpdatedAt:              time.Now(),
	}
}

// BoxIntervals returns the five review intervals indexed by box number.
func (s *Settings) BoxIntervals() [BoxCount]time.Duration {
	ms := time.Millisecond
	return [BoxCount]time.Duration{
		time.Duration(s.Box0IntervalMs) * ms,
		time.Duration(s.Box1IntervalMs) * ms,
		time.Duration(s.Box2IntervalMs) * ms,
		time.Duration(s.Box3IntervalMs) * ms,
		time.Duration(s.Box4IntervalMs) * ms,
	}
}
