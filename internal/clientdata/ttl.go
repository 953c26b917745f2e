package clientdata

import "time"

// TTL constants for cached market data.
// These are added to time.Now() when storing to calculate expires_at.
// Expired rows are still served as a stale fallback when fetches fail;
// they are only removed by the daily cleanup job after the grace period.
const (
	TTLCurrentPrice     = 10 * time.Minute   // Current price cache for batch refreshes
	TTLHistoricalSeries = 12 * time.Hour     // Daily closes only change after market close
	ExpiredGracePeriod  = 30 * 24 * time.Hour // How long expired rows are kept for stale fallback
)
