package domain

// UsageMetrics is the snapshot served on GET /v1/metrics/usage.
type UsageMetrics struct {
	TotalRequests     int64   `json:"total_requests"`
	ErrorRate         float64 `json:"error_rate"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	ExportsGenerated  int64   `json:"exports_generated"`
	BillingCyclesDone int64   `json:"billing_cycles_completed"`
	Period            string  `json:"period"`
}
