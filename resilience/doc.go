// Package resilience holds the fault-tolerance primitives the pipeline is
// built on. Retry bounds attempts with linear or exponential backoff.
// Bulkhead caps concurrent chunk dispatch. CircuitBreaker fails fast against
// an unhealthy transcription server, and RateLimiter paces remote API
// uploads.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4, MaxWait: resilience.WaitUntilDone})
//	text, err := resilience.ExecuteWithResult(bh, ctx, func() (string, error) {
//	    return resilience.Retry(ctx, resilience.RetryConfig{
//	        MaxAttempts:    3,
//	        InitialBackoff: time.Second,
//	        Strategy:       resilience.BackoffLinear,
//	    }, upload)
//	})
package resilience
