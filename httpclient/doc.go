// Package httpclient is the outbound HTTP client used to download episodes
// and talk to self-hosted transcription servers. It applies default headers,
// authentication, optional retry and an optional circuit breaker, and
// classifies failures into typed errors.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080",
//	    Timeout: 5 * time.Minute,
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("whisper-server"),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/transcribe",
//	    Body:   payload,
//	})
package httpclient
