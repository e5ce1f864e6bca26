// Package http provides a retrying HTTP client for fetching remote
// resources.
//
// This package handles:
//   - Connection pooling for parallel fetches
//   - HEAD requests for resource metadata
//   - GET requests for raw bodies and decoded JSON
//   - Retry with exponential backoff and jitter
//
// # Usage
//
//	client := http.NewClient(Options{
//	    Timeout:       30 * time.Second,
//	    RetryAttempts: 5,
//	})
//
//	// Fetch a raw body
//	body, err := client.Get(ctx, url)
//	defer body.Close()
//
//	// Fetch and decode JSON
//	var index []Entry
//	err = client.GetJSON(ctx, url, &index)
package http
