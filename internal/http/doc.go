// Package http provides the HTTP client used to fetch archive images.
//
// This package handles:
//   - Connection pooling for parallel fetches
//   - A per-request timeout
//   - Status code classification into sentinel errors
//
// A fetch is deliberately single-shot: a missing image (404) usually means
// the hour has not been published yet, and the download engine treats
// every task as independent, so retry policy belongs to the caller rather
// than the transport.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	data, err := client.Get(ctx, url)
//	if errors.Is(err, http.ErrNotFound) {
//	    // not published yet
//	}
package http
