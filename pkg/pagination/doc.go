// Package pagination collects every item of a paginated search.
//
// The server reports the total number of results on the first page. The
// collector requests pages 1, 2, 3, ... one at a time, subtracting each
// page's size from that total, and stops once nothing remains:
//
//	fetcher := conn.SearchPages(params)
//	collector := pagination.NewCollector[leankit.Card](fetcher, pagination.DefaultConfig(), logger)
//	cards, err := collector.CollectAll(ctx)
//
// A server whose total never reaches zero would keep the loop running, so
// the collector stops with ErrStalled when a page comes back empty while
// results are still outstanding, and with ErrPageLimit after MaxPages pages.
package pagination
