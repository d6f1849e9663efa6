package leankit

import "context"

// SearchFetcher pages through one card search. It satisfies
// pagination.PageFetcher[Card].
type SearchFetcher struct {
	conn   *Connector
	params SearchParams
}

// SearchPages returns a fetcher for params; params.Page is ignored.
func (c *Connector) SearchPages(params SearchParams) *SearchFetcher {
	return &SearchFetcher{conn: c, params: params}
}

// FetchPage fetches the 1-based page and returns its cards and the
// server-reported total result count.
func (f *SearchFetcher) FetchPage(ctx context.Context, page int) ([]Card, int, error) {
	params := f.params
	params.Page = page

	result, err := f.conn.Search(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return result.Results, result.TotalResults, nil
}
