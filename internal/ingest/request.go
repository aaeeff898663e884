package ingest

import (
	"context"
	"fmt"
	"net/http"
)

func httpRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: build request for %s: %w", url, err)
	}
	return req, nil
}
