package news

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

type Fetcher struct {
	config     FetcherConfig
	httpClient *http.Client
}

func NewFetcher(config FetcherConfig) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // upstream certificate is not trusted
	}

	return &Fetcher{
		config:     config,
		httpClient: &http.Client{Transport: transport},
	}
}

// PageURL returns the listing URL of the zero-based page index.
func (f *Fetcher) PageURL(page int) (string, error) {
	u, err := url.Parse(f.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	query := u.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// Run downloads one listing page. There is no retry: every failure is
// reported as a *FetchError.
func (f *Fetcher) Run(ctx context.Context, page int) ([]byte, error) {
	pageURL, err := f.PageURL(page)
	if err != nil {
		return nil, &FetchError{Page: page, URL: f.config.BaseURL, Err: err}
	}

	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{Page: page, URL: pageURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Page: page, URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Page: page, URL: pageURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Page: page, URL: pageURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}
