package news

import "fmt"

type FetchError struct {
	Page       int
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page #%d (%s): HTTP %d", e.Page, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch page #%d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports markup that could not be turned into records. Item is
// the zero-based index of the offending news item, or -1 for the whole page.
type ParseError struct {
	Item  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Item < 0 {
		return fmt.Sprintf("parse page: %v", e.Err)
	}
	return fmt.Sprintf("parse item #%d: %s: %v", e.Item, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
