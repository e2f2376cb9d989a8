package news

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Markup markers of the upstream listing pages.
const (
	itemSelector    = ".contextual-links-region"
	contentSelector = ".field-content"
	dateSelector    = ".views-field.views-field-created"
	tagsSelector    = ".field-content.newstype-field"

	// DD.MM.YYYY, single-digit day and month are accepted too
	dateLayout = "2.1.2006"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run extracts the news items of one listing page in document order. A
// missing tag block yields empty tags; any other missing or malformed field
// fails the whole page.
func (e *Extractor) Run(data []byte) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(decode(data))
	if err != nil {
		return nil, &ParseError{Item: -1, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	items := doc.Find(itemSelector)
	records := make([]Record, 0, items.Length())

	var extractErr error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		record, err := e.extractItem(i, item)
		if err != nil {
			extractErr = err
			return false
		}
		records = append(records, record)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	return records, nil
}

// decode converts the page to UTF-8. An undeclared encoding falls back to
// windows-1252 in charset detection, so valid UTF-8 is kept as is then.
func decode(data []byte) io.Reader {
	enc, name, _ := charset.DetermineEncoding(data, "")
	if name == "windows-1252" && utf8.Valid(data) {
		return bytes.NewReader(data)
	}

	return enc.NewDecoder().Reader(bytes.NewReader(data))
}

func (e *Extractor) extractItem(index int, item *goquery.Selection) (Record, error) {
	content := item.Find(contentSelector).First()
	if content.Length() == 0 {
		return Record{}, &ParseError{Item: index, Field: "title", Err: errors.New("field-content element not found")}
	}

	title := strings.TrimSpace(content.Text())
	if title == "" {
		return Record{}, &ParseError{Item: index, Field: "title", Err: errors.New("title is empty")}
	}

	anchor := content.Find("a").First()
	if anchor.Length() == 0 {
		return Record{}, &ParseError{Item: index, Field: "link", Err: errors.New("anchor not found")}
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return Record{}, &ParseError{Item: index, Field: "link", Err: errors.New("href attribute not found")}
	}

	dateCreated, err := e.extractDate(item)
	if err != nil {
		return Record{}, &ParseError{Item: index, Field: "date", Err: err}
	}

	return NewRecord(title, strings.TrimSpace(href), dateCreated, e.extractTags(item)), nil
}

func (e *Extractor) extractDate(item *goquery.Selection) (time.Time, error) {
	field := item.Find(dateSelector).First()
	if field.Length() == 0 {
		return time.Time{}, errors.New("date element not found")
	}

	value := strings.TrimSpace(field.Text())
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}

	return date, nil
}

func (e *Extractor) extractTags(item *goquery.Selection) []string {
	tags := []string{}

	item.Find(tagsSelector).First().Find("a").Each(func(_ int, a *goquery.Selection) {
		tags = append(tags, strings.TrimSpace(a.Text()))
	})

	return tags
}
