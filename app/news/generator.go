package news

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/database"
)

// Channel describes the republished feed.
type Channel struct {
	Title       string
	Link        string // upstream listing, also the base for relative item links
	Description string
	SelfLink    string
	Version     string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders imported records, newest first as given, as RSS 2.0.
func (g *Generator) Run(channel Channel, records []database.ImportedRecord) (string, error) {
	base, err := url.Parse(channel.Link)
	if err != nil {
		return "", fmt.Errorf("invalid channel link: %w", err)
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	description := channel.Description
	if description == "" {
		description = fmt.Sprintf("News imported from %s", channel.Link)
	}
	g.writeElement(&buf, "description", description, 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(records) > 0 && !records[0].CreatedAt.IsZero() {
		lastBuildDate = records[0].CreatedAt
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("newsfeed-import/%s", channel.Version), 4)

	for _, record := range records {
		g.writeItem(&buf, base, record)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, base *url.URL, record database.ImportedRecord) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(record.InitialTitle))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", record.Title, 6)

	if record.Link != "" {
		link := record.Link
		if ref, err := url.Parse(record.Link); err == nil {
			link = base.ResolveReference(ref).String()
		}
		g.writeElement(buf, "link", link, 6)
	}

	g.writeElement(buf, "pubDate", record.DateCreated.Format(time.RFC1123Z), 6)

	for _, tag := range record.Tags {
		g.writeElement(buf, "category", tag, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
