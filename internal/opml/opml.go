// Package opml decodes OPML feed lists into feed descriptors.
package opml

import (
	"encoding/xml"
	"fmt"
	"os"

	"DailyBriefing/internal/domain"
)

type outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	HTMLURL  string    `xml:"htmlUrl,attr"`
	Outlines []outline `xml:"outline"`
}

type document struct {
	XMLName xml.Name `xml:"opml"`
	Body    struct {
		Outlines []outline `xml:"outline"`
	} `xml:"body"`
}

// Parse decodes an OPML document and returns one descriptor per outline
// carrying an xmlUrl. Nested outlines (folder exports) are flattened.
// Outlines without a feed URL are skipped.
func Parse(data []byte) ([]domain.FeedDescriptor, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse opml: %w", err)
	}

	var feeds []domain.FeedDescriptor
	collect(doc.Body.Outlines, &feeds)
	return feeds, nil
}

// ParseFile reads and decodes the OPML file at path.
func ParseFile(path string) ([]domain.FeedDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opml %s: %w", path, err)
	}
	return Parse(data)
}

func collect(outlines []outline, feeds *[]domain.FeedDescriptor) {
	for _, o := range outlines {
		if o.XMLURL != "" {
			title := o.Title
			if title == "" {
				title = o.Text
			}
			*feeds = append(*feeds, domain.FeedDescriptor{
				Title:   title,
				XMLURL:  o.XMLURL,
				HTMLURL: o.HTMLURL,
			})
		}
		collect(o.Outlines, feeds)
	}
}
