package apod

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors are the CSS selectors used to scrape a page
type Selectors struct {
	Image       string
	Description string
}

// Extraction is the raw result of scraping one page
type Extraction struct {
	// ImageSrc is the src attribute of the first image, empty if there is none
	ImageSrc string
	// LinkHref is the href of the anchor wrapping that image, if it links to an image file
	LinkHref    string
	Description string
}

// Found reports whether the page had a usable image
func (e *Extraction) Found() bool {
	return e.ImageSrc != ""
}

// Extract parses an HTML document and pulls out the image and, optionally,
// the description paragraph.
func Extract(r io.Reader, sel Selectors, withDescription bool) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &Extraction{}

	img := doc.Find(sel.Image).First()
	if img.Length() > 0 {
		if src, ok := img.Attr("src"); ok {
			result.ImageSrc = strings.TrimSpace(src)
		}
		if href, ok := img.Closest("a").Attr("href"); ok && isImageLink(href) {
			result.LinkHref = strings.TrimSpace(href)
		}
	}

	if withDescription {
		result.Description = collapseSpace(doc.Find(sel.Description).First().Text())
	}

	return result, nil
}

// collapseSpace joins whitespace runs, including the page's hard line breaks, into single spaces
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
