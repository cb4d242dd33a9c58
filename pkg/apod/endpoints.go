package apod

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"apodget/pkg/apoddate"
	"apodget/pkg/config"
)

// PageURL substitutes the compact date into the page template
func PageURL(template string, date time.Time) string {
	return strings.ReplaceAll(template, config.DatePlaceholder, apoddate.Format(date))
}

// ResolveImageURL turns an img src into an absolute URL against base.
// A relative src such as "image/2401/pic.jpg" is appended to the base path;
// an absolute src is returned unchanged.
func ResolveImageURL(base, src string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid image base URL %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return "", fmt.Errorf("invalid image src %q: %w", src, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// imageExtensions are the link targets treated as a full-size image
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".tif", ".tiff"}

// isImageLink reports whether href points at an image file
func isImageLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
