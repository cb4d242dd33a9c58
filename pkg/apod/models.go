package apod

import "time"

// Picture is what a single APOD page yields
type Picture struct {
	Date    time.Time `json:"date"`
	PageURL string    `json:"page_url"`
	// ImageURL is the fully qualified URL of the page's image
	ImageURL string `json:"image_url"`
	// HDImageURL is the link wrapping the image, usually the full-size version
	HDImageURL  string `json:"hd_image_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// BestURL returns the hi-res URL when requested and available
func (p *Picture) BestURL(preferHD bool) string {
	if preferHD && p.HDImageURL != "" {
		return p.HDImageURL
	}
	return p.ImageURL
}

// FetchOptions controls what FetchPicture extracts besides the image
type FetchOptions struct {
	Description bool
}
