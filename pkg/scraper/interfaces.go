package scraper

import (
	"context"
	"time"

	"apodget/pkg/apod"
)

// PictureFetcher retrieves the picture published on a date
type PictureFetcher interface {
	FetchPicture(ctx context.Context, date time.Time, opts apod.FetchOptions) (*apod.Picture, error)
}

// ImageDownloader saves an image into a directory and returns its path
type ImageDownloader interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// DatePicker samples a date between lower and now
type DatePicker interface {
	Pick(lower time.Time) (time.Time, error)
}
