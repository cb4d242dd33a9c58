package downloader

import (
	"context"
	"io"
	"time"

	"apodget/pkg/logger"
	"apodget/pkg/storage"
)

// ImageOpener starts streaming an image
type ImageOpener interface {
	OpenImage(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// ProgressFunc receives the bytes written so far and the expected total (-1 if unknown)
type ProgressFunc func(written, total int64)

// DownloadJob represents a single download task
type DownloadJob struct {
	URL string
	Dir string
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	Path     string
	Skipped  bool
	Size     int64
	Duration time.Duration
	Error    error
}

// Downloader saves images into a local directory
type Downloader struct {
	client   ImageOpener
	fallback string
	progress ProgressFunc
	logger   logger.Logger
}

// New creates a downloader. fallback names the file when the URL has no usable last segment.
func New(client ImageOpener, fallback string, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		client:   client,
		fallback: fallback,
		logger:   log,
	}
}

// SetProgress installs a callback invoked as data is written
func (d *Downloader) SetProgress(fn ProgressFunc) {
	d.progress = fn
}

// Download saves url into dir and returns the file path.
// An existing file with the same name is kept and no request is made.
func (d *Downloader) Download(ctx context.Context, url, dir string) (string, error) {
	result := d.Run(ctx, DownloadJob{URL: url, Dir: dir})
	return result.Path, result.Error
}

// Run performs a download job
func (d *Downloader) Run(ctx context.Context, job DownloadJob) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}

	manager, err := storage.NewManager(job.Dir)
	if err != nil {
		result.Error = err
		return result
	}

	name := storage.FileNameFromURL(job.URL, d.fallback)
	result.Path = manager.Path(name)

	if manager.Exists(name) {
		result.Skipped = true
		logger.LogDownload(d.logger, job.URL, result.Path, true, nil)
		return result
	}

	body, total, err := d.client.OpenImage(ctx, job.URL)
	if err != nil {
		logger.LogDownload(d.logger, job.URL, result.Path, false, err)
		result.Error = err
		return result
	}
	defer body.Close()

	counter := &countingReader{r: body, total: total, progress: d.progress}
	if _, err := manager.Save(counter, name); err != nil {
		logger.LogDownload(d.logger, job.URL, result.Path, false, err)
		result.Error = err
		return result
	}

	result.Size = counter.written
	result.Duration = time.Since(start)

	d.logger.DebugWithFields("Image saved", map[string]interface{}{
		"dir":      manager.GetOutputDir(),
		"path":     result.Path,
		"bytes":    result.Size,
		"duration": result.Duration,
	})
	logger.LogDownload(d.logger, job.URL, result.Path, false, nil)

	return result
}

// countingReader reports progress as the body is consumed
type countingReader struct {
	r        io.Reader
	written  int64
	total    int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.written += int64(n)
		if c.progress != nil {
			c.progress(c.written, c.total)
		}
	}
	return n, err
}
