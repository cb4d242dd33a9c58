package scraper

import (
	"context"
	"strings"
	"time"

	"apodget/internal/downloader"
	"apodget/pkg/apod"
	"apodget/pkg/apoddate"
	"apodget/pkg/config"
	errs "apodget/pkg/errors"
	"apodget/pkg/logger"
)

// Mode selects how the date is chosen
type Mode string

const (
	// ModeToday fetches exactly the requested date
	ModeToday Mode = "today"
	// ModeRandom samples dates between the requested date and now
	ModeRandom Mode = "random"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeToday:
		return ModeToday, nil
	case ModeRandom:
		return ModeRandom, nil
	default:
		return "", errs.Newf(errs.ErrorTypeValidation, "unknown type %q (expected random or today)", s)
	}
}

// Request describes a single run
type Request struct {
	Mode Mode
	// Date is the page to fetch in today mode and the earliest date in random mode
	Date time.Time
	// DownloadDir enables download mode when set
	DownloadDir string
	Description bool
	HD          bool
}

// Result is the outcome of a successful run
type Result struct {
	Picture *apod.Picture
	// URL is the image URL that was printed or downloaded
	URL string
	// Path is the saved file, empty unless downloading
	Path     string
	Attempts int
}

// Line returns what the command prints for this result
func (r *Result) Line() string {
	if r.Path != "" {
		return r.Path
	}
	return r.URL
}

// Scraper finds an APOD picture and optionally downloads it
type Scraper struct {
	client     PictureFetcher
	downloader ImageDownloader
	picker     DatePicker
	config     *config.Config
	logger     logger.Logger
}

// New creates a Scraper wired to the live site described by cfg
func New(cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	client := apod.NewClient(cfg.APOD, cfg.HTTP.Timeout, log)

	return &Scraper{
		client:     client,
		downloader: downloader.New(client, cfg.Output.FallbackFilename, log),
		picker:     apoddate.NewPicker(time.Now().UnixNano()),
		config:     cfg,
		logger:     log,
	}
}

// NewWithDependencies creates a Scraper from explicit parts
func NewWithDependencies(cfg *config.Config, client PictureFetcher, dl ImageDownloader, picker DatePicker, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:     client,
		downloader: dl,
		picker:     picker,
		config:     cfg,
		logger:     log,
	}
}

// SetProgress forwards download progress to fn when the downloader supports it
func (s *Scraper) SetProgress(fn downloader.ProgressFunc) {
	if d, ok := s.downloader.(interface{ SetProgress(downloader.ProgressFunc) }); ok {
		d.SetProgress(fn)
	}
}

// SetClock sets the upper bound of random sampling when the picker supports it
func (s *Scraper) SetClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	if p, ok := s.picker.(*apoddate.Picker); ok {
		p.Clock = clock
	}
}

// Run executes a request
func (s *Scraper) Run(ctx context.Context, req Request) (*Result, error) {
	if _, err := ParseMode(string(req.Mode)); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, errs.New(errs.ErrorTypeValidation, "no date given")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"mode": string(req.Mode),
		"date": apoddate.Format(req.Date),
	})
	log.Debug("Starting lookup")

	opts := apod.FetchOptions{Description: req.Description}
	result := &Result{}

	switch req.Mode {
	case ModeRandom:
		finder := NewRandomFinder(s.client, s.picker, s.config.Random, s.logger)
		picture, err := finder.Find(ctx, req.Date, opts)
		result.Attempts = finder.Attempts()
		if err != nil {
			return nil, err
		}
		result.Picture = picture
	default:
		picture, err := s.client.FetchPicture(ctx, req.Date, opts)
		result.Attempts = 1
		if err != nil {
			return nil, err
		}
		result.Picture = picture
	}

	result.URL = result.Picture.BestURL(req.HD || s.config.Output.PreferHD)

	if req.DownloadDir != "" {
		if s.downloader == nil {
			return nil, errs.New(errs.ErrorTypeDownload, "no downloader configured")
		}
		path, err := s.downloader.Download(ctx, result.URL, req.DownloadDir)
		if err != nil {
			return nil, err
		}
		result.Path = path
	}

	log.DebugWithFields("Lookup finished", map[string]interface{}{
		"url":      result.URL,
		"path":     result.Path,
		"attempts": result.Attempts,
	})

	return result, nil
}
