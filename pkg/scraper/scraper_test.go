package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"apodget/pkg/apod"
	"apodget/pkg/apoddate"
	"apodget/pkg/config"
	errs "apodget/pkg/errors"
	"apodget/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher answers FetchPicture from a script of results
type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	dates   []time.Time
	results []stubResult
	// fallback is returned once the script runs out
	fallback stubResult
}

type stubResult struct {
	picture *apod.Picture
	err     error
}

func (s *stubFetcher) FetchPicture(ctx context.Context, date time.Time, opts apod.FetchOptions) (*apod.Picture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dates = append(s.dates, date)
	i := s.calls
	s.calls++
	if i < len(s.results) {
		return s.results[i].picture, s.results[i].err
	}
	return s.fallback.picture, s.fallback.err
}

func noPicture() stubResult {
	return stubResult{err: errs.New(errs.ErrorTypeNoPicture, "video day")}
}

// fixedPicker always returns the same date
type fixedPicker struct {
	date  time.Time
	calls int
}

func (p *fixedPicker) Pick(lower time.Time) (time.Time, error) {
	p.calls++
	return p.date, nil
}

// stubDownloader records download requests
type stubDownloader struct {
	url, dir string
	err      error
}

func (d *stubDownloader) Download(ctx context.Context, url, dir string) (string, error) {
	d.url, d.dir = url, dir
	if d.err != nil {
		return "", d.err
	}
	return filepath.Join(dir, filepath.Base(url)), nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	return cfg
}

var sampleDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("today")
	require.NoError(t, err)
	assert.Equal(t, ModeToday, mode)

	mode, err = ParseMode(" Random ")
	require.NoError(t, err)
	assert.Equal(t, ModeRandom, mode)

	_, err = ParseMode("yesterday")
	assert.True(t, errs.Is(err, errs.ErrorTypeValidation))
	assert.Equal(t, errs.ExitInvalidArgs, errs.ExitCode(err))
}

func TestRandomFinderExhaustsAfterFiveAttempts(t *testing.T) {
	fetcher := &stubFetcher{fallback: noPicture()}
	picker := &fixedPicker{date: sampleDate}
	finder := NewRandomFinder(fetcher, picker, config.RandomConfig{MaxAttempts: 5}, logger.NewNopLogger())

	_, err := finder.Find(context.Background(), apoddate.FirstPublished, apod.FetchOptions{})
	require.Error(t, err)

	assert.True(t, errs.Is(err, errs.ErrorTypeRetryExhausted))
	assert.Equal(t, errs.ExitNoPicture, errs.ExitCode(err))
	assert.Equal(t, 5, fetcher.calls)
	assert.Equal(t, 5, picker.calls)
	assert.Equal(t, 5, finder.Attempts())
	assert.Equal(t, StateExhausted, finder.State())
}

func TestRandomFinderSucceedsOnThirdAttempt(t *testing.T) {
	want := &apod.Picture{ImageURL: "http://apod.nasa.gov/apod/image/2401/third.jpg"}
	fetcher := &stubFetcher{results: []stubResult{
		noPicture(),
		noPicture(),
		{picture: want},
		{picture: &apod.Picture{ImageURL: "never"}},
	}}
	finder := NewRandomFinder(fetcher, &fixedPicker{date: sampleDate}, config.RandomConfig{MaxAttempts: 5}, logger.NewNopLogger())

	got, err := finder.Find(context.Background(), apoddate.FirstPublished, apod.FetchOptions{})
	require.NoError(t, err)

	assert.Same(t, want, got)
	assert.Equal(t, 3, fetcher.calls)
	assert.Equal(t, StateSucceeded, finder.State())
}

func TestRandomFinderFetchErrorIsFatal(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{
		noPicture(),
		{err: &errs.Error{Type: errs.ErrorTypeFetch, Message: "boom", Code: 500}},
	}, fallback: noPicture()}
	finder := NewRandomFinder(fetcher, &fixedPicker{date: sampleDate}, config.RandomConfig{MaxAttempts: 5}, logger.NewNopLogger())

	_, err := finder.Find(context.Background(), apoddate.FirstPublished, apod.FetchOptions{})
	require.Error(t, err)

	assert.True(t, errs.Is(err, errs.ErrorTypeFetch))
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, StateFailed, finder.State())
}

func TestRandomFinderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{fallback: noPicture()}
	finder := NewRandomFinder(fetcher, &fixedPicker{date: sampleDate}, config.RandomConfig{MaxAttempts: 5}, logger.NewNopLogger())

	_, err := finder.Find(ctx, apoddate.FirstPublished, apod.FetchOptions{})
	require.Error(t, err)

	assert.True(t, errs.Is(err, errs.ErrorTypeFetch))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, errs.ExitTransportError, errs.ExitCode(err))
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, StateFailed, finder.State())
}

func TestRandomFinderDeadlineDuringDelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetcher := &stubFetcher{fallback: noPicture()}
	cfg := config.RandomConfig{MaxAttempts: 5, RetryDelay: time.Second}
	finder := NewRandomFinder(fetcher, &fixedPicker{date: sampleDate}, cfg, logger.NewNopLogger())

	_, err := finder.Find(ctx, apoddate.FirstPublished, apod.FetchOptions{})
	require.Error(t, err)

	assert.True(t, errs.Is(err, errs.ErrorTypeFetch))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, fetcher.calls)
}

func TestRandomFinderSamplesWithinRange(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	lower := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	picker := apoddate.NewPicker(42)
	picker.Clock = func() time.Time { return now }

	fetcher := &stubFetcher{fallback: noPicture()}
	finder := NewRandomFinder(fetcher, picker, config.RandomConfig{MaxAttempts: 5}, logger.NewNopLogger())

	_, err := finder.Find(context.Background(), lower, apod.FetchOptions{})
	require.Error(t, err)

	require.Len(t, fetcher.dates, 5)
	for _, d := range fetcher.dates {
		assert.False(t, d.Before(lower), "sampled %s before lower bound", d)
		assert.False(t, d.After(now), "sampled %s after now", d)
	}
}

func TestRandomFinderRejectsFutureLowerBound(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	picker := apoddate.NewPicker(1)
	picker.Clock = func() time.Time { return now }

	fetcher := &stubFetcher{}
	finder := NewRandomFinder(fetcher, picker, config.RandomConfig{}, logger.NewNopLogger())

	_, err := finder.Find(context.Background(), now.AddDate(0, 0, 1), apod.FetchOptions{})
	assert.True(t, errs.Is(err, errs.ErrorTypeValidation))
	assert.Equal(t, 0, fetcher.calls)
}

func TestRunTodayMode(t *testing.T) {
	picture := &apod.Picture{
		ImageURL:   "http://apod.nasa.gov/apod/image/2401/pic.jpg",
		HDImageURL: "http://apod.nasa.gov/apod/image/2401/pic_big.jpg",
	}

	t.Run("prints the image URL", func(t *testing.T) {
		fetcher := &stubFetcher{results: []stubResult{{picture: picture}}}
		s := NewWithDependencies(testConfig(), fetcher, &stubDownloader{}, nil, logger.NewNopLogger())

		result, err := s.Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate})
		require.NoError(t, err)

		assert.Equal(t, picture.ImageURL, result.Line())
		assert.Equal(t, 1, result.Attempts)
		assert.Equal(t, []time.Time{sampleDate}, fetcher.dates)
	})

	t.Run("hd url", func(t *testing.T) {
		fetcher := &stubFetcher{results: []stubResult{{picture: picture}}}
		s := NewWithDependencies(testConfig(), fetcher, &stubDownloader{}, nil, logger.NewNopLogger())

		result, err := s.Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate, HD: true})
		require.NoError(t, err)
		assert.Equal(t, picture.HDImageURL, result.URL)
	})

	t.Run("no picture is terminal", func(t *testing.T) {
		fetcher := &stubFetcher{fallback: noPicture()}
		s := NewWithDependencies(testConfig(), fetcher, &stubDownloader{}, nil, logger.NewNopLogger())

		_, err := s.Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate})
		assert.True(t, errs.Is(err, errs.ErrorTypeNoPicture))
		assert.Equal(t, errs.ExitNoPicture, errs.ExitCode(err))
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("download", func(t *testing.T) {
		fetcher := &stubFetcher{results: []stubResult{{picture: picture}}}
		dl := &stubDownloader{}
		s := NewWithDependencies(testConfig(), fetcher, dl, nil, logger.NewNopLogger())

		result, err := s.Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate, DownloadDir: "/tmp/out"})
		require.NoError(t, err)

		assert.Equal(t, picture.ImageURL, dl.url)
		assert.Equal(t, "/tmp/out", dl.dir)
		assert.Equal(t, filepath.Join("/tmp/out", "pic.jpg"), result.Line())
	})

	t.Run("download failure", func(t *testing.T) {
		fetcher := &stubFetcher{results: []stubResult{{picture: picture}}}
		dl := &stubDownloader{err: errs.New(errs.ErrorTypeDownload, "disk full")}
		s := NewWithDependencies(testConfig(), fetcher, dl, nil, logger.NewNopLogger())

		_, err := s.Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate, DownloadDir: "/tmp/out"})
		assert.Equal(t, errs.ExitTransportError, errs.ExitCode(err))
	})
}

func TestRunValidatesBeforeNetwork(t *testing.T) {
	fetcher := &stubFetcher{}
	s := NewWithDependencies(testConfig(), fetcher, &stubDownloader{}, nil, logger.NewNopLogger())

	_, err := s.Run(context.Background(), Request{Mode: "sometimes", Date: sampleDate})
	assert.True(t, errs.Is(err, errs.ErrorTypeValidation))

	_, err = s.Run(context.Background(), Request{Mode: ModeToday})
	assert.True(t, errs.Is(err, errs.ErrorTypeValidation))

	assert.Equal(t, 0, fetcher.calls)
}

const stubPage = `<html><body>
<center><p><img src="image/2401/pic.jpg"></p></center>
<center><b>Title</b></center>
<p><b>Explanation:</b> A picture.</p>
</body></html>`

const stubVideoPage = `<html><body><center><iframe src="https://youtube.com/embed/x"></iframe></center></body></html>`

func TestScraperEndToEnd(t *testing.T) {
	var pageCalls, imageCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/apod/ap240101.html":
			atomic.AddInt32(&pageCalls, 1)
			_, _ = io.WriteString(w, stubPage)
		case "/apod/image/2401/pic.jpg":
			atomic.AddInt32(&imageCalls, 1)
			_, _ = io.WriteString(w, "jpegdata")
		default:
			atomic.AddInt32(&pageCalls, 1)
			_, _ = io.WriteString(w, stubVideoPage)
		}
	}))
	defer server.Close()

	t.Run("today prints url", func(t *testing.T) {
		cfg := testConfig()
		cfg.APOD.PageURLTemplate = server.URL + "/apod/ap{{DATE}}.html"

		result, err := New(cfg, logger.NewNopLogger()).Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate})
		require.NoError(t, err)
		assert.Equal(t, "http://apod.nasa.gov/apod/image/2401/pic.jpg", result.Line())
	})

	t.Run("today downloads", func(t *testing.T) {
		cfg := testConfig()
		cfg.APOD.PageURLTemplate = server.URL + "/apod/ap{{DATE}}.html"
		cfg.APOD.ImageBaseURL = server.URL + "/apod/"
		dir := t.TempDir()

		s := New(cfg, logger.NewNopLogger())
		var written int64
		s.SetProgress(func(n, total int64) { written = n })

		result, err := s.Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate, DownloadDir: dir})
		require.NoError(t, err)

		want := filepath.Join(dir, "pic.jpg")
		assert.Equal(t, want, result.Line())
		content, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.Equal(t, "jpegdata", string(content))
		assert.Equal(t, int64(len("jpegdata")), written)

		// second run finds the file and skips the image request
		before := atomic.LoadInt32(&imageCalls)
		result, err = s.Run(context.Background(), Request{Mode: ModeToday, Date: sampleDate, DownloadDir: dir})
		require.NoError(t, err)
		assert.Equal(t, want, result.Path)
		assert.Equal(t, before, atomic.LoadInt32(&imageCalls))
	})

	t.Run("random follows the injected clock", func(t *testing.T) {
		cfg := testConfig()
		cfg.APOD.PageURLTemplate = server.URL + "/apod/ap{{DATE}}.html"

		s := New(cfg, logger.NewNopLogger())
		s.SetClock(func() time.Time { return sampleDate.Add(6 * time.Hour) })

		result, err := s.Run(context.Background(), Request{Mode: ModeRandom, Date: sampleDate})
		require.NoError(t, err)
		assert.Equal(t, "http://apod.nasa.gov/apod/image/2401/pic.jpg", result.Line())
		assert.Equal(t, 1, result.Attempts)
	})

	t.Run("random never finds a picture", func(t *testing.T) {
		cfg := testConfig()
		cfg.APOD.PageURLTemplate = server.URL + "/video/ap{{DATE}}.html"
		atomic.StoreInt32(&pageCalls, 0)

		lower := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.Local)
		_, err := New(cfg, logger.NewNopLogger()).Run(context.Background(), Request{Mode: ModeRandom, Date: lower})
		require.Error(t, err)

		assert.True(t, errs.Is(err, errs.ErrorTypeRetryExhausted))
		assert.NotEqual(t, errs.ExitOK, errs.ExitCode(err))
		assert.Equal(t, int32(config.DefaultMaxAttempts), atomic.LoadInt32(&pageCalls))
	})
}
