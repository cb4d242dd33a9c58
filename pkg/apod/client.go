package apod

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"apodget/pkg/config"
	errs "apodget/pkg/errors"
	"apodget/pkg/logger"
)

// Client fetches APOD pages and images
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	site       config.APODConfig
	logger     logger.Logger
}

// NewClient creates a new APOD client. timeout bounds every single request.
func NewClient(site config.APODConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,image/*;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if site.UserAgent != "" {
		headers["User-Agent"] = site.UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: headers,
		site:    site,
		logger:  log,
	}
}

// SetHTTPClient replaces the underlying HTTP client, keeping the timeout if the new one has none
func (c *Client) SetHTTPClient(h *http.Client) {
	if h.Timeout == 0 {
		h.Timeout = c.httpClient.Timeout
	}
	c.httpClient = h
}

// doRequest performs a GET with the configured headers
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, err
	}

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus converts a non-2xx response into a typed error
func checkResponseStatus(resp *http.Response, errorType errs.ErrorType) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &errs.Error{
		Type:    errorType,
		Message: fmt.Sprintf("unexpected status %s from %s", resp.Status, resp.Request.URL),
		Code:    resp.StatusCode,
	}
}

// FetchPicture retrieves the page for date and extracts its picture.
//
// A transport failure or non-2xx status yields a fetch error. A page without
// an image (a video day, for instance) yields a no_picture error.
func (c *Client) FetchPicture(ctx context.Context, date time.Time, opts FetchOptions) (*Picture, error) {
	pageURL := PageURL(c.site.PageURLTemplate, date)
	log := c.logger.WithField("page", pageURL)

	resp, err := c.doRequest(ctx, pageURL)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeFetch,
			Message: "failed to fetch " + pageURL,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if err := checkResponseStatus(resp, errs.ErrorTypeFetch); err != nil {
		return nil, err
	}

	extraction, err := Extract(resp.Body, Selectors{
		Image:       c.site.ImageSelector,
		Description: c.site.DescriptionSelector,
	}, opts.Description)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFetch, err, "failed to read "+pageURL)
	}

	if !extraction.Found() {
		log.Debug("No image on page")
		return nil, errs.Newf(errs.ErrorTypeNoPicture, "no image found on %s", pageURL)
	}

	imageURL, err := ResolveImageURL(c.site.ImageBaseURL, extraction.ImageSrc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNoPicture, err, "unusable image on "+pageURL)
	}

	picture := &Picture{
		Date:        date,
		PageURL:     pageURL,
		ImageURL:    imageURL,
		Description: extraction.Description,
	}

	if extraction.LinkHref != "" {
		if hd, err := ResolveImageURL(c.site.ImageBaseURL, extraction.LinkHref); err == nil {
			picture.HDImageURL = hd
		}
	}

	log.DebugWithFields("Found picture", map[string]interface{}{
		"image_url": picture.ImageURL,
		"hd_url":    picture.HDImageURL,
	})

	return picture, nil
}

// OpenImage starts downloading an image. The caller must close the body.
// The returned size is -1 when the server did not announce it.
func (c *Client) OpenImage(ctx context.Context, imageURL string) (io.ReadCloser, int64, error) {
	resp, err := c.doRequest(ctx, imageURL)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrorTypeDownload, err, "failed to request "+imageURL)
	}

	if err := checkResponseStatus(resp, errs.ErrorTypeDownload); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}
