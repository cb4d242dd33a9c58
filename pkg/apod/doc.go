// Package apod provides a client for NASA's Astronomy Picture of the Day site.
//
// The site has no stable API for the archive pages, so the client scrapes
// HTML: the page for a date is built from a URL template, the first image
// element supplies the picture and a paragraph under body supplies the
// explanation. Selectors and URLs come from config.APODConfig so they can be
// changed when the site's markup changes.
//
// Example usage:
//
//	client := apod.NewClient(cfg.APOD, 15*time.Second, nil)
//
//	picture, err := client.FetchPicture(ctx, date, apod.FetchOptions{Description: true})
//	if err != nil {
//	    if errs.Is(err, errs.ErrorTypeNoPicture) {
//	        // video day
//	    }
//	}
//	fmt.Println(picture.ImageURL)
package apod
