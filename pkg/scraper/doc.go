// Package scraper ties the APOD client, the date picker and the downloader
// together into a single run.
//
// In today mode exactly one page is fetched. In random mode a RandomFinder
// samples dates between the requested date and now, skipping days whose page
// has no image (usually videos), and gives up after a bounded number of
// attempts.
//
// Usage:
//
//	s := scraper.New(cfg, logger.GetLogger())
//
//	result, err := s.Run(ctx, scraper.Request{
//	    Mode:        scraper.ModeRandom,
//	    Date:        apoddate.FirstPublished,
//	    DownloadDir: "/tmp/apod",
//	})
//	if err != nil {
//	    os.Exit(errs.ExitCode(err))
//	}
//	fmt.Println(result.Line())
package scraper
