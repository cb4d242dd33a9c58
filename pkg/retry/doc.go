// Package retry runs an operation a bounded number of times.
//
// apodget uses it to sample random dates: a page without a picture is worth
// another try, anything else is not. The predicate, delay and attempt limit
// are all part of Config.
//
//	picture, err := retry.DoWithResult(func() (*apod.Picture, error) {
//		return client.FetchPicture(ctx, picker.Pick(apoddate.FirstPublished), opts)
//	}, &retry.Config{
//		MaxAttempts: 5,
//		RetryIf:     errs.RetryIf,
//		Context:     ctx,
//	})
//	if errors.Is(err, retry.ErrExhausted) {
//		// every sampled date was a video day
//	}
package retry
