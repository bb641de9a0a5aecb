package importer

import "context"

// FetchResult describes a successfully retrieved attachment.
type FetchResult struct {
	File     string // local path the attachment was written to
	URL      string // URL it was fetched from
	FinalURL string // URL after following redirects (equal to URL when none were followed)
}

// FetchErrorKind classifies why an attachment fetch failed.
type FetchErrorKind int

const (
	FetchErrorUnknown FetchErrorKind = iota
	FetchErrorNetwork
	FetchErrorHTTPStatus
	FetchErrorSizeMismatch
	FetchErrorWrite
)

// FetchError is returned by AttachmentFetcher.Fetch.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return "importer: fetch " + e.URL + ": " + e.Err.Error()
	}
	return "importer: fetch " + e.URL + " failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// AttachmentFetcher retrieves a post attachment by URL and stores it under
// dest_path, in the bucketYYYYMM subdirectory the caller chooses. A failed
// fetch leaves no partial file behind: the fetcher removes what it wrote
// before returning the error.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, url, destPath, bucketYYYYMM string) (FetchResult, error)
}
