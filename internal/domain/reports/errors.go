package reports

import "errors"

var (
	// ErrNotFound means nothing cleared the similarity threshold, or the
	// requested report has no explanation document.
	ErrNotFound = errors.New("no matching report")

	// ErrSourceUnavailable is returned by a RecordSource whose backing data is missing.
	ErrSourceUnavailable = errors.New("report records source unavailable")

	// ErrMalformedSource is returned when the records source is not a JSON array.
	ErrMalformedSource = errors.New("report records source malformed")
)
