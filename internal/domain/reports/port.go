package reports

import "context"

// RecordSource port for the raw report list.
type RecordSource interface {
	Load(ctx context.Context) ([]Report, error)
}
