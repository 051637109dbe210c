package ports

import (
	"context"
	"io"

	"datalens/domain/profile"
)

// DatasetLoader turns an external data source into a tabular dataset. The
// profiling core makes no assumption about the original file format; loaders
// own the type-tagging of columns.
type DatasetLoader interface {
	Load(ctx context.Context, name string, r io.Reader) (*profile.Dataset, error)
}
