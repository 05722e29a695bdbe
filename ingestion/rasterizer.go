package ingestion

import "context"

// Rasterizer renders and reads PDF files. It is the boundary to whatever
// PDF toolchain the host application links in; the pipeline only relies on
// this contract. Implementations must be safe for concurrent use, as the
// pipeline renders pages from multiple workers.
type Rasterizer interface {
	// PageCount returns the number of pages in the file.
	PageCount(ctx context.Context, path string) (int, error)

	// RenderPage renders one 1-indexed page to an encoded image (PNG).
	RenderPage(ctx context.Context, path string, pageNum int) ([]byte, error)

	// ExtractText returns the text layer of one 1-indexed page.
	// An empty string means the page has no extractable text; that is not
	// an error.
	ExtractText(ctx context.Context, path string, pageNum int) (string, error)
}
