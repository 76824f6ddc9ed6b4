package autosign

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var ErrDecode = errors.New("failed to decode pdf")

func init() {
	// pdfcpu would otherwise create a config dir under the user's home
	api.DisableConfigDir()
}

// Relaxed validation lets us open documents produced by sloppy writers.
// Encrypted files with an empty user password are decrypted transparently.
func newPdfConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

type DocumentInfo struct {
	PageCount int              `json:"pageCount"`
	Pages     []PageDimensions `json:"pages"`
}

// Page returns the dimensions of a 1-based page.
func (d DocumentInfo) Page(page int) (PageDimensions, bool) {
	if page < 1 || page > len(d.Pages) {
		return PageDimensions{}, false
	}
	return d.Pages[page-1], true
}

// Inspect reads the page count and page sizes (in points, at scale 1).
func Inspect(ctx context.Context, pdf []byte) (DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return DocumentInfo{}, err
	}
	if len(pdf) == 0 {
		return DocumentInfo{}, fmt.Errorf("%w: empty document", ErrDecode)
	}

	dims, err := api.PageDims(bytes.NewReader(pdf), newPdfConfiguration())
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if err := ctx.Err(); err != nil {
		return DocumentInfo{}, err
	}

	info := DocumentInfo{
		PageCount: len(dims),
		Pages:     make([]PageDimensions, 0, len(dims)),
	}
	for _, d := range dims {
		info.Pages = append(info.Pages, PageDimensions{Width: d.Width, Height: d.Height})
	}

	return info, nil
}
