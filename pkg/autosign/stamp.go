package autosign

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const defaultFontName = "Helvetica"

// A stamp is one watermark destined for a single page.
type stamp struct {
	page int // 1-based
	wm   *model.Watermark
}

// In pdfcpu, offsets for pos:bl are measured from the bottom-left corner of
// the page, which matches PDF user space.
func imageStamp(page int, img []byte, x, y float64) (stamp, error) {
	description := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:%.2f abs, rot:0, op:1", x, y, 1.0/imageOversampling)

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(img), description, true, false, types.POINTS)
	if err != nil {
		return stamp{}, fmt.Errorf("failed to build image stamp: %w", err)
	}

	return stamp{page: page, wm: wm}, nil
}

func textStamp(page int, text string, fontSize int, x, y float64) (stamp, error) {
	description := fmt.Sprintf("font:%s, points:%d, pos:bl, off:%.2f %.2f, scale:1 abs, rot:0, fillc:#000000, op:1", defaultFontName, fontSize, x, y)

	wm, err := api.TextWatermark(text, description, true, false, types.POINTS)
	if err != nil {
		return stamp{}, fmt.Errorf("failed to build text stamp: %w", err)
	}

	return stamp{page: page, wm: wm}, nil
}

// pdfStamp places the first page of a PDF file, as produced by the text
// renderer, onto the target page.
func pdfStamp(page int, file string, x, y float64) (stamp, error) {
	description := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:1 abs, rot:0", x, y)

	wm, err := api.PDFWatermark(file, description, true, false, types.POINTS)
	if err != nil {
		return stamp{}, fmt.Errorf("failed to build pdf stamp: %w", err)
	}

	return stamp{page: page, wm: wm}, nil
}

// apply burns a single stamp into the document, entirely in memory.
func (s stamp) apply(pdf []byte, conf *model.Configuration) ([]byte, error) {
	var out bytes.Buffer
	selectedPages := []string{strconv.Itoa(s.page)}

	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, selectedPages, s.wm, conf); err != nil {
		return nil, fmt.Errorf("failed to stamp page %d: %w", s.page, err)
	}

	return out.Bytes(), nil
}
