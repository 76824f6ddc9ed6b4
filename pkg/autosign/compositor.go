package autosign

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Layout of the text marks, in points.
const (
	textInset           = 5
	fullNameFontSize    = 12
	fullNameBaseline    = 6
	dateFontSize        = 10
	dateBaseline        = 5
	attestationFontSize = 6
	attestationLeading  = 7
	DateLayout          = "2006-01-02 15:04"
)

// SignerInfo is supplied at finalize time and never stored as a whole.
type SignerInfo struct {
	FullName       string
	Initials       string
	SignatureImage []byte
	InitialsImage  []byte
}

// DeriveInitials takes the first letter of the first and last word.
func DeriveInitials(fullName string) string {
	words := strings.Fields(fullName)
	if len(words) == 0 {
		return ""
	}

	first, _ := utf8.DecodeRuneInString(words[0])
	if len(words) == 1 {
		return string(unicode.ToUpper(first))
	}
	last, _ := utf8.DecodeRuneInString(words[len(words)-1])
	return string(unicode.ToUpper(first)) + string(unicode.ToUpper(last))
}

// SignaturePlacement is a field resolved against the page at scale 1.
// X and Y are measured from the top-left of the page.
type SignaturePlacement struct {
	PageIndex int       `json:"pageIndex"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Type      FieldType `json:"type"`
}

type CompositeResult struct {
	PDF         []byte
	Attestation *Attestation
	// Number of marks drawn; skipped placements are not counted.
	Marks int
}

type Compositor struct {
	cfg      *Config
	text     *TextRenderer
	attestor *Attestor
	now      func() time.Time
}

type CompositorOption func(*Compositor)

// WithClock replaces time.Now, used for DATE marks and attestations.
func WithClock(now func() time.Time) CompositorOption {
	return func(c *Compositor) {
		c.now = now
	}
}

func NewCompositor(cfg *Config, opts ...CompositorOption) (*Compositor, error) {
	c := &Compositor{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.FontName != "" && !strings.EqualFold(cfg.FontName, defaultFontName) {
		fontLoader, err := NewFontLoader(cfg.FontMetadataPath)
		if err != nil {
			return nil, err
		}
		fontFamily, err := fontLoader.LoadFont(cfg.FontName)
		if err != nil {
			return nil, err
		}
		c.text = NewTextRenderer(fontFamily, cfg.TmpDir)
	}

	if cfg.Attestation.Enabled {
		c.attestor = NewAttestor(cfg.Attestation, c.now)
	}

	return c, nil
}

// Composite burns the signer's marks into pdf and returns new bytes.
// Nothing is returned unless every mark was applied.
func (c *Compositor) Composite(ctx context.Context, pdf []byte, placements []SignaturePlacement, signer SignerInfo) (*CompositeResult, error) {
	info, err := Inspect(ctx, pdf)
	if err != nil {
		return nil, err
	}

	if signer.Initials == "" {
		signer.Initials = DeriveInitials(signer.FullName)
	}

	var attestation *Attestation
	if c.attestor != nil && hasSignatureMark(placements, signer, info.PageCount) {
		a, err := c.attestor.Attest(signer.FullName)
		if err != nil {
			return nil, err
		}
		attestation = &a
	}

	var tmpFiles []string
	defer func() {
		for _, f := range tmpFiles {
			os.Remove(f)
		}
	}()

	var stamps []stamp
	for _, p := range placements {
		if p.PageIndex < 0 || p.PageIndex >= info.PageCount {
			log.Printf("Skipping %s placement on page index %d, document has %d pages", p.Type, p.PageIndex, info.PageCount)
			continue
		}

		pageHeight := info.Pages[p.PageIndex].Height
		s, files, err := c.stampsFor(p, pageHeight, signer, attestation)
		tmpFiles = append(tmpFiles, files...)
		if err != nil {
			return nil, err
		}
		stamps = append(stamps, s...)
	}

	conf := newPdfConfiguration()
	current := pdf
	for _, s := range stamps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err = s.apply(current, conf)
		if err != nil {
			return nil, err
		}
	}

	return &CompositeResult{
		PDF:         bytes.Clone(current),
		Attestation: attestation,
		Marks:       len(stamps),
	}, nil
}

func hasSignatureMark(placements []SignaturePlacement, signer SignerInfo, pageCount int) bool {
	if len(signer.SignatureImage) == 0 {
		return false
	}
	for _, p := range placements {
		if p.Type == FieldTypeSignature && p.PageIndex >= 0 && p.PageIndex < pageCount {
			return true
		}
	}
	return false
}

func (c *Compositor) stampsFor(p SignaturePlacement, pageHeight float64, signer SignerInfo, attestation *Attestation) ([]stamp, []string, error) {
	page := p.PageIndex + 1
	x, y := PdfOrigin(p, pageHeight)

	switch p.Type {
	case FieldTypeSignature:
		s, err := c.imageMark(page, signer.SignatureImage, p, x, y)
		if err != nil || s == nil {
			return nil, nil, err
		}
		stamps := []stamp{*s}
		if attestation == nil {
			return stamps, nil, nil
		}

		var files []string
		for i, line := range attestation.Lines() {
			lineY := y - float64(i+1)*attestationLeading
			ts, file, err := c.textMark(page, line, attestationFontSize, x, lineY)
			if file != "" {
				files = append(files, file)
			}
			if err != nil {
				return nil, files, err
			}
			stamps = append(stamps, ts)
		}
		return stamps, files, nil

	case FieldTypeInitials:
		s, err := c.imageMark(page, signer.InitialsImage, p, x, y)
		if err != nil || s == nil {
			return nil, nil, err
		}
		return []stamp{*s}, nil, nil

	case FieldTypeFullName:
		if strings.TrimSpace(signer.FullName) == "" {
			return nil, nil, nil
		}
		s, file, err := c.textMark(page, signer.FullName, fullNameFontSize, x+textInset, y+p.Height/2-fullNameBaseline)
		return []stamp{s}, nonEmpty(file), err

	case FieldTypeDate:
		s, file, err := c.textMark(page, c.now().Format(DateLayout), dateFontSize, x+textInset, y+p.Height/2-dateBaseline)
		return []stamp{s}, nonEmpty(file), err

	default:
		// FILE_UPLOAD and anything unknown are never drawn
		return nil, nil, nil
	}
}

// imageMark returns nil when the signer supplied no image for the mark.
func (c *Compositor) imageMark(page int, data []byte, p SignaturePlacement, x, y float64) (*stamp, error) {
	if len(data) == 0 {
		return nil, nil
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	resized, err := ResizeImage(img, p.Width, p.Height)
	if err != nil {
		return nil, err
	}

	s, err := imageStamp(page, resized, x, y)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Compositor) textMark(page int, text string, fontSize int, x, y float64) (stamp, string, error) {
	if c.text == nil {
		s, err := textStamp(page, text, fontSize, x, y)
		return s, "", err
	}

	file, _, _, err := c.text.Render(text, float64(fontSize))
	if err != nil {
		return stamp{}, "", fmt.Errorf("failed to render %q: %w", text, err)
	}

	s, err := pdfStamp(page, file, x, y)
	return s, file, err
}

func nonEmpty(file string) []string {
	if file == "" {
		return nil
	}
	return []string{file}
}
