package autosign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/SeakMengs/AutoSign/pkg/autosign/autosigntest"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var stampMatrix = regexp.MustCompile(`q (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) cm /`)

type point struct{ x, y float64 }

// stampOrigins returns the translation of every stamp drawn on the page, in
// the order the stamps were applied.
func stampOrigins(t *testing.T, pdf []byte, page int) []point {
	t.Helper()

	dir := t.TempDir()
	err := api.ExtractContent(bytes.NewReader(pdf), dir, "signed.pdf", []string{strconv.Itoa(page)}, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "signed_Content_page_"+strconv.Itoa(page)+".txt"))
	require.NoError(t, err)

	var origins []point
	for _, m := range stampMatrix.FindAllStringSubmatch(string(content), -1) {
		x, err := strconv.ParseFloat(m[5], 64)
		require.NoError(t, err)
		y, err := strconv.ParseFloat(m[6], 64)
		require.NoError(t, err)
		origins = append(origins, point{x, y})
	}
	return origins
}

func assertOrigins(t *testing.T, want, got []point) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].x, got[i].x, 0.01, "stamp %d x", i)
		assert.InDelta(t, want[i].y, got[i].y, 0.01, "stamp %d y", i)
	}
}

func newTestCompositor(t *testing.T, attest bool) *Compositor {
	t.Helper()

	cfg := &Config{
		TmpDir: t.TempDir(),
		Attestation: AttestationConfig{
			Enabled: attest,
			Reason:  "Approved",
		},
	}
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	c, err := NewCompositor(cfg, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	return c
}

func TestCompositeProducesLoadablePDF(t *testing.T) {
	c := newTestCompositor(t, true)
	pdf := autosigntest.PDF(t, 2, 612, 792)

	placements := []SignaturePlacement{
		{PageIndex: 0, X: 50, Y: 600, Width: 120, Height: 40, Type: FieldTypeSignature},
		{PageIndex: 0, X: 50, Y: 700, Width: 120, Height: 30, Type: FieldTypeFullName},
		{PageIndex: 1, X: 300, Y: 100, Width: 90, Height: 30, Type: FieldTypeDate},
		{PageIndex: 1, X: 300, Y: 200, Width: 90, Height: 30, Type: FieldTypeFileUpload},
	}
	signer := SignerInfo{
		FullName:       "Ada Lovelace",
		SignatureImage: autosigntest.PNG(t, 300, 100),
	}

	res, err := c.Composite(context.Background(), pdf, placements, signer)
	require.NoError(t, err)
	require.NotNil(t, res.Attestation)

	// signature + 4 attestation lines + full name + date
	assert.Equal(t, 7, res.Marks)
	assert.Equal(t, AttestationKindVisual, res.Attestation.Kind)
	assert.Equal(t, "CN=Ada Lovelace", res.Attestation.Subject)
	assert.NotEqual(t, pdf, res.PDF)

	info, err := Inspect(context.Background(), res.PDF)
	require.NoError(t, err)
	assert.Equal(t, 2, info.PageCount)
}

func TestCompositePlacesMarksFromTopLeft(t *testing.T) {
	c := newTestCompositor(t, false)
	pdf := autosigntest.PDF(t, 1, 612, 792)

	placements := []SignaturePlacement{
		{PageIndex: 0, X: 100, Y: 200, Width: 120, Height: 40, Type: FieldTypeSignature},
		{PageIndex: 0, X: 100, Y: 300, Width: 120, Height: 40, Type: FieldTypeFullName},
	}
	signer := SignerInfo{FullName: "Ada Lovelace", SignatureImage: autosigntest.PNG(t, 300, 100)}

	res, err := c.Composite(context.Background(), pdf, placements, signer)
	require.NoError(t, err)
	require.Equal(t, 2, res.Marks)

	// image at (x, H-y-h), full name at (x+5, H-y-h+h/2-6)
	assertOrigins(t, []point{{100, 552}, {105, 466}}, stampOrigins(t, res.PDF, 1))
}

func TestCompositeWithScannedFont(t *testing.T) {
	fontDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fontDir, "Go-Regular.ttf"), goregular.TTF, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(fontDir, "Go-Mono.TTF"), gomono.TTF, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(fontDir, "broken.otf"), []byte("not a font"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(fontDir, "README"), []byte("fonts"), 0644))

	fonts, err := ScanFontDir(fontDir)
	require.NoError(t, err)
	require.Len(t, fonts, 2)

	var regular FontMetadata
	for _, f := range fonts {
		if filepath.Base(f.Path) == "Go-Regular.ttf" {
			regular = f
		}
	}
	require.NotEmpty(t, regular.Name)

	metadata, err := json.Marshal(fonts)
	require.NoError(t, err)
	metadataPath := filepath.Join(t.TempDir(), "font_metadata.json")
	require.NoError(t, os.WriteFile(metadataPath, metadata, 0644))

	tmpDir := t.TempDir()
	c, err := NewCompositor(&Config{
		FontMetadataPath: metadataPath,
		FontName:         regular.Name,
		TmpDir:           tmpDir,
		Attestation:      AttestationConfig{Enabled: true, Reason: "Approved"},
	})
	require.NoError(t, err)
	require.NotNil(t, c.text)

	pdf := autosigntest.PDF(t, 1, 612, 792)
	placements := []SignaturePlacement{
		{PageIndex: 0, X: 100, Y: 200, Width: 120, Height: 40, Type: FieldTypeSignature},
		{PageIndex: 0, X: 100, Y: 300, Width: 120, Height: 40, Type: FieldTypeFullName},
	}
	signer := SignerInfo{FullName: "Ada Lovelace", SignatureImage: autosigntest.PNG(t, 300, 100)}

	res, err := c.Composite(context.Background(), pdf, placements, signer)
	require.NoError(t, err)
	require.NotNil(t, res.Attestation)

	// signature + 4 attestation lines + full name
	assert.Equal(t, 6, res.Marks)
	assertOrigins(t, []point{
		{100, 552},
		{100, 545},
		{100, 538},
		{100, 531},
		{100, 524},
		{105, 466},
	}, stampOrigins(t, res.PDF, 1))

	// rendered text files are removed once the stamps are burnt in
	leftovers, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestNewCompositorUnknownFont(t *testing.T) {
	metadataPath := filepath.Join(t.TempDir(), "font_metadata.json")
	require.NoError(t, os.WriteFile(metadataPath, []byte(`[]`), 0644))

	_, err := NewCompositor(&Config{FontMetadataPath: metadataPath, FontName: "Missing Sans", TmpDir: t.TempDir()})
	assert.Error(t, err)
}

func TestCompositeSkipsMissingImagesAndBadPages(t *testing.T) {
	c := newTestCompositor(t, true)
	pdf := autosigntest.PDF(t, 1, 612, 792)

	placements := []SignaturePlacement{
		{PageIndex: 0, X: 50, Y: 50, Width: 120, Height: 40, Type: FieldTypeSignature},
		{PageIndex: 0, X: 50, Y: 150, Width: 60, Height: 40, Type: FieldTypeInitials},
		{PageIndex: 3, X: 50, Y: 50, Width: 120, Height: 40, Type: FieldTypeFullName},
	}

	res, err := c.Composite(context.Background(), pdf, placements, SignerInfo{FullName: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Marks)
	assert.Nil(t, res.Attestation)

	info, err := Inspect(context.Background(), res.PDF)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount)
}

func TestCompositeRejectsGarbage(t *testing.T) {
	c := newTestCompositor(t, false)

	res, err := c.Composite(context.Background(), []byte("%PDF-garbage"), nil, SignerInfo{})
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Nil(t, res)
}

func TestCompositeRejectsBadImage(t *testing.T) {
	c := newTestCompositor(t, false)
	pdf := autosigntest.PDF(t, 1, 612, 792)

	placements := []SignaturePlacement{{PageIndex: 0, X: 50, Y: 50, Width: 120, Height: 40, Type: FieldTypeSignature}}
	res, err := c.Composite(context.Background(), pdf, placements, SignerInfo{SignatureImage: []byte("nope")})
	assert.True(t, errors.Is(err, ErrUnsupportedImage))
	assert.Nil(t, res)
}

func TestCompositeHonoursCancellation(t *testing.T) {
	c := newTestCompositor(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Composite(ctx, autosigntest.PDF(t, 1, 612, 792), nil, SignerInfo{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDeriveInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ada Lovelace", "AL"},
		{"grace brewster murray hopper", "GH"},
		{"Cher", "C"},
		{"  ", ""},
		{"élodie durand", "ÉD"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveInitials(tt.name), tt.name)
	}
}

func TestAttestationLines(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	a := NewAttestor(AttestationConfig{Reason: "Approved", Organization: "Acme", Country: "KH"}, func() time.Time { return at })

	got, err := a.Attest("Ada Lovelace")
	require.NoError(t, err)

	lines := got.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, "Digitally Signed by: CN=Ada Lovelace,O=Acme,C=KH", lines[0])
	assert.Equal(t, "Date: "+at.Format(time.RFC1123), lines[1])
	assert.Equal(t, "Reason: Approved", lines[2])
	assert.Len(t, got.CorrelationID, 36)
}

func TestGenerateQRCode(t *testing.T) {
	png, err := GenerateQRCode("https://sign.example.com/?templateId=template-1&recipientId=abc", 128)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
