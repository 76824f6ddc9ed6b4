package autosign

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
)

/*
 * Attention: tdewolff/canvas uses mm as the unit of measurement. Everything
 * passed to the TextRenderer is in PDF points and converted when needed.
 */

const DPI = 72

const textColor = "#000000"

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// TextRenderer draws single-line text with a custom font into a small PDF
// that is later stamped onto a page.
type TextRenderer struct {
	fontFamily *canvas.FontFamily
	tmpDir     string
}

func NewTextRenderer(fontFamily *canvas.FontFamily, tmpDir string) *TextRenderer {
	return &TextRenderer{
		fontFamily: fontFamily,
		tmpDir:     tmpDir,
	}
}

func mmToPt(mm float64) float64 {
	return (mm * DPI) / 25.4
}

func removeLineBreaks(text string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(text, " "))
}

// Render writes the text to a temporary PDF sized to the text box and returns
// its path with the box size in points. The caller removes the file.
func (tr *TextRenderer) Render(text string, fontSize float64) (string, float64, float64, error) {
	text = removeLineBreaks(text)

	face := tr.fontFamily.Face(fontSize, canvas.Hex(textColor), canvas.FontRegular, canvas.FontNormal)
	rt := canvas.NewRichText(face)
	rt.WriteString(text)

	// unbounded box, the text decides its own extent
	textBox := rt.ToText(0, 0, canvas.Left, canvas.Top, 0.0, 0.0)
	widthMM, heightMM := textBox.Bounds().W(), textBox.Bounds().H()
	if widthMM <= 0 || heightMM <= 0 {
		return "", 0, 0, fmt.Errorf("text %q has no visible extent", text)
	}

	c := canvas.New(widthMM, heightMM)
	ctx := canvas.NewContext(c)
	// Change coordination from bottom-left to top-left
	ctx.SetCoordSystem(canvas.CartesianIV)
	ctx.DrawText(0, 0, textBox)

	tmp, err := os.CreateTemp(tr.tmpDir, "autosign_text_*.pdf")
	if err != nil {
		return "", 0, 0, fmt.Errorf("failed to create temporary text file: %w", err)
	}
	tmp.Close()

	if err := renderers.Write(tmp.Name(), c); err != nil {
		os.Remove(tmp.Name())
		return "", 0, 0, fmt.Errorf("failed to write PDF: %w", err)
	}

	return tmp.Name(), mmToPt(widthMM), mmToPt(heightMM), nil
}
