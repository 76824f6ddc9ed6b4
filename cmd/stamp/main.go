// Command stamp composites one signer's marks onto a PDF without going
// through the API. Handy for checking fonts and placement.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		in        = pflag.StringP("in", "i", "", "PDF to sign")
		out       = pflag.StringP("out", "o", "signed.pdf", "where to write the signed PDF")
		signature = pflag.String("signature", "", "signature image (png or jpeg)")
		name      = pflag.String("name", "", "signer full name")
		fieldType = pflag.String("type", string(autosign.FieldTypeSignature), "field type")
		page      = pflag.Int("page", 1, "1-based page number")
		rotation  = pflag.Int("rotation", 0, "page rotation in degrees, only affects the reported display size")
		x         = pflag.Float64("x", 0.1, "left edge as a fraction of the page width")
		y         = pflag.Float64("y", 0.8, "top edge as a fraction of the page height")
		width     = pflag.Float64("width", 0.25, "width as a fraction of the page width")
		height    = pflag.Float64("height", 0.06, "height as a fraction of the page height")
		fontMeta  = pflag.String("font-metadata", "", "font metadata written by scan_font")
		fontName  = pflag.String("font", "", "font used for text fields")
		attest    = pflag.Bool("attest", true, "stamp the attestation block under the signature")
	)
	pflag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	if *in == "" {
		pflag.Usage()
		os.Exit(2)
	}

	pdf, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *in, err)
	}

	signer := autosign.SignerInfo{FullName: strings.TrimSpace(*name)}
	signer.Initials = autosign.DeriveInitials(signer.FullName)
	if *signature != "" {
		if signer.SignatureImage, err = os.ReadFile(*signature); err != nil {
			log.Fatalf("Failed to read %s: %v", *signature, err)
		}
		signer.InitialsImage = signer.SignatureImage
	}

	ctx := context.Background()
	info, err := autosign.Inspect(ctx, pdf)
	if err != nil {
		log.Fatalf("Failed to read PDF: %v", err)
	}
	dims, ok := info.Page(*page)
	if !ok {
		log.Fatalf("Page %d is out of range, the document has %d pages", *page, info.PageCount)
	}

	field := autosign.SignatureField{
		Page:           *page,
		Type:           autosign.FieldType(strings.ToUpper(*fieldType)),
		NormalizedRect: autosign.NormalizedRect{X: *x, Y: *y, Width: *width, Height: *height},
	}
	logger.Debugf("Displayed page size at rotation %d: %+v", *rotation, autosign.RotatedPageSize(dims, *rotation))
	placement := autosign.ToPdfPlacement(field, dims)
	logger.Debugf("Placement: %+v", placement)

	compositor, err := autosign.NewCompositor(&autosign.Config{
		FontMetadataPath: *fontMeta,
		FontName:         *fontName,
		Attestation: autosign.AttestationConfig{
			Enabled: *attest,
			Reason:  "I agree to the terms of this document",
		},
	})
	if err != nil {
		log.Fatalf("Failed to create compositor: %v", err)
	}

	res, err := compositor.Composite(ctx, pdf, []autosign.SignaturePlacement{placement}, signer)
	if err != nil {
		log.Fatalf("Failed to composite: %v", err)
	}

	if err := os.WriteFile(*out, res.PDF, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	logger.Infof("Stamped %d marks onto %s", res.Marks, *out)
}
