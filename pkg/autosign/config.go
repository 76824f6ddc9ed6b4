package autosign

import (
	"fmt"
	"os"
)

type Config struct {
	// A path to json where it store font name and path to the font file
	FontMetadataPath string
	// Font used for FULL_NAME, DATE and attestation text. Empty means the
	// built-in Helvetica.
	FontName string
	// Directory for temporary stamp files, removed after each composite
	TmpDir string
	// Attestation text under signature marks
	Attestation AttestationConfig
}

type AttestationConfig struct {
	Enabled      bool
	Reason       string
	Organization string
	Locality     string
	Country      string
}

func NewDefaultConfig() *Config {
	cfg := Config{
		FontMetadataPath: "font_metadata.json",
		TmpDir:           fmt.Sprintf("%s/autosign/tmp", os.TempDir()),
		Attestation: AttestationConfig{
			Enabled: true,
			Reason:  "I agree to the terms of this document",
		},
	}

	// 0755 mean owner can read, write and execute
	if err := os.MkdirAll(cfg.TmpDir, 0755); err != nil {
		fmt.Printf("Error creating tmp directory: %v\n", err)
	}

	return &cfg
}
