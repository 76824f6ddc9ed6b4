package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IDs end up in signing links and QR codes, so they stay lowercase
// alphanumeric.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateID returns a random id of n characters for recipients, fields and
// attachments.
func GenerateID(n int) (string, error) {
	return gonanoid.Generate(idAlphabet, n)
}
