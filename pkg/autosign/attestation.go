package autosign

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const AttestationKindVisual = "visual"

// Attestation is the human readable block printed below a signature.
// Subject is the certificate's distinguished name, e.g.
// "CN=Ada Lovelace,O=Acme,C=KH".
// The certificate behind it is self-signed and lives only for the signing
// session, so it proves nothing about the signer's identity.
type Attestation struct {
	Subject       string    `json:"subject"`
	SignedAt      time.Time `json:"signedAt"`
	Reason        string    `json:"reason"`
	CorrelationID string    `json:"correlationId"`
	Kind          string    `json:"kind"`
}

func (a Attestation) Lines() []string {
	return []string{
		"Digitally Signed by: " + a.Subject,
		"Date: " + a.SignedAt.Format(time.RFC1123),
		"Reason: " + a.Reason,
		"ID: " + a.CorrelationID,
	}
}

type Attestor struct {
	cfg AttestationConfig
	now func() time.Time
}

func NewAttestor(cfg AttestationConfig, now func() time.Time) *Attestor {
	if now == nil {
		now = time.Now
	}
	return &Attestor{cfg: cfg, now: now}
}

func (a *Attestor) Attest(fullName string) (Attestation, error) {
	cert, err := a.selfSignedCertificate(fullName)
	if err != nil {
		return Attestation{}, err
	}

	return Attestation{
		Subject:       cert.Subject.String(),
		SignedAt:      a.now(),
		Reason:        a.cfg.Reason,
		CorrelationID: uuid.New().String(),
		Kind:          AttestationKindVisual,
	}, nil
}

func (a *Attestor) selfSignedCertificate(fullName string) (*x509.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate attestation key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	subject := pkix.Name{CommonName: fullName}
	if a.cfg.Organization != "" {
		subject.Organization = []string{a.cfg.Organization}
	}
	if a.cfg.Locality != "" {
		subject.Locality = []string{a.cfg.Locality}
	}
	if a.cfg.Country != "" {
		subject.Country = []string{a.cfg.Country}
	}

	now := a.now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create attestation certificate: %w", err)
	}

	return x509.ParseCertificate(der)
}
