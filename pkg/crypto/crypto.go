// Package crypto derives the TLS material for mutual authentication from a
// shared key. Both peers derive the same CA from the key; each then signs a
// fresh leaf certificate with it, so a peer presenting a leaf that chains to
// the CA proves knowledge of the key.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"math/big"
	"time"
)

var (
	notBefore = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	notAfter  = time.Date(2063, 4, 5, 11, 0, 0, 0, time.UTC)
)

// GenerateCertificates returns a pool holding the CA derived from seed and a
// leaf certificate signed by that CA. An empty seed uses a random one.
func GenerateCertificates(seed string) (*x509.CertPool, tls.Certificate, error) {
	var cert tls.Certificate

	if seed == "" {
		s, err := GenerateRandomString(32)
		if err != nil {
			return nil, cert, fmt.Errorf("GenerateRandomString(32): %w", err)
		}
		seed = s
	}

	caKey, err := deriveKey(newDRand(seed))
	if err != nil {
		return nil, cert, fmt.Errorf("deriving CA key: %w", err)
	}

	ca, err := caCertificate(caKey, newDRand("subject:"+seed))
	if err != nil {
		return nil, cert, fmt.Errorf("creating CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(ca)

	cert, err = leafCertificate(ca, caKey)
	if err != nil {
		return nil, cert, fmt.Errorf("creating leaf certificate: %w", err)
	}

	return pool, cert, nil
}

// deriveKey builds a P-256 key whose scalar is read from rng. The result
// depends only on the bytes rng yields.
func deriveKey(rng io.Reader) (*ecdsa.PrivateKey, error) {
	curve := elliptic.P256()
	n := new(big.Int).Sub(curve.Params().N, big.NewInt(1))

	buf := make([]byte, curve.Params().BitSize/8+8)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, err
	}

	d := new(big.Int).SetBytes(buf)
	d.Mod(d, n)
	d.Add(d, big.NewInt(1))

	key := &ecdsa.PrivateKey{D: d}
	key.PublicKey.Curve = curve
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(d.FillBytes(make([]byte, 32)))
	return key, nil
}

func caCertificate(key *ecdsa.PrivateKey, rng io.Reader) (*x509.Certificate, error) {
	cn, err := randomString(8, rng)
	if err != nil {
		return nil, fmt.Errorf("common name: %w", err)
	}
	org, err := randomString(8, rng)
	if err != nil {
		return nil, fmt.Errorf("organization: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{org},
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("x509.CreateCertificate(): %w", err)
	}
	return x509.ParseCertificate(der)
}

func leafCertificate(ca *x509.Certificate, caKey *ecdsa.PrivateKey) (tls.Certificate, error) {
	var out tls.Certificate

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return out, fmt.Errorf("ecdsa.GenerateKey(): %w", err)
	}

	cn, err := GenerateRandomString(8)
	if err != nil {
		return out, fmt.Errorf("common name: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return out, fmt.Errorf("serial number: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca, &key.PublicKey, caKey)
	if err != nil {
		return out, fmt.Errorf("x509.CreateCertificate(): %w", err)
	}

	out = tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}
	return out, nil
}

// VerifyPeer checks that the single certificate in rawCerts chains to a CA in
// pool. It fits tls.Config.VerifyPeerCertificate.
func VerifyPeer(pool *x509.CertPool, rawCerts [][]byte) error {
	if len(rawCerts) != 1 {
		return fmt.Errorf("unexpected number of raw certs: %d", len(rawCerts))
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("x509.ParseCertificate(): %w", err)
	}

	if _, err := cert.Verify(x509.VerifyOptions{Roots: pool}); err != nil {
		return fmt.Errorf("verify certificate: %w", err)
	}
	return nil
}
