package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey is returned when PEM or key type is invalid.
var ErrInvalidKey = errors.New("invalid key")

// minSecretLen is the shortest HMAC secret accepted (256 bits).
const minSecretLen = 32

// SigningKey pairs a JWT signing method with the keys used to sign and verify.
type SigningKey struct {
	method jwt.SigningMethod
	sign   interface{}
	verify interface{}
}

// Alg returns the JWT alg header value for the key ("RS256", "ES256" or "HS256").
func (k SigningKey) Alg() string {
	if k.method == nil {
		return ""
	}
	return k.method.Alg()
}

// NewAsymmetricKey returns a SigningKey for an RSA or ECDSA key pair (RS256 / ES256).
func NewAsymmetricKey(private crypto.Signer, public crypto.PublicKey) (SigningKey, error) {
	if private == nil || public == nil {
		return SigningKey{}, ErrInvalidKey
	}
	switch KeyAlg(public) {
	case "RS256":
		return SigningKey{method: jwt.SigningMethodRS256, sign: private, verify: public}, nil
	case "ES256":
		return SigningKey{method: jwt.SigningMethodES256, sign: private, verify: public}, nil
	default:
		return SigningKey{}, ErrInvalidKey
	}
}

// NewHMACKey returns an HS256 SigningKey. secret must be at least 32 bytes.
func NewHMACKey(secret []byte) (SigningKey, error) {
	if len(secret) < minSecretLen {
		return SigningKey{}, ErrInvalidKey
	}
	return SigningKey{method: jwt.SigningMethodHS256, sign: secret, verify: secret}, nil
}

// LoadSigningKey builds the SigningKey from configuration. A key pair takes precedence over
// secret; when both PEM values are empty the HMAC secret is used.
func LoadSigningKey(privatePEM, publicPEM, secret string) (SigningKey, error) {
	if strings.TrimSpace(privatePEM) != "" || strings.TrimSpace(publicPEM) != "" {
		private, err := ParsePrivateKey(privatePEM)
		if err != nil {
			return SigningKey{}, err
		}
		public, err := ParsePublicKey(publicPEM)
		if err != nil {
			return SigningKey{}, err
		}
		return NewAsymmetricKey(private, public)
	}
	return NewHMACKey([]byte(secret))
}

// LoadPEM reads content from path if s does not look like inline PEM; otherwise returns s as bytes.
// Inline PEM copied into a single-line env var may carry literal "\n" sequences; they are expanded.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded private key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded public key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// KeyAlg returns "RS256" for RSA and "ES256" for ECDSA P-256; empty otherwise.
func KeyAlg(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		return "ES256"
	default:
		return ""
	}
}
