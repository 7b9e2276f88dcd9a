package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strings"
)

// publicKey converts a JWK to a Go crypto.PublicKey.
func (k *jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaPublicKey()
	case "EC":
		return k.ecPublicKey()
	default:
		return nil, fmt.Errorf("unsupported key type: %s", k.Kty)
	}
}

func (k *jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode RSA N: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode RSA E: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}

func (k *jwk) ecPublicKey() (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decode EC X: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decode EC Y: %w", err)
	}

	var curve elliptic.Curve
	switch k.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve: %s", k.Crv)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// verifySignature checks a raw JWT's signature against the given public key.
func verifySignature(rawToken, alg string, key crypto.PublicKey) error {
	parts := strings.Split(rawToken, ".")
	if len(parts) != 3 {
		return errors.New("malformed token")
	}

	signingInput := parts[0] + "." + parts[1]
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	switch alg {
	case "RS256":
		return verifyRSA(signingInput, signature, key, crypto.SHA256)
	case "RS384":
		return verifyRSA(signingInput, signature, key, crypto.SHA384)
	case "RS512":
		return verifyRSA(signingInput, signature, key, crypto.SHA512)
	case "ES256":
		return verifyECDSA(signingInput, signature, key, crypto.SHA256)
	case "ES384":
		return verifyECDSA(signingInput, signature, key, crypto.SHA384)
	case "ES512":
		return verifyECDSA(signingInput, signature, key, crypto.SHA512)
	default:
		return fmt.Errorf("unsupported algorithm: %s", alg)
	}
}

func verifyRSA(input string, sig []byte, key crypto.PublicKey, hashAlg crypto.Hash) error {
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return errors.New("expected RSA public key")
	}
	h := hashFunc(hashAlg)
	h.Write([]byte(input))
	return rsa.VerifyPKCS1v15(rsaKey, hashAlg, h.Sum(nil), sig)
}

func verifyECDSA(input string, sig []byte, key crypto.PublicKey, hashAlg crypto.Hash) error {
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return errors.New("expected ECDSA public key")
	}
	h := hashFunc(hashAlg)
	h.Write([]byte(input))

	// JOSE encodes ECDSA signatures as r || s, not ASN.1.
	keyBytes := (ecKey.Curve.Params().BitSize + 7) / 8
	if len(sig) != 2*keyBytes {
		return errors.New("invalid ECDSA signature length")
	}
	r := new(big.Int).SetBytes(sig[:keyBytes])
	s := new(big.Int).SetBytes(sig[keyBytes:])

	if !ecdsa.Verify(ecKey, h.Sum(nil), r, s) {
		return errors.New("ECDSA signature verification failed")
	}
	return nil
}

func hashFunc(alg crypto.Hash) hash.Hash {
	switch alg {
	case crypto.SHA384:
		return sha512.New384()
	case crypto.SHA512:
		return sha512.New()
	default:
		return sha256.New()
	}
}

// decodeSegment decodes a base64url JWT segment into a map.
func decodeSegment(seg string) (map[string]any, error) {
	data, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
