// Package crypto wraps BLS12-381 signature verification for the blsworker
// engine. It follows the Ethereum "MinPk" scheme:
//   - Public keys in G1 (48-byte compressed)
//   - Signatures in G2 (96-byte compressed)
//   - DST: BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_
//
// The package distinguishes three outcomes of a verification call: a valid
// signature (true, nil), a cryptographically invalid signature (false, nil),
// and input the library could not even parse (false, error). Callers rely on
// this split to tell "we verified, the answer is no" apart from "we could
// not verify".
package crypto

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// Sizes of the MinPk scheme primitives and of the message digests the
// engine verifies against.
const (
	PublicKeyLength = 48 // compressed G1
	SignatureLength = 96 // compressed G2
	MessageLength   = 32 // caller-supplied domain-separated digest
)

// SignatureDST is the domain separation tag for Ethereum BLS signatures
// under the proof-of-possession scheme.
var SignatureDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

// Input validation errors. All of them satisfy IsInputError.
var (
	ErrSetNil          = errors.New("bls: nil signature set")
	ErrPubkeyLength    = errors.New("bls: pubkey must be 48 bytes")
	ErrSignatureLength = errors.New("bls: signature must be 96 bytes")
	ErrPubkeyFormat    = errors.New("bls: invalid compressed G1 pubkey")
	ErrSignatureFormat = errors.New("bls: invalid compressed G2 signature")
	ErrPubkeyInfinity  = errors.New("bls: pubkey is the point at infinity")
	ErrEmptyBatch      = errors.New("bls: no signature sets to verify")
)

// inputErrors enumerates the sentinels IsInputError matches against.
var inputErrors = []error{
	ErrSetNil,
	ErrPubkeyLength,
	ErrSignatureLength,
	ErrPubkeyFormat,
	ErrSignatureFormat,
	ErrPubkeyInfinity,
	ErrEmptyBatch,
}

// IsInputError reports whether err indicates malformed caller input, as
// opposed to an internal fault in the crypto library.
func IsInputError(err error) bool {
	for _, sentinel := range inputErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// pointAtInfinityG1 is the compressed G1 point at infinity: 0xc0 followed
// by zeros. An aggregate public key equal to it verifies anything and is
// rejected up front.
var pointAtInfinityG1 = func() [PublicKeyLength]byte {
	var b [PublicKeyLength]byte
	b[0] = 0xc0
	return b
}()

// SignatureSet is one atomic verification unit: an aggregate public key, a
// 32-byte message digest, and a signature. Messages are already
// domain-separated by the caller.
type SignatureSet struct {
	PublicKey []byte
	Message   [MessageLength]byte
	Signature []byte
}

// Validate checks the structural well-formedness of the set: field lengths,
// the compression bit of each point, and that the pubkey is not the point
// at infinity. It does not touch the curve.
func (s *SignatureSet) Validate() error {
	if s == nil {
		return ErrSetNil
	}
	if len(s.PublicKey) != PublicKeyLength {
		return fmt.Errorf("%w, got %d", ErrPubkeyLength, len(s.PublicKey))
	}
	if len(s.Signature) != SignatureLength {
		return fmt.Errorf("%w, got %d", ErrSignatureLength, len(s.Signature))
	}
	if s.PublicKey[0]&0x80 == 0 {
		return fmt.Errorf("%w: %s", ErrPubkeyFormat, hexutil.Encode(s.PublicKey))
	}
	if s.Signature[0]&0x80 == 0 {
		return fmt.Errorf("%w: %s", ErrSignatureFormat, hexutil.Encode(s.Signature[:8]))
	}
	if [PublicKeyLength]byte(s.PublicKey) == pointAtInfinityG1 {
		return ErrPubkeyInfinity
	}
	return nil
}

// Fingerprint returns the Keccak-256 hash of pubkey, message, and
// signature. Two sets with equal fingerprints are redundant verification
// work; the engine uses this to spot caller bugs.
func (s *SignatureSet) Fingerprint() [32]byte {
	return [32]byte(Keccak256(s.PublicKey, s.Message[:], s.Signature))
}

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
