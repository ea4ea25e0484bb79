// BLS12-381 backend on the supranational/blst library.
//
// Single-set verification uses the core Verify path with group checks.
// Multi-set verification uses MultipleAggregateVerify, which folds every
// set under a fresh random scalar so that one multi-pairing decides the
// conjunction of all sets with negligible soundness error.
package crypto

import (
	"crypto/rand"
	"errors"

	blst "github.com/supranational/blst/bindings/go"
)

const (
	// scalarBytes is the byte length of the random scalars drawn for
	// randomized aggregate verification.
	scalarBytes = 32

	// randBitsEntropy is the entropy, in bits, blst folds into each
	// per-set scalar.
	randBitsEntropy = 64
)

// BlstBackend implements Backend using blst with the MinPk scheme.
type BlstBackend struct{}

// Name returns the backend identifier.
func (b *BlstBackend) Name() string {
	return "blst"
}

// VerifySet checks a single signature set.
func (b *BlstBackend) VerifySet(s *SignatureSet) (bool, error) {
	pk, sig, err := uncompressSet(s)
	if err != nil {
		return false, err
	}
	return sig.Verify(true, pk, true, s.Message[:], SignatureDST), nil
}

// VerifyMany checks all sets with one randomized aggregate verification
// call. A single-set batch delegates to VerifySet, which skips the scalar
// multiplications.
func (b *BlstBackend) VerifyMany(sets []*SignatureSet) (bool, error) {
	switch len(sets) {
	case 0:
		return false, ErrEmptyBatch
	case 1:
		return b.VerifySet(sets[0])
	}

	pks := make([]*blst.P1Affine, len(sets))
	sigs := make([]*blst.P2Affine, len(sets))
	msgs := make([]blst.Message, len(sets))
	for i, s := range sets {
		pk, sig, err := uncompressSet(s)
		if err != nil {
			return false, err
		}
		pks[i] = pk
		sigs[i] = sig
		msgs[i] = s.Message[:]
	}

	dummy := new(blst.P2Affine)
	ok := dummy.MultipleAggregateVerify(sigs, true, pks, true, msgs, SignatureDST,
		randomScalar, randBitsEntropy)
	return ok, nil
}

// uncompressSet validates the set's encoding and decompresses both points.
func uncompressSet(s *SignatureSet) (*blst.P1Affine, *blst.P2Affine, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	pk := new(blst.P1Affine).Uncompress(s.PublicKey)
	if pk == nil {
		return nil, nil, ErrPubkeyFormat
	}
	sig := new(blst.P2Affine).Uncompress(s.Signature)
	if sig == nil {
		return nil, nil, ErrSignatureFormat
	}
	return pk, sig, nil
}

// randomScalar fills scalar with fresh CSPRNG output. crypto/rand.Read
// never fails on supported platforms.
func randomScalar(scalar *blst.Scalar) {
	var b [scalarBytes]byte
	_, _ = rand.Read(b[:])
	scalar.FromBEndian(b[:])
}

// Key generation and signing helpers. The engine itself never signs; these
// exist so tests and tooling can build real signature sets.

// GenerateKey derives a key pair from at least 32 bytes of input key
// material. Returns the compressed public key and the serialized secret key.
func GenerateKey(ikm []byte) (pubkey, secret []byte, err error) {
	if len(ikm) < 32 {
		return nil, nil, ErrShortIKM
	}
	sk := blst.KeyGen(ikm)
	if sk == nil {
		return nil, nil, ErrKeyGen
	}
	pk := new(blst.P1Affine).From(sk)
	return pk.Compress(), sk.Serialize(), nil
}

// Sign signs msg with the serialized secret key, returning the compressed
// signature.
func Sign(secret, msg []byte) ([]byte, error) {
	sk := new(blst.SecretKey).Deserialize(secret)
	if sk == nil {
		return nil, ErrSecretKey
	}
	sig := new(blst.P2Affine).Sign(sk, msg, SignatureDST)
	if sig == nil {
		return nil, ErrSignFailed
	}
	return sig.Compress(), nil
}

// AggregatePublicKeys aggregates compressed public keys into one compressed
// aggregate key, for callers pre-aggregating same-message sets.
func AggregatePublicKeys(pubkeys [][]byte) ([]byte, error) {
	if len(pubkeys) == 0 {
		return nil, ErrEmptyBatch
	}
	agg := new(blst.P1Aggregate)
	if !agg.AggregateCompressed(pubkeys, true) {
		return nil, ErrPubkeyFormat
	}
	return agg.ToAffine().Compress(), nil
}

// AggregateSignatures aggregates compressed signatures into one compressed
// aggregate signature.
func AggregateSignatures(sigs [][]byte) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, ErrEmptyBatch
	}
	agg := new(blst.P2Aggregate)
	if !agg.AggregateCompressed(sigs, true) {
		return nil, ErrSignatureFormat
	}
	return agg.ToAffine().Compress(), nil
}

// Key handling errors.
var (
	ErrShortIKM   = errors.New("bls: IKM must be at least 32 bytes")
	ErrKeyGen     = errors.New("bls: key generation failed")
	ErrSecretKey  = errors.New("bls: invalid secret key bytes")
	ErrSignFailed = errors.New("bls: signing failed")
)
