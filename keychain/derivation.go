// Package keychain derives the per-channel key material this engine needs
// from the single 32-byte seed the supervisor hands it at init: the funding
// private key, the three basepoint secrets, the shaseed used to generate
// per-commitment secrets, and the first per-commitment point computed from
// that shaseed.
package keychain

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/hkdf"

	"github.com/lnopeningd/openingd/shachain"
)

// hkdfInfo is the domain-separation label mixed into the HKDF expand step.
// It matches the label used by the node software this engine's derivation
// scheme was inherited from, and must not change without also changing the
// resulting seed-to-key mapping.
const hkdfInfo = "c-lightning"

// firstPerCommitmentIndex is the shachain index of the first commitment a
// channel ever produces. BOLT #3 decrements from here with every new
// commitment.
const firstPerCommitmentIndex = shachain.MaxIndex

// Points holds the four public basepoints a channel side reveals to its
// peer in open_channel/accept_channel.
type Points struct {
	FundingKey              *btcec.PublicKey
	RevocationBasepoint     *btcec.PublicKey
	PaymentBasepoint        *btcec.PublicKey
	DelayedPaymentBasepoint *btcec.PublicKey
}

// Secrets holds the four private scalars backing Points. None of these
// ever go on the wire.
type Secrets struct {
	FundingKey              *btcec.PrivateKey
	RevocationBasepoint     *btcec.PrivateKey
	PaymentBasepoint        *btcec.PrivateKey
	DelayedPaymentBasepoint *btcec.PrivateKey
}

// Derived bundles everything DeriveAll produces from a single seed.
type Derived struct {
	Points         Points
	Secrets        Secrets
	ShaSeed        [32]byte
	FirstPerCommit *btcec.PublicKey
}

// derivedKeyMaterial is the fixed-layout structure HKDF output is read
// into: four 32-byte private scalars followed by the 32-byte shaseed, for
// a total expand length of 160 bytes.
type derivedKeyMaterial struct {
	funding        [32]byte
	revocation     [32]byte
	payment        [32]byte
	delayedPayment [32]byte
	shaSeed        [32]byte
}

const derivedKeyMaterialLen = 5 * 32

// DeriveAll expands seed into the full set of per-channel key material via
// HKDF-SHA256 with an empty salt and the "c-lightning" info label, then
// derives the first per-commitment point from the resulting shaseed.
//
// DeriveAll is deterministic: the same seed always yields the same
// Derived value.
func DeriveAll(seed [32]byte) (*Derived, error) {
	reader := hkdf.New(sha256.New, seed[:], nil, []byte(hkdfInfo))

	var raw [derivedKeyMaterialLen]byte
	if _, err := io.ReadFull(reader, raw[:]); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}

	material := derivedKeyMaterial{}
	copy(material.funding[:], raw[0:32])
	copy(material.revocation[:], raw[32:64])
	copy(material.payment[:], raw[64:96])
	copy(material.delayedPayment[:], raw[96:128])
	copy(material.shaSeed[:], raw[128:160])

	fundingKey, err := privKeyFromBytes(material.funding)
	if err != nil {
		return nil, fmt.Errorf("derive funding key: %w", err)
	}
	revocationKey, err := privKeyFromBytes(material.revocation)
	if err != nil {
		return nil, fmt.Errorf("derive revocation basepoint: %w", err)
	}
	paymentKey, err := privKeyFromBytes(material.payment)
	if err != nil {
		return nil, fmt.Errorf("derive payment basepoint: %w", err)
	}
	delayedPaymentKey, err := privKeyFromBytes(material.delayedPayment)
	if err != nil {
		return nil, fmt.Errorf("derive delayed payment basepoint: %w", err)
	}

	secrets := Secrets{
		FundingKey:              fundingKey,
		RevocationBasepoint:     revocationKey,
		PaymentBasepoint:        paymentKey,
		DelayedPaymentBasepoint: delayedPaymentKey,
	}

	points := Points{
		FundingKey:              secrets.FundingKey.PubKey(),
		RevocationBasepoint:     secrets.RevocationBasepoint.PubKey(),
		PaymentBasepoint:        secrets.PaymentBasepoint.PubKey(),
		DelayedPaymentBasepoint: secrets.DelayedPaymentBasepoint.PubKey(),
	}

	firstSecret := shachain.FirstSecretFromSeed(material.shaSeed)
	_, firstPerCommitPub := btcec.PrivKeyFromBytes(firstSecret[:])

	return &Derived{
		Points:         points,
		Secrets:        secrets,
		ShaSeed:        material.shaSeed,
		FirstPerCommit: firstPerCommitPub,
	}, nil
}

// privKeyFromBytes rejects a derived scalar that overflows the secp256k1
// group order or reduces to zero, mirroring lnwire.Sig.ToSignature's
// ModNScalar.SetByteSlice overflow check. A fatal derivation failure here
// must surface to the caller rather than silently producing an invalid
// key.
func privKeyFromBytes(b [32]byte) (*btcec.PrivateKey, error) {
	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(b[:])
	if overflow {
		return nil, fmt.Errorf("scalar overflows mod N")
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("scalar is zero")
	}

	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv, nil
}
