package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces an ECDSA signature over an order hash. Wallet integrations
// may prompt the user and should honour ctx cancellation.
type Signer interface {
	SignOrderHash(ctx context.Context, orderHash string) (ECSignature, error)
}

// SignerFunc adapts a function to the Signer interface
type SignerFunc func(ctx context.Context, orderHash string) (ECSignature, error)

func (f SignerFunc) SignOrderHash(ctx context.Context, orderHash string) (ECSignature, error) {
	return f(ctx, orderHash)
}

// PrivateKeySigner signs order hashes with a local secp256k1 key
type PrivateKeySigner struct {
	privateKey *ecdsa.PrivateKey
}

// NewPrivateKeySigner parses a hex private key, with or without 0x prefix
func NewPrivateKeySigner(privateKeyHex string) (*PrivateKeySigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &PrivateKeySigner{privateKey: privateKey}, nil
}

// Address returns the address of the signing key
func (s *PrivateKeySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.privateKey.PublicKey)
}

// SignOrderHash signs the 32 hash bytes directly, the personal message
// wrapping is already part of the order hash
func (s *PrivateKeySigner) SignOrderHash(ctx context.Context, orderHash string) (ECSignature, error) {
	if err := ctx.Err(); err != nil {
		return ECSignature{}, err
	}

	hash, err := decodeOrderHash(orderHash)
	if err != nil {
		return ECSignature{}, err
	}

	signature, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return ECSignature{}, fmt.Errorf("failed to sign order hash: %w", err)
	}

	return ECSignature{
		V: signature[64] + 27,
		R: hexutil.Encode(signature[:32]),
		S: hexutil.Encode(signature[32:64]),
	}, nil
}

// RecoverSigner returns the address that produced sig over orderHash
func RecoverSigner(orderHash string, sig ECSignature) (common.Address, error) {
	hash, err := decodeOrderHash(orderHash)
	if err != nil {
		return common.Address{}, err
	}

	r, err := hexutil.Decode(sig.R)
	if err != nil || len(r) != 32 {
		return common.Address{}, fmt.Errorf("%w: bad r", ErrInvalidSignature)
	}
	s, err := hexutil.Decode(sig.S)
	if err != nil || len(s) != 32 {
		return common.Address{}, fmt.Errorf("%w: bad s", ErrInvalidSignature)
	}

	v := sig.V
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("%w: bad v %d", ErrInvalidSignature, sig.V)
	}

	raw := make([]byte, 0, 65)
	raw = append(raw, r...)
	raw = append(raw, s...)
	raw = append(raw, v)

	pub, err := crypto.SigToPub(hash, raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// IsValidSignature reports whether sig over orderHash was produced by signer
func IsValidSignature(orderHash string, sig ECSignature, signer string) bool {
	addr, err := RecoverSigner(orderHash, sig)
	if err != nil {
		return false
	}
	return strings.EqualFold(addr.Hex(), signer)
}

// DidUserDenyRequest classifies provider errors caused by the user rejecting
// the request in their wallet
func DidUserDenyRequest(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserDenied) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "user denied")
}

func decodeOrderHash(orderHash string) ([]byte, error) {
	if !IsValidOrderHash(orderHash) {
		return nil, fmt.Errorf("invalid order hash: %q", orderHash)
	}
	hash, err := hexutil.Decode(orderHash)
	if err != nil {
		return nil, fmt.Errorf("invalid order hash: %w", err)
	}
	return hash, nil
}
