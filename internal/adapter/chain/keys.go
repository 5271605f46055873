package chain

import (
	"fmt"

	"custodial-ledger/internal/core/domain"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyGenerator implements ports.KeyGenerator with secp256k1 keys.
type KeyGenerator struct{}

// NewKeyGenerator creates a KeyGenerator.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{}
}

// Generate returns a fresh address and its hex private key.
func (k *KeyGenerator) Generate() (*domain.KeyPair, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &domain.KeyPair{
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Secret:  hexutil.Encode(crypto.FromECDSA(key)),
	}, nil
}
