package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"wcnotify/internal/domain"
)

// Envelope layouts:
//
//	type-0: 0x00 || nonce(12) || ciphertext
//	type-1: 0x01 || senderPub(32) || nonce(12) || ciphertext
//
// The cipher is ChaCha20-Poly1305 keyed with the topic's symmetric key.

const envelopeNonceSize = chacha20poly1305.NonceSize

func sealEnvelope(typ domain.EnvelopeType, senderPub []byte, key [32]byte, payload []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, envelopeNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(senderPub)+len(nonce)+len(payload)+aead.Overhead())
	out = append(out, byte(typ))
	out = append(out, senderPub...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, payload, nil), nil
}

func openEnvelope(key [32]byte, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}

// splitEnvelope separates an envelope into its type, optional sender public
// key, nonce and ciphertext.
func splitEnvelope(env []byte) (typ domain.EnvelopeType, senderPub, nonce, ct []byte, err error) {
	if len(env) < 1+envelopeNonceSize {
		return 0, nil, nil, nil, fmt.Errorf("envelope too short: %d bytes", len(env))
	}
	typ = domain.EnvelopeType(env[0])
	rest := env[1:]
	switch typ {
	case domain.EnvelopeType0:
	case domain.EnvelopeType1:
		if len(rest) < 32+envelopeNonceSize {
			return 0, nil, nil, nil, fmt.Errorf("type-1 envelope too short: %d bytes", len(env))
		}
		senderPub, rest = rest[:32], rest[32:]
	default:
		return 0, nil, nil, nil, fmt.Errorf("unknown envelope type %d", env[0])
	}
	nonce, ct = rest[:envelopeNonceSize], rest[envelopeNonceSize:]
	return typ, senderPub, nonce, ct, nil
}
