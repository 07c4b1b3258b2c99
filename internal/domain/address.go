package domain

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for malformed source addresses.
var ErrInvalidAddress = errors.New("invalid address")

const (
	addressLen  = 25 // version byte + 20-byte hash + 4-byte checksum
	checksumLen = 4
)

// ValidateAddress checks that addr is a base58check encoded address.
func ValidateAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, err)
	}
	if len(raw) != addressLen {
		return fmt.Errorf("%w %q: length %d", ErrInvalidAddress, addr, len(raw))
	}

	payload := raw[:addressLen-checksumLen]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:checksumLen], raw[addressLen-checksumLen:]) {
		return fmt.Errorf("%w %q: bad checksum", ErrInvalidAddress, addr)
	}
	return nil
}

// ValidateAddresses validates every address and returns a deduplicated copy,
// preserving first-seen order.
func ValidateAddresses(addrs []string) ([]string, error) {
	out := make([]string, 0, len(addrs))
	seen := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		if err := ValidateAddress(a); err != nil {
			return nil, err
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}
