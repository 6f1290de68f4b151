package ton

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

var (
	ErrEmptyAddress   = errors.New("wallet address is empty")
	ErrWrongNetwork   = errors.New("wallet address belongs to another network")
	ErrInvalidAddress = errors.New("invalid wallet address")
)

// NormalizeAddress parses a user-friendly (base64) or raw ("0:<hex>") TON
// address and returns its user-friendly form. Testnet-only addresses are
// refused unless testnet is set.
func NormalizeAddress(raw string, testnet bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyAddress
	}

	var (
		addr *address.Address
		err  error
	)
	if strings.Contains(raw, ":") {
		addr, err = address.ParseRawAddr(raw)
	} else {
		addr, err = address.ParseAddr(raw)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	if addr.IsTestnetOnly() && !testnet {
		return "", ErrWrongNetwork
	}
	if testnet {
		addr.SetTestnetOnly(true)
	}
	return addr.String(), nil
}
