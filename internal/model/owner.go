package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Owner identifies an account: a 32-byte key hash (or application account) or a 20-byte EVM address.
type Owner string

// AppID identifies an application instance.
type AppID string

// OwnerFromHash builds a 32-byte owner.
func OwnerFromHash(h common.Hash) Owner {
	return Owner(strings.ToLower(h.Hex()))
}

// OwnerFromAddress builds a 20-byte owner.
func OwnerFromAddress(addr common.Address) Owner {
	return Owner(strings.ToLower(addr.Hex()))
}

// AppOwner returns the custody account of an application.
func AppOwner(id AppID) Owner {
	return Owner(id)
}

// ParseOwner validates and normalizes an owner string.
func ParseOwner(input string) (Owner, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("invalid owner %q: %w", input, err)
	}
	switch len(data) {
	case common.HashLength:
		return OwnerFromHash(common.BytesToHash(data)), nil
	case common.AddressLength:
		return OwnerFromAddress(common.BytesToAddress(data)), nil
	default:
		return "", fmt.Errorf("invalid owner length %d: %s", len(data), input)
	}
}

// ParseAppID validates and normalizes an application id.
func ParseAppID(input string) (AppID, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("invalid app id %q: %w", input, err)
	}
	if len(data) != common.HashLength {
		return "", fmt.Errorf("invalid app id length %d: %s", len(data), input)
	}
	return AppID(strings.ToLower(common.BytesToHash(data).Hex())), nil
}

// Bytes returns the raw identity bytes.
func (o Owner) Bytes() []byte {
	data, err := hexutil.Decode(string(o))
	if err != nil {
		return nil
	}
	return data
}

func (o Owner) IsZero() bool {
	return o == ""
}

func (o Owner) String() string {
	return string(o)
}

func (o *Owner) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*o = ""
		return nil
	}
	parsed, err := ParseOwner(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (id AppID) String() string {
	return string(id)
}

func (id *AppID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ""
		return nil
	}
	parsed, err := ParseAppID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
