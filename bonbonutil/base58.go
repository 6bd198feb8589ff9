package bonbonutil

import "github.com/mr-tron/base58"

// Base58ToBytes decodes a base58 string.
func Base58ToBytes(s string) ([]byte, error) {
	return base58.Decode(s)
}
