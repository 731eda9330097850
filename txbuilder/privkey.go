package txbuilder

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fiamma-chain/fcli/protocol"
)

// KeyKind tells which encoding a private key was given in.
type KeyKind uint8

const (
	// KeyKindWIF is a wallet import format key.
	KeyKindWIF KeyKind = iota

	// KeyKindExtended is a BIP32 extended private key. Its own key is
	// used, no child is derived.
	KeyKindExtended
)

func (k KeyKind) String() string {
	switch k {
	case KeyKindWIF:
		return "wif"

	case KeyKindExtended:
		return "xprv"

	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// PrivateKey is a signing key normalized from one of the supported string
// encodings.
type PrivateKey struct {
	Kind KeyKind
	Key  *btcec.PrivateKey
}

// ParsePrivateKey parses a WIF or an extended private key for the given
// network.
func ParsePrivateKey(s string, params *chaincfg.Params) (*PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty key", protocol.ErrInvalidPrivateKey)
	}

	if wif, err := btcutil.DecodeWIF(s); err == nil {
		if !wif.IsForNet(params) {
			return nil, fmt.Errorf("%w: WIF is not for network %s",
				protocol.ErrInvalidPrivateKey, params.Name)
		}

		return &PrivateKey{Kind: KeyKindWIF, Key: wif.PrivKey}, nil
	}

	extendedKey, err := hdkeychain.NewKeyFromString(s)
	if err != nil {
		return nil, protocol.ErrInvalidPrivateKey
	}

	if !extendedKey.IsPrivate() {
		return nil, fmt.Errorf("%w: extended key is public",
			protocol.ErrInvalidPrivateKey)
	}

	if !extendedKey.IsForNet(params) {
		return nil, fmt.Errorf("%w: extended key is not for network %s",
			protocol.ErrInvalidPrivateKey, params.Name)
	}

	privKey, err := extendedKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidPrivateKey,
			err)
	}

	return &PrivateKey{Kind: KeyKindExtended, Key: privKey}, nil
}
