package txbuilder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/lnd/input"
)

// TaprootKeySpendAddress returns the BIP86 address of the given internal key.
// The output key commits to no script tree, so it can only be spent through
// the key path.
func TaprootKeySpendAddress(internalKey *btcec.PublicKey,
	params *chaincfg.Params) (*btcutil.AddressTaproot, error) {

	taprootKey := txscript.ComputeTaprootKeyNoScript(internalKey)
	return btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(taprootKey), params,
	)
}

// TaprootKeySpendAddressFromXOnly is TaprootKeySpendAddress for a serialized
// 32 byte x-only internal key.
func TaprootKeySpendAddressFromXOnly(xOnly []byte,
	params *chaincfg.Params) (*btcutil.AddressTaproot, error) {

	internalKey, err := schnorr.ParsePubKey(xOnly)
	if err != nil {
		return nil, fmt.Errorf("error parsing x-only key: %w", err)
	}

	return TaprootKeySpendAddress(internalKey, params)
}

// TaprootKeySpendPkScript returns the BIP86 output script of the given internal
// key.
func TaprootKeySpendPkScript(internalKey *btcec.PublicKey) ([]byte, error) {
	taprootKey := txscript.ComputeTaprootKeyNoScript(internalKey)
	return txscript.PayToTaprootScript(taprootKey)
}

// P2WSHMultisigAddress returns the P2WSH address of the committee's multisig
// witness script.
func P2WSHMultisigAddress(witnessScript []byte,
	params *chaincfg.Params) (*btcutil.AddressWitnessScriptHash, error) {

	if len(witnessScript) == 0 {
		return nil, fmt.Errorf("empty witness script")
	}

	scriptHash := sha256.Sum256(witnessScript)
	return btcutil.NewAddressWitnessScriptHash(scriptHash[:], params)
}

// P2WSHPkScript returns the P2WSH output script of a witness script.
func P2WSHPkScript(witnessScript []byte) ([]byte, error) {
	if len(witnessScript) == 0 {
		return nil, fmt.Errorf("empty witness script")
	}

	return input.WitnessScriptHash(witnessScript)
}

// ParseAddress decodes an address and makes sure it belongs to the given
// network.
func ParseAddress(addr string, params *chaincfg.Params) (btcutil.Address,
	error) {

	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, fmt.Errorf("unable to decode address %s: %w", addr,
			err)
	}

	if !decoded.IsForNet(params) {
		return nil, fmt.Errorf("address: %v is not valid for this "+
			"network: %v", decoded.String(), params.Name)
	}

	return decoded, nil
}

// KeyInfo bundles everything the tools derive from a signing key.
type KeyInfo struct {
	// PubKey is the compressed public key in hex. The committee derives
	// the multisig script for a validator from it.
	PubKey string

	// XOnlyPubKey is the BIP340 encoding of the internal key in hex.
	XOnlyPubKey string

	// Address is the BIP86 address of the key.
	Address *btcutil.AddressTaproot

	// PkScript is the output script of Address.
	PkScript []byte
}

// DeriveKeyInfo derives the public key encodings and the BIP86 address of a
// private key.
func DeriveKeyInfo(privKey *btcec.PrivateKey,
	params *chaincfg.Params) (*KeyInfo, error) {

	pubKey := privKey.PubKey()
	addr, err := TaprootKeySpendAddress(pubKey, params)
	if err != nil {
		return nil, fmt.Errorf("could not create address: %w", err)
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("could not create script: %w", err)
	}

	return &KeyInfo{
		PubKey:      hex.EncodeToString(pubKey.SerializeCompressed()),
		XOnlyPubKey: hex.EncodeToString(schnorr.SerializePubKey(pubKey)),
		Address:     addr,
		PkScript:    pkScript,
	}, nil
}
