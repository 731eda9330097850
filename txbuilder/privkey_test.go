package txbuilder

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/stretchr/testify/require"
)

func TestParsePrivateKeyWIF(t *testing.T) {
	privKey := createTestPrivKey(validatorSeed)

	wif, err := btcutil.NewWIF(privKey, &chaincfg.RegressionNetParams, true)
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(
		" "+wif.String()+"\n", &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	require.Equal(t, KeyKindWIF, parsed.Kind)
	require.Equal(t, privKey.Serialize(), parsed.Key.Serialize())

	_, err = ParsePrivateKey(wif.String(), &chaincfg.MainNetParams)
	require.ErrorIs(t, err, protocol.ErrInvalidPrivateKey)
}

func TestParsePrivateKeyExtended(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, hdkeychain.RecommendedSeedLen)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	expected, err := master.ECPrivKey()
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(
		master.String(), &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	require.Equal(t, KeyKindExtended, parsed.Kind)
	require.Equal(t, "xprv", parsed.Kind.String())
	require.Equal(t, expected.Serialize(), parsed.Key.Serialize())

	_, err = ParsePrivateKey(master.String(), &chaincfg.MainNetParams)
	require.ErrorIs(t, err, protocol.ErrInvalidPrivateKey)

	public, err := master.Neuter()
	require.NoError(t, err)

	_, err = ParsePrivateKey(public.String(), &chaincfg.RegressionNetParams)
	require.ErrorIs(t, err, protocol.ErrInvalidPrivateKey)
}

func TestParsePrivateKeyInvalid(t *testing.T) {
	testCases := []string{
		"",
		"   ",
		"not a key",
		hex.EncodeToString(bytes.Repeat([]byte{0x01}, 32)),
	}

	for _, tc := range testCases {
		_, err := ParsePrivateKey(tc, &chaincfg.RegressionNetParams)
		require.ErrorIs(t, err, protocol.ErrInvalidPrivateKey, tc)
	}
}
