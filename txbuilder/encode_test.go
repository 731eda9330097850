package txbuilder

import (
	"strings"
	"testing"

	"github.com/fiamma-chain/fcli/protocol"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTx(t *testing.T) {
	ctx := newTestContext(t)

	funding := fundingUtxo(t, ctx.validator, 0, 10_000)
	stakeTx, err := BuildStakeTx(ctx.validator, funding, ctx.witnessScript)
	require.NoError(t, err)

	txHex, err := EncodeTx(stakeTx)
	require.NoError(t, err)
	require.Equal(t, strings.ToLower(txHex), txHex)

	decoded, err := DecodeTx(txHex + "\n")
	require.NoError(t, err)
	require.Equal(t, stakeTx.TxHash(), decoded.TxHash())
	require.Equal(t, stakeTx.WitnessHash(), decoded.WitnessHash())

	for _, invalid := range []string{"zz", "00", txHex[:len(txHex)-2]} {
		_, err := DecodeTx(invalid)
		require.ErrorIs(t, err, protocol.ErrInvalidTxHex)
	}
}

func TestParseTxid(t *testing.T) {
	const txid = "f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9" +
		"831e9e16"

	hash, err := ParseTxid(txid)
	require.NoError(t, err)
	require.Equal(t, txid, hash.String())

	_, err = ParseTxid(txid[:10])
	require.Error(t, err)

	_, err = ParseTxid(txid + "00")
	require.Error(t, err)

	_, err = ParseTxid(strings.Repeat("g", 64))
	require.Error(t, err)
}
