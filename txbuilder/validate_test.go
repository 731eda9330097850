package txbuilder

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/stretchr/testify/require"
)

func TestValidateStakeTx(t *testing.T) {
	ctx := newTestContext(t)

	funding := fundingUtxo(t, ctx.validator, 0, 10_000)
	stakeTx, err := BuildStakeTx(ctx.validator, funding, ctx.witnessScript)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(tx *wire.MsgTx)
		kind   protocol.ShapeViolation
	}{{
		name: "version",
		mutate: func(tx *wire.MsgTx) {
			tx.Version = 1
		},
		kind: protocol.InvalidVersion,
	}, {
		name: "locktime",
		mutate: func(tx *wire.MsgTx) {
			tx.LockTime = 100
		},
		kind: protocol.InvalidLockTime,
	}, {
		name: "missing output",
		mutate: func(tx *wire.MsgTx) {
			tx.TxOut = tx.TxOut[:3]
		},
		kind: protocol.MissingOutput,
	}, {
		name: "stake value",
		mutate: func(tx *wire.MsgTx) {
			tx.TxOut[protocol.StakeValueOutput].Value = 3_000
		},
		kind: protocol.InvalidStakeValue,
	}, {
		name: "connector value",
		mutate: func(tx *wire.MsgTx) {
			tx.TxOut[protocol.ConnectorBOutput].Value = 999
		},
		kind: protocol.InvalidConnectorValue,
	}, {
		name: "connector script",
		mutate: func(tx *wire.MsgTx) {
			tx.TxOut[protocol.ConnectorAOutput].PkScript = funding.PkScript
		},
		kind: protocol.InvalidScriptPubKey,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := stakeTx.Copy()
			tc.mutate(tx)

			err := ValidateStakeTx(tx, ctx.committeePkScript)
			require.True(t, protocol.IsShapeViolation(err, tc.kind),
				"unexpected error: %v", err)
		})
	}
}

func TestValidatePresignedTx(t *testing.T) {
	ctx := newTestContext(t)

	stakeTxid := chainhash.Hash{0x07}
	assertTx, err := BuildAssertTx(
		ctx.validator, stakeTxid, ctx.witnessScript,
	)
	require.NoError(t, err)

	otherScript := append([]byte{}, ctx.witnessScript...)
	otherScript[len(otherScript)-1] ^= 0x01

	testCases := []struct {
		name   string
		mutate func(tx *wire.MsgTx)
		signer byte
		kind   protocol.ShapeViolation
	}{{
		name: "version",
		mutate: func(tx *wire.MsgTx) {
			tx.Version = 2
		},
		kind: protocol.InvalidVersion,
	}, {
		name: "locktime",
		mutate: func(tx *wire.MsgTx) {
			tx.LockTime = 1
		},
		kind: protocol.InvalidLockTime,
	}, {
		name: "no inputs",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn = nil
		},
		kind: protocol.MissingInput,
	}, {
		name: "input count",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn = tx.TxIn[:1]
		},
		kind: protocol.InvalidInputCount,
	}, {
		name: "previous output",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[1].PreviousOutPoint.Index = 2
		},
		kind: protocol.InvalidPreviousOutput,
	}, {
		name: "sequence",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[0].Sequence = 0
		},
		kind: protocol.InvalidSequence,
	}, {
		name: "outputs",
		mutate: func(tx *wire.MsgTx) {
			tx.AddTxOut(wire.NewTxOut(1, nil))
		},
		kind: protocol.OutputNotEmpty,
	}, {
		name: "no witness",
		mutate: func(tx *wire.MsgTx) {
			for _, txIn := range tx.TxIn {
				txIn.Witness = nil
			}
		},
		kind: protocol.NotSegwitTx,
	}, {
		name: "witness count",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[1].Witness = tx.TxIn[1].Witness[:1]
		},
		kind: protocol.InvalidWitnessCount,
	}, {
		name: "witness script",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[0].Witness[1] = otherScript
		},
		kind: protocol.WitnessInvalidScriptPubKey,
	}, {
		name: "garbage signature",
		mutate: func(tx *wire.MsgTx) {
			tx.TxIn[0].Witness[0] = []byte{0x01, 0x02}
		},
		kind: protocol.RecoverSignatureFailed,
	}, {
		name:   "foreign signature",
		mutate: func(tx *wire.MsgTx) {},
		signer: strangerSeed,
		kind:   protocol.VerifySignatureFailed,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := assertTx.Copy()
			tc.mutate(tx)

			signer := ctx.validator.PubKey()
			if tc.signer != 0 {
				signer = createTestPrivKey(tc.signer).PubKey()
			}

			err := ValidatePresignedTx(tx, AssertRules(
				stakeTxid, ctx.witnessScript, signer,
			))
			require.True(t, protocol.IsShapeViolation(err, tc.kind),
				"unexpected error: %v", err)
		})
	}
}

func TestShapeErrorMessages(t *testing.T) {
	ctx := newTestContext(t)

	challengeTx, err := BuildChallengeTx(
		ctx.validator, chainhash.Hash{0x08}, ctx.witnessScript,
	)
	require.NoError(t, err)
	challengeTx.Version = 2

	err = ValidatePresignedTx(
		challengeTx, CommitteeChallengeRules(ctx.witnessScript),
	)
	require.EqualError(t, err, "challenge tx has invalid version 2")
}
