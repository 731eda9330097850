package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/fiamma-chain/fcli/btc"
	"github.com/fiamma-chain/fcli/txbuilder"
	"github.com/spf13/cobra"
)

func newTxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Build, inspect and publish protocol transactions",
	}
	cmd.AddCommand(
		newTxAddressCommand(),
		newTxStakeCommand(),
		newTxAssertCommand(),
		newTxPublishCommand(),
		newTxInfoCommand(),
	)

	return cmd
}

type txAddressCommand struct {
	PubKey string

	signer *signerFlags
	cmd    *cobra.Command
}

func newTxAddressCommand() *cobra.Command {
	cc := &txAddressCommand{}
	cc.cmd = &cobra.Command{
		Use: "address",
		Short: "Show the committee multisig address of a validator " +
			"key",
		Long: `Asks the committee for the multisig witness script it uses
for the given validator public key and shows the resulting P2WSH address. If a
private key is given instead, its BIP86 funding address and descriptor are
shown as well.`,
		Example: `fcli tx address --pubkey 02abcd...

fcli tx address --privkey cVt4o7BGAig1UXywgGSmARhxMdzP5qvQsxKkSsc1XEkw3tDTQFpy`,
		RunE: cc.Execute,
	}
	cc.cmd.Flags().StringVarP(
		&cc.PubKey, "pubkey", "p", "", "compressed public key of the "+
			"validator in hex",
	)
	cc.signer = newSignerFlags(cc.cmd, "nothing, only derive addresses")

	return cc.cmd
}

func (c *txAddressCommand) Execute(_ *cobra.Command, _ []string) error {
	var (
		privKey *txbuilder.PrivateKey
		keyInfo *txbuilder.KeyInfo
	)
	switch {
	case c.PubKey != "":
		pubKeyBytes, err := hex.DecodeString(c.PubKey)
		if err != nil {
			return fmt.Errorf("error decoding pubkey: %w", err)
		}
		if _, err := btcec.ParsePubKey(pubKeyBytes); err != nil {
			return fmt.Errorf("error parsing pubkey: %w", err)
		}

	default:
		if c.signer.PrivKey == "" && lookupPrivKeyEnv() == "" {
			return errors.New("either a public or a private key " +
				"must be specified")
		}

		var err error
		privKey, keyInfo, err = c.signer.parse()
		if err != nil {
			return err
		}
		c.PubKey = keyInfo.PubKey
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	script, err := client.MultiSigScript(ctx, c.PubKey)
	if err != nil {
		return fmt.Errorf("error fetching multisig script: %w", err)
	}

	addr, err := txbuilder.P2WSHMultisigAddress(script, cfg.Params)
	if err != nil {
		return err
	}

	result := fmt.Sprintf("Public key: %s\nMultisig script: %x\n"+
		"Committee address: %s", c.PubKey, script, addr)
	if privKey != nil {
		descriptor, err := btc.TaprootDescriptor(privKey.Key.PubKey())
		if err != nil {
			return err
		}
		result += fmt.Sprintf("\nFunding address: %s\nDescriptor: %s",
			keyInfo.Address, descriptor)
	}
	printResult("%s", result)

	return nil
}

type txStakeCommand struct {
	Publish bool

	signer  *signerFlags
	funding *fundingFlags
	cmd     *cobra.Command
}

func newTxStakeCommand() *cobra.Command {
	cc := &txStakeCommand{}
	cc.cmd = &cobra.Command{
		Use:   "stake",
		Short: "Build and sign the stake transaction",
		Long: `Spends a BIP86 output of the signing key into the stake
transaction. The stake value and the connector outputs are locked to the
committee multisig, the rest of the funds go back to the key's address.

The transaction is only printed, the committee publishes it once the
registration is accepted. Use --publish to broadcast it right away.`,
		Example: `fcli tx stake --privkey cVt4o7... \
	--txid 3a0c...e1 --vout 0`,
		RunE: cc.Execute,
	}
	cc.cmd.Flags().BoolVar(
		&cc.Publish, "publish", false, "publish the signed "+
			"transaction to the chain backend",
	)
	cc.signer = newSignerFlags(cc.cmd, "the stake transaction")
	cc.funding = newFundingFlags(cc.cmd, "funding output")

	return cc.cmd
}

func (c *txStakeCommand) Execute(_ *cobra.Command, _ []string) error {
	privKey, keyInfo, err := c.signer.parse()
	if err != nil {
		return err
	}

	funding, err := c.funding.resolve(keyInfo, privKey)
	if err != nil {
		return err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	script, err := client.MultiSigScript(ctx, keyInfo.PubKey)
	if err != nil {
		return fmt.Errorf("error fetching multisig script: %w", err)
	}

	stakeTx, err := txbuilder.BuildStakeTx(privKey.Key, funding, script)
	if err != nil {
		return err
	}

	committeePkScript, err := txbuilder.P2WSHPkScript(script)
	if err != nil {
		return err
	}
	if err := txbuilder.ValidateStakeTx(
		stakeTx, committeePkScript,
	); err != nil {

		return err
	}

	txHex, err := txbuilder.EncodeTx(stakeTx)
	if err != nil {
		return err
	}

	printResult("Stake tx %v:\n%s", stakeTx.TxHash(), txHex)

	if !c.Publish {
		return nil
	}

	txid, err := publishTx(stakeTx)
	if err != nil {
		return fmt.Errorf("error publishing stake tx: %w", err)
	}
	printResult("Published stake tx %v", txid)

	return nil
}

type txAssertCommand struct {
	signer  *signerFlags
	funding *fundingFlags
	cmd     *cobra.Command
}

func newTxAssertCommand() *cobra.Command {
	cc := &txAssertCommand{}
	cc.cmd = &cobra.Command{
		Use:   "assert",
		Short: "Build and sign the validator's part of the assert " +
			"transaction",
		Long: `Builds the stake transaction from the given funding output
and signs the assert transaction spending it. The signature only commits to
the assert transaction's inputs, the committee adds the outputs.`,
		Example: `fcli tx assert --privkey cVt4o7... \
	--txid 3a0c...e1 --vout 0`,
		RunE: cc.Execute,
	}
	cc.signer = newSignerFlags(cc.cmd, "the transactions")
	cc.funding = newFundingFlags(cc.cmd, "stake funding output")

	return cc.cmd
}

func (c *txAssertCommand) Execute(_ *cobra.Command, _ []string) error {
	set, _, err := buildPresignedSet(c.signer, c.funding)
	if err != nil {
		return err
	}

	txHex, err := txbuilder.EncodeTx(set.Assert)
	if err != nil {
		return err
	}

	printResult("Assert tx spending stake tx %v:\n%s", set.Stake.TxHash(),
		txHex)

	return nil
}

type txPublishCommand struct {
	TxHex string

	cmd *cobra.Command
}

func newTxPublishCommand() *cobra.Command {
	cc := &txPublishCommand{}
	cc.cmd = &cobra.Command{
		Use:     "publish",
		Short:   "Publish a fully signed transaction",
		Example: `fcli tx publish --tx 02000000000101...`,
		RunE:    cc.Execute,
	}
	cc.cmd.Flags().StringVar(
		&cc.TxHex, "tx", "", "hex encoded signed transaction",
	)

	return cc.cmd
}

func (c *txPublishCommand) Execute(_ *cobra.Command, _ []string) error {
	tx, err := txbuilder.DecodeTx(c.TxHex)
	if err != nil {
		return err
	}

	txid, err := publishTx(tx)
	if err != nil {
		return fmt.Errorf("error publishing tx %v: %w", tx.TxHash(), err)
	}

	printResult("Published tx %v", txid)

	return nil
}

type txInfoCommand struct {
	Txid string

	cmd *cobra.Command
}

func newTxInfoCommand() *cobra.Command {
	cc := &txInfoCommand{}
	cc.cmd = &cobra.Command{
		Use:   "info",
		Short: "Show the confirmation status and outputs of a transaction",
		Example: `fcli tx info --txid 3a0c...e1

fcli --chainsource explorer tx info --txid 3a0c...e1`,
		RunE: cc.Execute,
	}
	cc.cmd.Flags().StringVarP(
		&cc.Txid, "txid", "t", "", "id of the transaction",
	)

	return cc.cmd
}

func (c *txInfoCommand) Execute(_ *cobra.Command, _ []string) error {
	txid, err := txbuilder.ParseTxid(c.Txid)
	if err != nil {
		return err
	}

	chain, cleanup, err := newChainSource()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := chain.TxInfo(*txid)
	if err != nil {
		return err
	}

	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Transaction %v\n", info.Txid)
	if info.Confirmed {
		_, _ = fmt.Fprintf(&b, "Confirmed in block %d (%s)\n",
			info.BlockHeight, info.BlockHash)
	} else {
		_, _ = fmt.Fprintln(&b, "Unconfirmed")
	}
	for idx, out := range info.Outputs {
		spent := "unspent"
		if out.Spent {
			spent = "spent"
		}
		_, _ = fmt.Fprintf(&b, "Output %d: %v to %s (%s)\n", idx,
			out.Value, outputTarget(out), spent)
	}
	printResult("%s", strings.TrimSuffix(b.String(), "\n"))

	return nil
}

func outputTarget(out *btc.OutputInfo) string {
	if out.Address != "" {
		return out.Address
	}

	return hex.EncodeToString(out.PkScript)
}

// buildPresignedSet resolves the funding output of the signer, fetches the
// signer's committee multisig script and builds the stake, assert and
// challenge transactions.
func buildPresignedSet(signer *signerFlags,
	funding *fundingFlags) (*txbuilder.PresignedSet, *txbuilder.KeyInfo,
	error) {

	privKey, keyInfo, err := signer.parse()
	if err != nil {
		return nil, nil, err
	}

	utxo, err := funding.resolve(keyInfo, privKey)
	if err != nil {
		return nil, nil, err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := callContext()
	defer cancel()

	script, err := client.MultiSigScript(ctx, keyInfo.PubKey)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching multisig script: "+
			"%w", err)
	}

	set, err := txbuilder.BuildPresignedSet(privKey.Key, utxo, script)
	if err != nil {
		return nil, nil, err
	}

	return set, keyInfo, nil
}
