package main

import (
	"errors"
	"fmt"

	"github.com/fiamma-chain/fcli/protocol"
	"github.com/fiamma-chain/fcli/txbuilder"
	"github.com/spf13/cobra"
)

func newRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a validator with the committee",
		Long: `Registration happens in two steps. The start step hands the
signed stake transaction and the validator's half of the assert and challenge
transactions to the committee. Once the committee has co-signed the assert
transactions, the finish step signs one disprove transaction for each
registered circuit.`,
	}
	cmd.AddCommand(
		newRegisterStartCommand(),
		newRegisterFinishCommand(),
	)

	return cmd
}

func addValidatorKeyFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(
		target, "validatorkey", "v", "", "Fiamma validator key, for "+
			"example fiammavaloper19fldhw0awjv2ag7dz0lr3d4qmnfkxz"+
			"69vukt7x",
	)
}

type registerStartCommand struct {
	ValidatorKey string

	signer  *signerFlags
	funding *fundingFlags
	cmd     *cobra.Command
}

func newRegisterStartCommand() *cobra.Command {
	cc := &registerStartCommand{}
	cc.cmd = &cobra.Command{
		Use:   "start",
		Short: "Start the registration of a validator",
		Example: `fcli register start --validatorkey fiammavaloper1... \
	--txid d54d867a330aee1500d648792ad0aaee3d9019f806e6ab514e995472e2696e15 \
	--vout 0 --privkey tprv8jzau9Cf...`,
		RunE: cc.Execute,
	}
	addValidatorKeyFlag(cc.cmd, &cc.ValidatorKey)
	cc.signer = newSignerFlags(cc.cmd, "the stake, assert and challenge "+
		"transactions")
	cc.funding = newFundingFlags(cc.cmd, "stake funding output")

	return cc.cmd
}

func (c *registerStartCommand) Execute(_ *cobra.Command, _ []string) error {
	if c.ValidatorKey == "" {
		return errors.New("validator key must be specified")
	}

	set, keyInfo, err := buildPresignedSet(c.signer, c.funding)
	if err != nil {
		return err
	}

	stakeHex, err := txbuilder.EncodeTx(set.Stake)
	if err != nil {
		return err
	}
	assertHex, err := txbuilder.EncodeTx(set.Assert)
	if err != nil {
		return err
	}
	challengeHex, err := txbuilder.EncodeTx(set.Challenge)
	if err != nil {
		return err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	registerID, err := client.StartRegister(ctx, protocol.NewRegisterRequest(
		c.ValidatorKey, keyInfo.PubKey, stakeHex, assertHex,
		challengeHex,
	))
	if err != nil {
		return fmt.Errorf("error starting registration: %w", err)
	}

	log.Infof("Registered stake tx %v for validator %s",
		set.Stake.TxHash(), c.ValidatorKey)

	printResult("You have submitted your registration application.\n"+
		"The registration number is %d, please wait patiently.",
		registerID)

	return nil
}

type registerFinishCommand struct {
	ValidatorKey string

	signer *signerFlags
	cmd    *cobra.Command
}

func newRegisterFinishCommand() *cobra.Command {
	cc := &registerFinishCommand{}
	cc.cmd = &cobra.Command{
		Use:   "finish",
		Short: "Finish the registration of a validator",
		Long: `Fetches the committee-signed assert transaction of every
registered circuit and signs a disprove transaction spending its connector C
output.`,
		Example: `fcli register finish --validatorkey fiammavaloper1... \
	--privkey tprv8jzau9Cf...`,
		RunE: cc.Execute,
	}
	addValidatorKeyFlag(cc.cmd, &cc.ValidatorKey)
	cc.signer = newSignerFlags(cc.cmd, "the disprove transactions")

	return cc.cmd
}

func (c *registerFinishCommand) Execute(_ *cobra.Command, _ []string) error {
	if c.ValidatorKey == "" {
		return errors.New("validator key must be specified")
	}

	privKey, keyInfo, err := c.signer.parse()
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

	assertTxs, err := client.CommitteeAssertTxs(
		ctx, &protocol.QueryAssertTxReq{ValidatorKey: c.ValidatorKey},
	)
	if err != nil {
		return fmt.Errorf("error fetching assert txs: %w", err)
	}
	if len(assertTxs) == 0 {
		return fmt.Errorf("committee has no assert tx for validator %s",
			c.ValidatorKey)
	}

	for _, assert := range assertTxs {
		tx, err := txbuilder.DecodeTx(assert.TxHex)
		if err != nil {
			return fmt.Errorf("error decoding assert tx of circuit "+
				"%s: %w", assert.VKHash, err)
		}

		err = txbuilder.ValidatePresignedTx(
			tx, txbuilder.CommitteeAssertRules(),
		)
		if err != nil {
			return fmt.Errorf("invalid assert tx of circuit %s: %w",
				assert.VKHash, err)
		}
	}

	disproveTxs, err := txbuilder.BuildDisproveTxs(
		privKey.Key, assertTxs, script,
	)
	if err != nil {
		return err
	}

	registerID, err := client.FinishRegister(
		ctx, &protocol.FinishRegisterRequest{
			ValidatorKey: c.ValidatorKey,
			DisproveTxs:  disproveTxs,
		},
	)
	if err != nil {
		return fmt.Errorf("error finishing registration: %w", err)
	}

	log.Infof("Signed %d disprove txs for validator %s",
		len(disproveTxs), c.ValidatorKey)

	printResult("You have finished your registration application.\n"+
		"The registration number is %d, please wait patiently.",
		registerID)

	return nil
}
