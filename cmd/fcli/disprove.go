package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fiamma-chain/fcli/config"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/fiamma-chain/fcli/txbuilder"
	"github.com/spf13/cobra"
)

const burnRewardAddr = "burn"

type disproveCommand struct {
	ProofID     string
	ScriptIndex uint64
	RewardAddr  string

	cmd *cobra.Command
}

func newDisproveCommand() *cobra.Command {
	cc := &disproveCommand{}
	cc.cmd = &cobra.Command{
		Use:   "disprove",
		Short: "Ask the committee to disprove an assertion",
		Long: `Sends a disprove request for the given proof. The committee
executes the disprove script with the given index and, if the assertion turns
out to be wrong, pays the validator's stake to the reward address.

Use --rewardaddr burn to send the reward to the network's burn address.`,
		Example: `fcli disprove --proofid 0x1234... --scriptindex 12 \
	--rewardaddr bcrt1p...`,
		RunE: cc.Execute,
	}
	cc.cmd.Flags().StringVarP(
		&cc.ProofID, "proofid", "p", "", "proof id of the challenged "+
			"proof",
	)
	cc.cmd.Flags().Uint64VarP(
		&cc.ScriptIndex, "scriptindex", "i", 0, "index of the disprove "+
			"script",
	)
	cc.cmd.Flags().StringVarP(
		&cc.RewardAddr, "rewardaddr", "r", "", "address to pay the "+
			"disprove reward to, or '"+burnRewardAddr+"'",
	)

	return cc.cmd
}

func (c *disproveCommand) Execute(_ *cobra.Command, _ []string) error {
	if c.ProofID == "" {
		return errors.New("proof id must be specified")
	}

	rewardAddr := c.RewardAddr
	switch {
	case rewardAddr == "":
		return errors.New("reward address must be specified")

	case strings.EqualFold(rewardAddr, burnRewardAddr):
		var err error
		rewardAddr, err = config.BurnAddress(cfg.Params)
		if err != nil {
			return err
		}
		log.Infof("Burning the disprove reward to %s", rewardAddr)
	}

	if _, err := txbuilder.ParseAddress(rewardAddr, cfg.Params); err != nil {
		return fmt.Errorf("invalid reward address: %w", err)
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	err = client.Disprove(ctx, &protocol.DisproveRequest{
		ProofID:     c.ProofID,
		ScriptIndex: c.ScriptIndex,
		RewardAddr:  rewardAddr,
	})
	if err != nil {
		return fmt.Errorf("error sending disprove request: %w", err)
	}

	printResult("You have sent a disprove request for the proof %s, "+
		"please wait for the result.", c.ProofID)

	return nil
}
