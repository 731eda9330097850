package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btclog/v2"
	"github.com/fiamma-chain/fcli/btc"
	"github.com/fiamma-chain/fcli/committee"
	"github.com/fiamma-chain/fcli/config"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/fiamma-chain/fcli/txbuilder"
	"github.com/spf13/cobra"
)

const (
	// version is the current version of the tool. It is set during build.
	version = "0.1.0"

	// privKeyEnvName is read if no --privkey flag is given, so the key
	// doesn't end up in the shell history.
	privKeyEnvName = "FCLI_PRIVKEY"

	defaultLogLevel = "info"
)

var (
	Commit = ""

	logLevel string

	log = btclog.Disabled
	v   = config.NewViper()
	cfg *config.Config

	// logWriter is where all subsystems log to.
	logWriter io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "fcli",
	Short: "fcli builds and signs the transactions of the Fiamma challenge protocol",
	Long: `This tool lets validators stake and register with the Fiamma
committee and lets challengers contest proofs. It builds and signs the stake,
assert, challenge and disprove transactions locally and only hands signed
transactions to the committee.`,
	Version: fmt.Sprintf("v%s, commit %s", version, Commit),
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := setupLogging(logLevel); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		log.Debugf("fcli version v%s commit %s, profile %s on %s",
			version, Commit, cfg.Profile, cfg.Params.Name)

		return nil
	},
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func main() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(
		&logLevel, "loglevel", defaultLogLevel, "log level, one of "+
			"trace, debug, info, warn, error, critical or off",
	)
	flags.String(
		config.KeyConfigFile, "", "config file to read, any format "+
			"viper understands",
	)
	flags.StringP(
		config.KeyProfile, "n", config.DefaultProfile, "network profile "+
			"to use, one of local, dev or testnet",
	)
	flags.String(
		config.KeyNetwork, "", "override the bitcoin network of the "+
			"profile (mainnet, testnet3, signet, regtest)",
	)
	flags.String(
		config.KeyCommitteeURL, "", "override the committee JSON-RPC "+
			"endpoint",
	)
	flags.String(config.KeyBitcoindHost, "", "override the bitcoind "+
		"RPC host:port")
	flags.String(config.KeyBitcoindUser, "", "override the bitcoind "+
		"RPC user")
	flags.String(config.KeyBitcoindPass, "", "override the bitcoind "+
		"RPC password")
	flags.String(
		config.KeyExplorerURL, "", "override the Esplora API base URL",
	)
	flags.String(
		config.KeyChainSource, "", "chain backend to use, bitcoind or "+
			"explorer",
	)
	flags.Duration(
		config.KeyTimeout, config.DefaultTimeout, "timeout of network "+
			"calls",
	)

	if err := v.BindPFlags(flags); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error binding flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(
		newTxCommand(),
		newRegisterCommand(),
		newChallengeCommand(),
		newDisproveCommand(),
		newCircuitCommand(),
		newDocCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("invalid log level '%s'", level)
	}

	handler := btclog.NewDefaultHandler(logWriter)
	newLogger := func(subsystem string) btclog.Logger {
		logger := btclog.NewSLogger(handler.SubSystem(subsystem))
		logger.SetLevel(lvl)

		return logger
	}

	log = newLogger("FCLI")
	txbuilder.UseLogger(newLogger(txbuilder.Subsystem))
	committee.UseLogger(newLogger(committee.Subsystem))
	btc.UseLogger(newLogger(btc.Subsystem))
	config.UseLogger(newLogger(config.Subsystem))

	return nil
}

// printResult prints a command's result to stdout.
func printResult(format string, args ...interface{}) {
	result := fmt.Sprintf(format, args...)
	fmt.Println(result)

	// For the tests, also log as trace level which is disabled by default.
	log.Tracef("%s", result)
}

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Timeout)
}

func newCommitteeClient() (*committee.Client, error) {
	if err := cfg.CheckCommittee(); err != nil {
		return nil, err
	}

	return committee.NewClient(cfg.CommitteeURL, cfg.Timeout), nil
}

// newChainSource connects to the configured chain backend. The returned
// function releases it.
func newChainSource() (btc.ChainSource, func(), error) {
	if err := cfg.CheckChainSource(); err != nil {
		return nil, nil, err
	}

	switch cfg.ChainSource {
	case config.ChainSourceExplorer:
		api := btc.NewExplorerAPI(cfg.ExplorerURL, cfg.Timeout)
		return api, func() {}, nil

	default:
		node, err := btc.NewNodeClient(&btc.NodeConfig{
			Host: cfg.Bitcoind.Host,
			User: cfg.Bitcoind.User,
			Pass: cfg.Bitcoind.Pass,
		}, cfg.Params)
		if err != nil {
			return nil, nil, err
		}

		return node, node.Shutdown, nil
	}
}

type signerFlags struct {
	PrivKey string
}

func newSignerFlags(cmd *cobra.Command, desc string) *signerFlags {
	s := &signerFlags{}
	cmd.Flags().StringVarP(
		&s.PrivKey, "privkey", "s", "", "bitcoin private key (WIF or "+
			"xprv) to sign "+desc+" with; read from "+
			privKeyEnvName+" if empty",
	)

	return s
}

func (s *signerFlags) parse() (*txbuilder.PrivateKey, *txbuilder.KeyInfo,
	error) {

	privKeyStr := s.PrivKey
	if privKeyStr == "" {
		privKeyStr = lookupPrivKeyEnv()
	}
	if privKeyStr == "" {
		return nil, nil, errors.New("a private key must be specified")
	}

	privKey, err := txbuilder.ParsePrivateKey(privKeyStr, cfg.Params)
	if err != nil {
		return nil, nil, err
	}

	keyInfo, err := txbuilder.DeriveKeyInfo(privKey.Key, cfg.Params)
	if err != nil {
		return nil, nil, err
	}

	log.Debugf("Using %v key of %s", privKey.Kind, keyInfo.Address)

	return privKey, keyInfo, nil
}

func lookupPrivKeyEnv() string {
	return os.Getenv(privKeyEnvName)
}

type fundingFlags struct {
	Txid string
	Vout uint32
}

func newFundingFlags(cmd *cobra.Command, desc string) *fundingFlags {
	f := &fundingFlags{}
	cmd.Flags().StringVarP(
		&f.Txid, "txid", "t", "", "transaction id of the "+desc,
	)
	cmd.Flags().Uint32VarP(
		&f.Vout, "vout", "o", 0, "output index of the "+desc,
	)

	return f
}

func (f *fundingFlags) outPoint() (wire.OutPoint, error) {
	if f.Txid == "" {
		return wire.OutPoint{}, errors.New("the funding txid must be " +
			"specified")
	}

	hash, err := txbuilder.ParseTxid(f.Txid)
	if err != nil {
		return wire.OutPoint{}, err
	}

	return wire.OutPoint{Hash: *hash, Index: f.Vout}, nil
}

// resolve looks up the funding output on chain and marks it as owned by the
// signer.
func (f *fundingFlags) resolve(keyInfo *txbuilder.KeyInfo,
	privKey *txbuilder.PrivateKey) (*txbuilder.Utxo, error) {

	op, err := f.outPoint()
	if err != nil {
		return nil, err
	}

	chain, cleanup, err := newChainSource()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	txOut, err := btc.FetchUtxo(chain, op)
	if err != nil {
		return nil, fmt.Errorf("error resolving funding output: %w", err)
	}

	if !bytes.Equal(txOut.PkScript, keyInfo.PkScript) {
		return nil, fmt.Errorf("%w: output %v pays to %x, expected "+
			"the BIP86 address %s", protocol.ErrKeyMismatch, op,
			txOut.PkScript, keyInfo.Address)
	}

	utxo := txbuilder.NewUtxo(op, txOut)
	return utxo.WithOwner(privKey.Key.PubKey()), nil
}

type circuitFlags struct {
	VKPath      string
	CircuitType string
}

func newCircuitFlags(cmd *cobra.Command) *circuitFlags {
	c := &circuitFlags{}
	cmd.Flags().StringVarP(
		&c.VKPath, "vkpath", "k", "", "path of the circuit's "+
			"verifying key file",
	)
	cmd.Flags().StringVarP(
		&c.CircuitType, "circuittype", "c", "groth16", "circuit "+
			"type, groth16 or fflonk",
	)

	return c
}

func (c *circuitFlags) load() (*protocol.CircuitInfo, error) {
	if c.VKPath == "" {
		return nil, errors.New("the verifying key path must be " +
			"specified")
	}

	return protocol.LoadCircuit(c.VKPath, c.CircuitType)
}

func publishTx(tx *wire.MsgTx) (*chainhash.Hash, error) {
	chain, cleanup, err := newChainSource()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return chain.PublishTx(tx)
}
