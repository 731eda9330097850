// Package config resolves the network profile the tools run against. A
// profile supplies defaults for the chain, the committee endpoint and the
// chain backends. Every value can be overridden through flags, FCLI_
// environment variables or a config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of all environment variables.
	EnvPrefix = "FCLI"

	// Keys of the configuration values. They double as flag names.
	KeyConfigFile   = "config"
	KeyProfile      = "profile"
	KeyNetwork      = "network"
	KeyCommitteeURL = "committee"
	KeyBitcoindHost = "bitcoind.host"
	KeyBitcoindUser = "bitcoind.user"
	KeyBitcoindPass = "bitcoind.pass"
	KeyExplorerURL  = "explorer"
	KeyChainSource  = "chainsource"
	KeyTimeout      = "timeout"

	DefaultProfile = "local"
	DefaultTimeout = 60 * time.Second
)

// ChainSourceKind selects the chain backend.
type ChainSourceKind string

const (
	ChainSourceBitcoind ChainSourceKind = "bitcoind"
	ChainSourceExplorer ChainSourceKind = "explorer"
)

// BitcoindConfig holds the bitcoind JSON-RPC connection details.
type BitcoindConfig struct {
	Host string
	User string
	Pass string
}

// Profile is a named set of defaults.
type Profile struct {
	Name         string
	Network      string
	CommitteeURL string
	Bitcoind     BitcoindConfig
	ExplorerURL  string
	ChainSource  ChainSourceKind
}

var profiles = map[string]*Profile{
	"local": {
		Name:         "local",
		Network:      "regtest",
		CommitteeURL: "http://127.0.0.1:33000",
		Bitcoind: BitcoindConfig{
			Host: "127.0.0.1:18443",
			User: "test",
			Pass: "1234",
		},
		ExplorerURL: "http://localhost:3004",
		ChainSource: ChainSourceBitcoind,
	},
	"dev": {
		Name:         "dev",
		Network:      "signet",
		CommitteeURL: "http://54.65.75.57:33000",
		Bitcoind: BitcoindConfig{
			Host: "54.65.75.57:38332",
			User: "fiamma",
			Pass: "fiamma",
		},
		ExplorerURL: "https://mempool.space/signet/api",
		ChainSource: ChainSourceBitcoind,
	},
	"testnet": {
		Name:        "testnet",
		Network:     "testnet3",
		ExplorerURL: "https://blockstream.info/testnet/api",
		ChainSource: ChainSourceExplorer,
	},
}

// ProfileByName returns a copy of a built-in profile.
func ProfileByName(name string) (*Profile, error) {
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown profile '%s', must be one of "+
			"local, dev or testnet", name)
	}

	c := *p
	return &c, nil
}

// Config is the resolved configuration.
type Config struct {
	Profile      string
	Params       *chaincfg.Params
	CommitteeURL string
	Bitcoind     BitcoindConfig
	ExplorerURL  string
	ChainSource  ChainSourceKind
	Timeout      time.Duration
}

// NetworkParams maps a network name to its chain parameters.
func NetworkParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(network) {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil

	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil

	case "signet":
		return &chaincfg.SigNetParams, nil

	case "regtest":
		return &chaincfg.RegressionNetParams, nil

	default:
		return nil, fmt.Errorf("%w: %s", protocol.ErrUnsupportedNetwork,
			network)
	}
}

// NewViper creates a viper instance reading FCLI_ environment variables.
// Dots in keys become underscores, so bitcoind.host is read from
// FCLI_BITCOIND_HOST.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyProfile, DefaultProfile)
	v.SetDefault(KeyTimeout, DefaultTimeout)

	return v
}

// Load resolves the profile and applies all overrides known to v.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w",
				file, err)
		}
		log.Debugf("Read config file %s", v.ConfigFileUsed())
	}

	profileName := v.GetString(KeyProfile)
	if profileName == "" {
		profileName = DefaultProfile
	}
	profile, err := ProfileByName(profileName)
	if err != nil {
		return nil, err
	}

	override := func(key string, target *string) {
		if v.IsSet(key) && v.GetString(key) != "" {
			*target = v.GetString(key)
		}
	}

	network := profile.Network
	override(KeyNetwork, &network)
	override(KeyCommitteeURL, &profile.CommitteeURL)
	override(KeyBitcoindHost, &profile.Bitcoind.Host)
	override(KeyBitcoindUser, &profile.Bitcoind.User)
	override(KeyBitcoindPass, &profile.Bitcoind.Pass)
	override(KeyExplorerURL, &profile.ExplorerURL)

	chainSource := string(profile.ChainSource)
	override(KeyChainSource, &chainSource)

	params, err := NetworkParams(network)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Profile:      profile.Name,
		Params:       params,
		CommitteeURL: profile.CommitteeURL,
		Bitcoind:     profile.Bitcoind,
		ExplorerURL:  profile.ExplorerURL,
		ChainSource:  ChainSourceKind(strings.ToLower(chainSource)),
		Timeout:      v.GetDuration(KeyTimeout),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.ChainSource {
	case ChainSourceBitcoind, ChainSourceExplorer:
	default:
		return nil, fmt.Errorf("invalid chain source '%s', must be "+
			"bitcoind or explorer", chainSource)
	}

	log.Debugf("Using profile %s on %s, committee %s, chain source %s",
		cfg.Profile, cfg.Params.Name, cfg.CommitteeURL, cfg.ChainSource)

	return cfg, nil
}

// CheckCommittee returns an error if no committee endpoint is configured.
func (c *Config) CheckCommittee() error {
	if c.CommitteeURL == "" {
		return fmt.Errorf("no committee endpoint configured for "+
			"profile %s, use --%s", c.Profile, KeyCommitteeURL)
	}

	return nil
}

// CheckChainSource returns an error if the selected chain backend is not
// fully configured.
func (c *Config) CheckChainSource() error {
	switch {
	case c.ChainSource == ChainSourceBitcoind && c.Bitcoind.Host == "":
		return fmt.Errorf("no bitcoind host configured for profile "+
			"%s, use --%s", c.Profile, KeyBitcoindHost)

	case c.ChainSource == ChainSourceExplorer && c.ExplorerURL == "":
		return fmt.Errorf("no explorer configured for profile %s, use "+
			"--%s", c.Profile, KeyExplorerURL)
	}

	return nil
}

// ErrNoBurnAddress is returned for networks without a known burn address.
var ErrNoBurnAddress = errors.New("no burn address for network")

var burnAddresses = map[string]string{
	chaincfg.RegressionNetParams.Name: "bcrt1pmdx8nnpllj3x750zzfqmjvedv3" +
		"4swuka06vda8qau6csnyx2hq9s6p89qf",
	chaincfg.SigNetParams.Name: "tb1px3zjhc60v2y7p8a2nkv2zymnwr0wx4pwurg" +
		"ktc9ly5yfu3vk6fjq05ey7n",
	chaincfg.MainNetParams.Name: "1BitcoinEaterAddressDontSendf59kuE",
}

// BurnAddress returns the well known unspendable address of a network.
func BurnAddress(params *chaincfg.Params) (string, error) {
	addr, ok := burnAddresses[params.Name]
	if !ok {
		return "", fmt.Errorf("%w %s", ErrNoBurnAddress, params.Name)
	}

	return addr, nil
}
