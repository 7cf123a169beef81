package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/cryptocoin-airdrop/deployer/internal/flags"
	"github.com/cryptocoin-airdrop/deployer/internal/hdwallet"
	"github.com/cryptocoin-airdrop/deployer/network"
)

var dumpConfigCommand = &cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Export configuration values in a TOML format",
	ArgsUsage:   "<dumpfile (optional)>",
	Category:    flags.MiscCategory,
	Description: `The dumpconfig command shows configuration values, with secrets masked.`,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, id, link)
	},
}

const envPrefix = "DEPLOYER"

const masked = "*** Masked ***"

type pathsConfig struct {
	Artifacts   string `yaml:"artifacts"`
	Deployments string `yaml:"deployments"`
}

type deployerConfig struct {
	DefaultNetwork string                     `yaml:"defaultNetwork"`
	Paths          pathsConfig                `yaml:"paths"`
	Networks       map[string]*network.Config `yaml:"networks"`
}

// envConfig holds the settings read from DEPLOYER_* variables.
type envConfig struct {
	Network          string `envconfig:"NETWORK"`
	RPCURL           string `envconfig:"RPC_URL"`
	PrivateKey       string `envconfig:"PRIVATE_KEY"`
	KeystorePassword string `envconfig:"KEYSTORE_PASSWORD"`
}

func defaultConfig() *deployerConfig {
	return &deployerConfig{
		DefaultNetwork: network.InProcess,
		Paths: pathsConfig{
			Artifacts:   "artifacts",
			Deployments: "deployments",
		},
		Networks: network.Defaults(),
	}
}

// loadConfig decodes a TOML or YAML file, chosen by extension.
func loadConfig(file string, cfg *deployerConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%s, %v", file, err)
		}
		return nil
	default:
		err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
		// Add file name to errors that have a line number.
		if _, ok := err.(*toml.LineError); ok {
			err = errors.New(file + ", " + err.Error())
		}
		return err
	}
}

// merge overlays the values set in a loaded file onto cfg.
func (cfg *deployerConfig) merge(file *deployerConfig) {
	if file.DefaultNetwork != "" {
		cfg.DefaultNetwork = file.DefaultNetwork
	}
	if file.Paths.Artifacts != "" {
		cfg.Paths.Artifacts = file.Paths.Artifacts
	}
	if file.Paths.Deployments != "" {
		cfg.Paths.Deployments = file.Paths.Deployments
	}
	for name, net := range file.Networks {
		if base, ok := cfg.Networks[name]; ok && net != nil {
			base.Merge(net)
			continue
		}
		cfg.Networks[name] = net
	}
}

// makeConfig builds the configuration from defaults, the config file and the
// path flags.
func makeConfig(ctx *cli.Context) (*deployerConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		loaded := new(deployerConfig)
		if err := loadConfig(file, loaded); err != nil {
			return nil, err
		}
		cfg.merge(loaded)
	}
	if ctx.IsSet(artifactsFlag.Name) {
		cfg.Paths.Artifacts = ctx.String(artifactsFlag.Name)
	}
	if ctx.IsSet(deploymentsFlag.Name) {
		cfg.Paths.Deployments = ctx.String(deploymentsFlag.Name)
	}
	return cfg, nil
}

func readEnv() (envConfig, error) {
	var env envConfig
	err := envconfig.Process(envPrefix, &env)
	return env, err
}

// resolveNetwork picks the network to use and applies environment overrides
// to a copy of its configuration. An explicit name beats DEPLOYER_NETWORK,
// which beats the configured default.
func resolveNetwork(cfg *deployerConfig, env envConfig, name string) (string, network.Config, error) {
	if name == "" {
		name = env.Network
	}
	if name == "" {
		name = cfg.DefaultNetwork
	}
	base, ok := cfg.Networks[name]
	if !ok {
		known := make([]string, 0, len(cfg.Networks))
		for n := range cfg.Networks {
			known = append(known, n)
		}
		sort.Strings(known)
		return "", network.Config{}, fmt.Errorf("unknown network %q (configured: %s)", name, strings.Join(known, ", "))
	}
	net := *base
	if env.RPCURL != "" {
		net.URL = env.RPCURL
	}
	if env.PrivateKey != "" {
		net.Accounts = []string{env.PrivateKey}
	}
	if env.KeystorePassword != "" {
		net.Password = env.KeystorePassword
	}
	return name, net, nil
}

// networkConfig resolves the selected network with environment and flag
// overrides applied, flags last.
func networkConfig(ctx *cli.Context, cfg *deployerConfig) (string, network.Config, error) {
	env, err := readEnv()
	if err != nil {
		return "", network.Config{}, err
	}
	name, net, err := resolveNetwork(cfg, env, ctx.String(networkFlag.Name))
	if err != nil {
		return "", network.Config{}, err
	}
	if ctx.IsSet(rpcFlag.Name) {
		net.URL = ctx.String(rpcFlag.Name)
	}
	if ctx.IsSet(keystoreFlag.Name) {
		net.Accounts = nil
		net.Keystore = ctx.String(keystoreFlag.Name)
	}
	if ctx.IsSet(passwordFileFlag.Name) {
		net.PasswordFile = ctx.String(passwordFileFlag.Name)
	}
	if ctx.IsSet(confirmationsFlag.Name) {
		net.Confirmations = ctx.Uint64(confirmationsFlag.Name)
	}
	if ctx.IsSet(timeoutFlag.Name) {
		net.Timeout = network.Duration(ctx.Duration(timeoutFlag.Name))
	}
	return name, net, nil
}

// parseLibraries reads Name=0x... pairs.
func parseLibraries(specs []string) (map[string]common.Address, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	libs := make(map[string]common.Address, len(specs))
	for _, spec := range specs {
		name, addr, ok := strings.Cut(spec, "=")
		if !ok || name == "" || !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid library %q, want Name=0x...", spec)
		}
		libs[name] = common.HexToAddress(addr)
	}
	return libs, nil
}

// safeConfig returns a copy of cfg with private keys and mnemonics masked.
func safeConfig(cfg *deployerConfig) *deployerConfig {
	safe := *cfg
	safe.Networks = make(map[string]*network.Config, len(cfg.Networks))
	for name, net := range cfg.Networks {
		n := *net
		if len(n.Accounts) > 0 {
			n.Accounts = make([]string, len(net.Accounts))
			for i := range n.Accounts {
				n.Accounts[i] = masked
			}
		}
		if n.Mnemonic != "" && n.Mnemonic != hdwallet.DevMnemonic {
			n.Mnemonic = masked
		}
		safe.Networks[name] = &n
	}
	return &safe
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(safeConfig(cfg))
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	dump.Write(out)
	return nil
}
