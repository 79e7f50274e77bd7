package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NethermindEth/classconv/utils"
	"github.com/NethermindEth/classconv/validator"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var Version string

const (
	configF              = "config"
	logLevelF            = "log-level"
	colourF              = "colour"
	maxDecompressedSizeF = "max-decompressed-size"
	formatF              = "format"
	concurrencyF         = "concurrency"
	dumpConfigF          = "dump-config"

	defaultConfig              = ""
	defaultColour              = true
	defaultMaxDecompressedSize = int64(utils.MaxDecompressedSize)
	defaultFormat              = formatJSON
	defaultConcurrency         = 4
	defaultDumpConfig          = false

	configFlagUsage   = "The YAML configuration file."
	logLevelFlagUsage = "Options: debug, info, warn, error, fatal."
	colourUsage       = "Uses --colour=false command to disable colourized outputs (ANSI Escape Codes)."
	concurrencyUsage  = "Number of files converted in parallel."
	dumpConfigUsage   = "Prints the effective configuration as YAML and exits."

	maxDecompressedSizeUsage = "Upper bound in bytes on the size of a decompressed Sierra ABI. " +
		"Classes whose ABI inflates beyond it are rejected."
	formatUsage = `Output format. Options:
json = canonical wire JSON of the class, one line per file
cbor = hex encoded CBOR of the internal class, one line per file`
)

const (
	formatJSON = "json"
	formatCBOR = "cbor"
)

type Config struct {
	LogLevel            utils.LogLevel `mapstructure:"log-level" yaml:"log-level"`
	Colour              bool           `mapstructure:"colour" yaml:"colour"`
	MaxDecompressedSize int64          `mapstructure:"max-decompressed-size" yaml:"max-decompressed-size" validate:"min=1"`
	Format              string         `mapstructure:"format" yaml:"format" validate:"oneof=json cbor"`
	Concurrency         int            `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := new(Config)
	cmd := NewCmd(config, func(cmd *cobra.Command, args []string) error {
		logger, err := utils.NewZapLogger(config.LogLevel, config.Colour)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		return NewConverter(config, logger).Run(cmd.Context(), cmd.OutOrStdout(), args)
	})

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err.Error())
		os.Exit(1)
	}
}

// NewCmd returns a command that can be executed with any of the Cobra Execute* functions.
// The RunE field is set to the user-provided run function, allowing for customization of
// the command's behaviour.
//
// The config is populated with the following precedence: flags, config file,
// defaults.
func NewCmd(config *Config, run func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "classconv [flags] FILE...",
		Short:   "Converts Starknet contract classes between their wire and internal forms.",
		Version: Version,
	}

	var cfgFile string
	var dumpConfig bool

	// PreRunE populates the configuration values.
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		if cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := v.Unmarshal(config, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())); err != nil {
			return err
		}
		return validator.Validator().Struct(config)
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if dumpConfig {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(config)
		}
		if len(args) == 0 {
			return errors.New("no class files given")
		}
		return run(cmd, args)
	}

	defaultLogLevel := utils.INFO

	cmd.Flags().StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	cmd.Flags().Var(&defaultLogLevel, logLevelF, logLevelFlagUsage)
	cmd.Flags().Bool(colourF, defaultColour, colourUsage)
	cmd.Flags().Int64(maxDecompressedSizeF, defaultMaxDecompressedSize, maxDecompressedSizeUsage)
	cmd.Flags().String(formatF, defaultFormat, formatUsage)
	cmd.Flags().Int(concurrencyF, defaultConcurrency, concurrencyUsage)
	cmd.Flags().BoolVar(&dumpConfig, dumpConfigF, defaultDumpConfig, dumpConfigUsage)

	return cmd
}
