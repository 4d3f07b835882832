// Package app wraps cobra and viper into the small command skeleton every
// binary in this repo shares: named flag groups, config file and environment
// binding, option validation before run.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/leetrental/fleetboard/pkg/log"
)

const envPrefix = "FLEETBOARD"

// RunFunc is the command body executed after flags are parsed and options
// validated.
type RunFunc func() error

// CliOptions is the aggregate options contract a command hands to the app.
type CliOptions interface {
	// AddFlags registers every flag group on the command's flag set.
	AddFlags(fs *pflag.FlagSet)

	// Complete fills derived values after flag parsing.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}

type App struct {
	name        string
	short       string
	description string
	opts        CliOptions
	run         RunFunc
	noConfig    bool

	cmd *cobra.Command
}

type Option func(*App)

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.opts = opts }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.run = run }
}

// WithNoConfig drops the --config flag for commands that take no config file.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

func NewApp(name, short string, options ...Option) *App {
	a := &App{name: name, short: short}
	for _, opt := range options {
		opt(a)
	}
	a.cmd = a.buildCommand()
	return a
}

// Command exposes the underlying cobra command so callers can attach
// subcommands.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", a.name, err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}

	var configFile string
	if !a.noConfig {
		cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file.")
	}
	if a.opts != nil {
		a.opts.AddFlags(cmd.Flags())
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if err := bindViper(cmd.Flags(), configFile); err != nil {
			return err
		}
		if a.opts != nil {
			if err := a.opts.Complete(); err != nil {
				return err
			}
			if err := a.opts.Validate(); err != nil {
				return err
			}
		}
		if a.run == nil {
			return cmd.Help()
		}
		return a.run()
	}

	return cmd
}

// bindViper layers configuration: explicit flags win over environment
// variables, which win over the config file, which wins over defaults.
func bindViper(fs *pflag.FlagSet, configFile string) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		log.Debug("loaded configuration file", "file", v.ConfigFileUsed())
	}

	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
			bindErr = fmt.Errorf("apply %s from config: %w", f.Name, err)
		}
	})
	return bindErr
}
