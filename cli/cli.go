package cli

import (
	"context"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tlisp/cli/cmd"
	"github.com/ardnew/tlisp/host"
	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
	"github.com/ardnew/tlisp/pkg"
)

// CLI is the top-level command-line interface for tlisp.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Source   []string         `help:"Source file(s) evaluated silently before the command, or '-' for stdin" name:"source" short:"s" type:"existingfile"`
	MaxDepth int              `default:"${maxDepth}" help:"Maximum evaluation depth (0 disables the limit)" name:"max-depth"`
	Host     bool             `help:"Bind host builtins (hostname, getenv, path-*, expr, ...)" negatable:""`
	Version  kong.VersionFlag `help:"Print version and exit" short:"V"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate expressions (default)"`
	Repl cmd.Repl `cmd:"" help:"Start the interactive REPL"`
	Fmt  cmd.Fmt  `cmd:"" help:"Reformat tlisp data without evaluating it"`
	Init cmd.Init `cmd:"" help:"Initialize configuration file"`
}

// interpOptions returns the interpreter options selected by global flags.
func (c *CLI) interpOptions() []lang.Option {
	opts := []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithMaxDepth(c.MaxDepth),
	}

	if c.Host {
		opts = append(opts, lang.WithBuiltins(host.Builtins()...))
	}

	return opts
}

// Run executes the tlisp CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	parser, err := newParser(ctx, &cli, exit, configFilePath)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values, including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)
	ctx = cmd.WithInterpOptions(ctx, cli.interpOptions()...)

	return ktx.Run(ctx, &cli)
}

func newParser(
	ctx context.Context,
	cli *CLI,
	exit func(int),
	configFilePath string,
) (*kong.Kong, error) {
	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cachePath(),
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		"version":            pkg.Name + " " + pkg.Version(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	return kong.New(cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
}
