package cli

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/resgen/cli/cmd"
	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/filter"
	"github.com/ardnew/resgen/pkg"
)

// CLI is the top-level command-line interface for resgen.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Res      []string `default:"${resDir}"  env:"RESGEN_RES"           help:"Resource directories, read in order"                       short:"r" type:"path"`
	TestsDir string   `                     env:"RESGEN_TESTS_DIR"     help:"Test-only resource directory (default: <first res>/tests)"           type:"path"`
	Tests    bool     `default:"true"       env:"RESGEN_INCLUDE_TESTS" help:"Compile test-only resources"                               negatable:""`
	Profile  string   `default:"${profile}" env:"RESGEN_PROFILE"       help:"Build profile selecting profile-tagged resources"          short:"P"`
	Workers  int      `default:"0"                                     help:"Files read concurrently (0 selects GOMAXPROCS)"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Compile cmd.Compile `cmd:"" default:"1" help:"Generate Go source from resources"`
	Check   cmd.Check   `cmd:""             help:"Compile resources and print a summary"`
	Dump    cmd.Dump    `cmd:""             help:"Print the generated identifiers of every resource"`
	Eval    cmd.Eval    `cmd:""             help:"Evaluate expressions against the resources"`
	Repl    cmd.Repl    `cmd:""             help:"Browse resources interactively"`
	Init    cmd.Init    `cmd:""             help:"Initialize configuration file"`
}

// resources returns the resource selection of the parsed flags.
func (c *CLI) resources() cmd.Resources {
	return cmd.Resources{
		Dirs:       c.Res,
		SearchPath: os.Getenv(compile.PathEnv),
		TestsDir:   c.TestsDir,
		Tests:      c.Tests,
		Profile:    c.Profile,
		Workers:    c.Workers,
	}
}

// Run executes the resgen CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"resDir":             compile.DefaultDir,
		"profile":            filter.DefaultProfile,
		"version":            pkg.Name + " " + pkg.Version(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that configuration loading and parsing
	// already log with the requested settings.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
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
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(baseConfig), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithResources(ctx, cli.resources())

	// Finalize logger configuration with all parsed values, including those
	// read from configuration files.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
