package cmd

import (
	"context"
	"os"
	"strings"
	"syscall"

	"github.com/equinix-labs/otel-init-go/otelinit"
	"github.com/go-logr/logr"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pushcart/pushcart-deploy/internal/build"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/logger"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const longHelp = `
Deploy Pushcart pipeline configurations to a Databricks workspace.

Without a subcommand the configuration directory is deployed.

Each CLI argument has a corresponding environment variable in the form of the CLI argument prefixed
with PUSHCART. If both the flag and environment variable form are specified, the flag form takes
precedence. Workspace connection details fall back to the DATABRICKS_HOST, DATABRICKS_TOKEN and
DATABRICKS_CLUSTER_ID environment variables and then to the Databricks CLI profile.

Examples
  --config-dir         PUSHCART_CONFIG_DIR
  --profile            PUSHCART_PROFILE
  --metrics-textfile   PUSHCART_METRICS_TEXTFILE
`

// EnvNamePrefix defines the environment variable prefix required for all environment configuration.
const EnvNamePrefix = "PUSHCART"

// ErrConfigDirRequired indicates a command needing a configuration directory was run without one.
var ErrConfigDirRequired = errors.New("a configuration directory is required, set --config-dir")

// RootCommandOptions encompasses all the configurability of the RootCommand.
type RootCommandOptions struct {
	ConfigDir string `mapstructure:"config-dir"`

	Profile   string `mapstructure:"profile"`
	Host      string `mapstructure:"host"`
	Token     string `mapstructure:"token"`
	ClusterID string `mapstructure:"cluster-id"`

	LogLevel        string `mapstructure:"log-level"`
	MetricsTextfile string `mapstructure:"metrics-textfile"`
}

// RootCommand is the root command that represents the entrypoint to pushcart-deploy.
type RootCommand struct {
	*cobra.Command
	vpr  *viper.Viper
	Opts RootCommandOptions

	// Fs is the filesystem configuration directories and CLI profiles are read from.
	Fs afero.Fs

	// Getenv looks up workspace connection and Git credential environment variables.
	Getenv func(string) string

	// ClientOptions are applied to every workspace client after the defaults.
	ClientOptions []databricks.Option
}

// NewRootCommand creates new RootCommand instance.
func NewRootCommand() (*RootCommand, error) {
	rootCmd := &RootCommand{
		Command: &cobra.Command{
			Use:          build.Name,
			Short:        "Deploy Pushcart pipelines to Databricks",
			Long:         longHelp,
			SilenceUsage: true,
			Args:         cobra.NoArgs,
		},
		Fs:     afero.NewOsFs(),
		Getenv: os.Getenv,
	}

	rootCmd.PersistentPreRunE = rootCmd.PreRun
	rootCmd.RunE = rootCmd.runDeploy
	rootCmd.PersistentFlags().SortFlags = false // Print flag help in the order they're specified.

	// Ensure keys with `-` use `_` for env keys else Viper won't match them.
	rootCmd.vpr = viper.NewWithOptions(viper.EnvKeyReplacer(strings.NewReplacer("-", "_")))
	rootCmd.vpr.SetEnvPrefix(EnvNamePrefix)

	if err := rootCmd.configureFlags(); err != nil {
		return nil, err
	}

	rootCmd.AddCommand(
		rootCmd.deployCommand(),
		rootCmd.validateCommand(),
		rootCmd.planCommand(),
		rootCmd.versionCommand(),
	)

	return rootCmd, nil
}

// PreRun satisfies cobra.Command.PersistentPreRunE and unmarshalls. Its responsible for populating
// c.Opts.
func (c *RootCommand) PreRun(*cobra.Command, []string) error {
	return c.vpr.Unmarshal(&c.Opts)
}

func (c *RootCommand) configureFlags() error {
	flags := c.PersistentFlags()

	flags.StringP("config-dir", "c", "", "Deployment configuration directory path")
	flags.StringP("profile", "p", "", "Databricks CLI profile to use")

	flags.String("host", "", "Databricks workspace URL")
	flags.String("token", "", "Databricks personal access token")
	flags.String("cluster-id", "", "Cluster creating the metadata tables")

	flags.String("log-level", logger.LevelInfo, "Log level: [\"debug\", \"info\", \"warn\", \"error\"]")
	flags.String("metrics-textfile", "", "Write collected metrics to this file in the prometheus text format")

	if err := c.vpr.BindPFlags(flags); err != nil {
		return err
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = c.vpr.BindEnv(f.Name)
	})

	return err
}

// environment is what every command action gets to work with.
type environment struct {
	log      logr.Logger
	registry *prometheus.Registry
	recorder *metrics.Recorder
}

// execute runs action with a logger, tracing and metrics set up. The action is cancelled on
// SIGINT or SIGTERM.
func (c *RootCommand) execute(cmd *cobra.Command, action func(context.Context, environment) error) error {
	log, flush, err := logger.New(build.Name, c.Opts.LogLevel)
	if err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	defer flush()

	log.V(1).Info("root command options", "config_dir", c.Opts.ConfigDir, "profile", c.Opts.Profile,
		"host", c.Opts.Host, "cluster_id", c.Opts.ClusterID)

	ctx, otelShutdown := otelinit.InitOpenTelemetry(cmd.Context(), build.Name)
	defer otelShutdown(ctx)

	registry := prometheus.NewRegistry()
	env := environment{log: log, registry: registry, recorder: metrics.NewRecorder(registry)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var routines run.Group
	routines.Add(
		func() error { return action(ctx, env) },
		func(error) { cancel() },
	)
	routines.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err = routines.Run()

	if c.Opts.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(c.Opts.MetricsTextfile, registry); werr != nil {
			log.Error(werr, "failed to write metrics", "path", c.Opts.MetricsTextfile)
		}
	}

	var sig run.SignalError
	if errors.As(err, &sig) {
		return errors.Wrap(context.Canceled, sig.Error())
	}
	return err
}

// newClient creates a workspace client from the connection options, the environment and the
// Databricks CLI profile.
func (c *RootCommand) newClient(env environment) (*databricks.Client, error) {
	cfg, err := databricks.Config{
		Host:      c.Opts.Host,
		Token:     c.Opts.Token,
		ClusterID: c.Opts.ClusterID,
		Profile:   c.Opts.Profile,
	}.Resolve(c.Fs, c.Getenv)
	if err != nil {
		return nil, err
	}

	opts := []databricks.Option{
		databricks.WithLogger(env.log),
		databricks.WithMetrics(env.registry),
	}
	return databricks.NewClient(cfg, append(opts, c.ClientOptions...)...)
}

func (c *RootCommand) configDir() (string, error) {
	if c.Opts.ConfigDir == "" {
		return "", ErrConfigDirRequired
	}
	return c.Opts.ConfigDir, nil
}
