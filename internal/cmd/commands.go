package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pushcart/pushcart-deploy/internal/build"
	"github.com/pushcart/pushcart-deploy/internal/deploy"
	"github.com/pushcart/pushcart-deploy/internal/metadata"
	"github.com/pushcart/pushcart-deploy/internal/query"
	"github.com/pushcart/pushcart-deploy/internal/settings"
	"github.com/spf13/cobra"
)

func (c *RootCommand) deployCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the configuration directory to the workspace",
		Args:  cobra.NoArgs,
		RunE:  c.runDeploy,
	}
}

func (c *RootCommand) runDeploy(cmd *cobra.Command, _ []string) error {
	dir, err := c.configDir()
	if err != nil {
		return err
	}

	return c.execute(cmd, func(ctx context.Context, env environment) error {
		client, err := c.newClient(env)
		if err != nil {
			return err
		}

		setup := deploy.NewSetup(c.Fs, dir, client, env.log, env.recorder)
		setup.Getenv = c.Getenv

		report, err := setup.Deploy(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), report)
	})
}

func (c *RootCommand) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration directory without contacting the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.configDir()
			if err != nil {
				return err
			}

			return c.execute(cmd, func(ctx context.Context, env environment) error {
				md, err := metadata.New(c.Fs, dir, env.log)
				if err != nil {
					return err
				}

				configs, err := md.Load(ctx)
				if err != nil {
					return err
				}

				if _, err := settings.LoadRepoSettings(c.Fs, dir); err != nil {
					return err
				}
				if _, err := settings.LoadSecrets(c.Fs, dir); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, cfg := range configs {
					fmt.Fprintf(out, "%s.%s.%s\n", cfg.TargetCatalogName, cfg.TargetSchemaName, cfg.PipelineName)
				}
				fmt.Fprintf(out, "%d pipelines valid\n", len(configs))
				return nil
			})
		},
	}
}

func (c *RootCommand) planCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the changes a deployment would make",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.configDir()
			if err != nil {
				return err
			}

			return c.execute(cmd, func(ctx context.Context, env environment) error {
				client, err := c.newClient(env)
				if err != nil {
					return err
				}

				plan, err := deploy.NewSetup(c.Fs, dir, client, env.log, env.recorder).Plan(ctx)
				if err != nil {
					return err
				}

				if filter == "" {
					return writeJSON(cmd.OutOrStdout(), plan)
				}

				out, err := query.Filter(plan, filter)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "query", "q", "", "jq expression applied to the plan, e.g. '.pipelines.create[].pipeline_name'")

	return cmd
}

func (c *RootCommand) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Printing the version needs none of the options.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.UserAgent())
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
