package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/remote"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage sync tasks in the config file",
	}

	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskRemoveCmd())
	cmd.AddCommand(newTaskTestCmd())

	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var (
		baseURL       string
		token         string
		tokenFile     string
		localRoot     string
		remoteRootURI string
		mode          string
	)

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a new sync task to the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			id := args[0]

			if baseURL == "" || localRoot == "" {
				return fmt.Errorf("--base-url and --local-root are required")
			}

			if remoteRootURI == "" {
				remoteRootURI = "cloudreve:///"
			}

			path := config.ResolveConfigPath(cc.Env, flagConfigPath, cc.Logger)

			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := config.CreateConfigWithTask(path, id, baseURL, localRoot, remoteRootURI); err != nil {
					return err
				}
			} else {
				if err := config.AppendTaskSection(path, id, baseURL, localRoot, remoteRootURI); err != nil {
					return err
				}
			}

			if token != "" {
				if err := config.SetTaskKey(path, id, "token", token); err != nil {
					return err
				}
			}

			if tokenFile != "" {
				if err := config.SetTaskKey(path, id, "token_file", tokenFile); err != nil {
					return err
				}
			}

			if mode != "" {
				if err := config.SetTaskKey(path, id, "mode", mode); err != nil {
					return err
				}
			}

			cfg, err := config.Load(path, cc.Logger)
			if err != nil {
				return fmt.Errorf("validating config after add: %w", err)
			}

			rt, err := config.ResolveTask(cfg, id)
			if err != nil {
				return err
			}

			if err := config.ValidateResolved(rt); err != nil {
				return fmt.Errorf("validating task %q: %w", id, err)
			}

			statusf("Added task %q (%s -> %s)\n", id, localRoot, remoteRootURI)

			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "remote service base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (prefer --token-file)")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "path to a file containing the bearer token")
	cmd.Flags().StringVar(&localRoot, "local-root", "", "local directory to sync")
	cmd.Flags().StringVar(&remoteRootURI, "remote-root-uri", "", "remote namespace root (default cloudreve:///)")
	cmd.Flags().StringVar(&mode, "mode", "", "bidirectional, upload-only, or download-only")

	return cmd
}

func newTaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sync tasks defined in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			path := config.ResolveConfigPath(cc.Env, flagConfigPath, cc.Logger)

			cfg, err := config.LoadOrDefault(path, cc.Logger)
			if err != nil {
				return err
			}

			tasks, err := config.ResolveTasks(cfg, nil, true)
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				statusf("No tasks defined.\n")

				return nil
			}

			headers := []string{"ID", "LOCAL ROOT", "REMOTE ROOT", "MODE", "PAUSED"}

			rows := make([][]string, 0, len(tasks))
			for _, rt := range tasks {
				rows = append(rows, []string{
					rt.ID, rt.LocalRoot, rt.RemoteRootURI, rt.Mode, fmt.Sprintf("%t", rt.Paused),
				})
			}

			printTable(os.Stdout, headers, rows)

			return nil
		},
	}
}

func newTaskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a sync task from the config file and its journal state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			id := args[0]

			path := config.ResolveConfigPath(cc.Env, flagConfigPath, cc.Logger)

			if err := config.DeleteTaskSection(path, id); err != nil {
				return err
			}

			store, err := journal.Open(journalDBPath(), cc.Logger)
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer store.Close()

			if err := store.DeleteTask(cmd.Context(), id); err != nil {
				return fmt.Errorf("clearing journal state for %q: %w", id, err)
			}

			statusf("Removed task %q\n", id)

			return nil
		},
	}
}

func newTaskTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <id>",
		Short: "Probe connectivity and authentication for a task's remote service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			id := args[0]

			rt, _, err := config.LoadTask(cc.Env, flagConfigPath, id, cc.Logger)
			if err != nil {
				return err
			}

			token, err := resolveTaskToken(rt)
			if err != nil {
				return err
			}

			client := remote.New(remote.Config{BaseURL: rt.BaseURL, AccessToken: token, Timeout: 10 * time.Second}, cc.Logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("connectivity probe failed: %w", err)
			}

			statusf("Task %q: connectivity OK\n", id)

			return nil
		},
	}
}
