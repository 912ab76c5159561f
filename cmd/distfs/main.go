// Command distfs is the end-user client: it splits files into chunks and
// uploads them to the live chunk-server pool, and reconstructs files on
// download. See SPEC_FULL.md §4.3.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"distfs/internal/client"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rootCmd := &cobra.Command{
		Use:   "distfs",
		Short: "Interact with a distfs cluster",
	}
	rootCmd.PersistentFlags().String("coordinator", "http://localhost:8080", "coordinator base URL")

	rootCmd.AddCommand(
		newUploadCmd(logger),
		newDownloadCmd(logger),
		newLsCmd(logger),
		newTreeCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func clientFromCmd(cmd *cobra.Command, logger *slog.Logger) *client.Client {
	addr, _ := cmd.Flags().GetString("coordinator")
	return client.New(addr, logger)
}

func newUploadCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <local-path> [remote-parent]",
		Short: "Upload a file or directory tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remoteParent := ""
			if len(args) == 2 {
				remoteParent = args[1]
			}
			c := clientFromCmd(cmd, logger)
			return c.Upload(context.Background(), args[0], remoteParent)
		},
	}
	return cmd
}

func newDownloadCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <remote-path> <local-target>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFromCmd(cmd, logger)
			return c.Download(context.Background(), args[0], args[1])
		},
	}
	return cmd
}

func newLsCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [remote-path]",
		Short: "List the immediate contents of a namespace path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			c := clientFromCmd(cmd, logger)
			return c.List(context.Background(), path, os.Stdout)
		},
	}
	return cmd
}

func newTreeCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [remote-path]",
		Short: "Print the full namespace subtree rooted at a path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			c := clientFromCmd(cmd, logger)
			return c.Tree(context.Background(), path, os.Stdout)
		},
	}
	return cmd
}
