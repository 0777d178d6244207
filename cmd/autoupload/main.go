// Package main is the entry point for the autoupload binary: a vault watcher
// that uploads new media to the configured backend and rewrites note links.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JawadAlhindi/autoupload/internal/auth"
	"github.com/JawadAlhindi/autoupload/internal/cache"
	"github.com/JawadAlhindi/autoupload/internal/config"
	"github.com/JawadAlhindi/autoupload/internal/orchestrator"
	"github.com/JawadAlhindi/autoupload/internal/uploader"
	"github.com/JawadAlhindi/autoupload/internal/vault"
	"github.com/JawadAlhindi/autoupload/internal/watcher"
)

var (
	vaultDir   string
	configPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "autoupload: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoupload",
		Short: "Auto-upload vault media to imgur, S3, R2, or YouTube",
		Long: `autoupload watches a notes vault for new media files, uploads them to the
configured backend, and rewrites markdown references to the public URL.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&vaultDir, "vault", "v", ".", "Path to the notes vault")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default <vault>/.autoupload.toml)")
	cmd.AddCommand(
		newWatchCmd(),
		newProcessCmd(),
		newCacheCmd(),
		newAuthCmd(),
	)
	return cmd
}

// app bundles the wired components behind every subcommand.
type app struct {
	vault *vault.Vault
	store *config.Store
	cache *cache.Cache
	orch  *orchestrator.Orchestrator
	auth  *auth.Refresher
}

func buildApp() (*app, error) {
	v, err := vault.Open(vaultDir)
	if err != nil {
		return nil, err
	}
	path := configPath
	if path == "" {
		path = filepath.Join(v.Root(), ".autoupload.toml")
	}
	store, err := config.Open(path)
	if err != nil {
		return nil, err
	}
	c := cache.New(store.CacheSnapshot(), store)
	refresher := auth.NewRefresher(store)
	registry := uploader.NewRegistry(store.Settings, refresher)
	notify := func(msg string) { fmt.Println(msg) }
	return &app{
		vault: v,
		store: store,
		cache: c,
		orch:  orchestrator.New(v, store, c, registry, notify),
		auth:  refresher,
	}, nil
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and auto-upload new media in the watch folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			return watcher.New(a.vault, a.orch).Run(cmd.Context())
		},
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <note>",
		Short: "Upload all media referenced by one note and rewrite its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			changed, err := a.orch.ProcessDocument(cmd.Context(), filepath.ToSlash(args[0]))
			if err != nil {
				return err
			}
			if changed {
				fmt.Println("Uploaded media and updated note links.")
			} else {
				fmt.Println("No uploadable media found in this note.")
			}
			return nil
		},
	}
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the upload cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List cached upload identities and their URLs",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := buildApp()
				if err != nil {
					return err
				}
				entries := a.cache.Entries()
				keys := make([]string, 0, len(entries))
				for k := range entries {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("%s\t%s\n", k, entries[k])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget every cached upload (files will re-upload next time)",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := buildApp()
				if err != nil {
					return err
				}
				if err := a.cache.Clear(); err != nil {
					return err
				}
				fmt.Println("Upload cache cleared.")
				return nil
			},
		},
	)
	return cmd
}

func newAuthCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage backend credentials",
	}
	youtube := &cobra.Command{
		Use:   "youtube",
		Short: "Authorize YouTube uploads via the OAuth code flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			if code == "" {
				url, err := a.auth.AuthURL()
				if err != nil {
					return err
				}
				fmt.Println("Open this URL, grant access, then re-run with --code <authorization code>:")
				fmt.Println(url)
				return nil
			}
			if err := a.auth.Exchange(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Println("YouTube tokens saved.")
			return nil
		},
	}
	youtube.Flags().StringVar(&code, "code", "", "Authorization code from the consent redirect")
	cmd.AddCommand(youtube)
	return cmd
}
