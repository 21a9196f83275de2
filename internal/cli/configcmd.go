package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config
			printKeyValue("layout.width", fmt.Sprintf("%g", cfg.Layout.Width))
			printKeyValue("cache.backend", cfg.Cache.Backend)
			if dir, err := c.cacheDir(); err == nil && cfg.Cache.Backend == CacheFile {
				printKeyValue("cache.dir", dir)
			}
			if cfg.Cache.KeyPrefix != "" {
				printKeyValue("cache.key_prefix", cfg.Cache.KeyPrefix)
			}
			printKeyValue("backend.base_url", orNone(cfg.Backend.BaseURL))
			printKeyValue("backend.page_size", fmt.Sprintf("%d", cfg.Backend.PageSize))
			printKeyValue("server.addr", cfg.Server.Addr)

			env := envList(os.Getenv)
			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				printDetail("%s=%s", k, env[k])
			}
			return nil
		},
	}

	cmd.AddCommand(c.configInitCommand())
	return cmd
}

// configInitCommand writes the defaults to the config path.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				dir, err := configDir()
				if err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
				path = filepath.Join(dir, "config.toml")
			}
			if _, err := os.Stat(path); err == nil && !force {
				printWarning("%s already exists (use --force to overwrite)", path)
				return nil
			}
			if err := writeConfig(path, DefaultConfig()); err != nil {
				return err
			}
			printSuccess("Wrote default config")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func writeConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
