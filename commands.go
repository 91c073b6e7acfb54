package main

import (
	"codeberg.org/miketth/imswitch/pkg/control"
	"codeberg.org/miketth/imswitch/pkg/settings/sqlite"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"time"
)

const clientTimeout = 5 * time.Second

var (
	errNotHandled = errors.New("key event not handled")

	activeColor = color.New(color.FgGreen, color.Bold)
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Input method switcher for Hyprland and IBus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to config.toml")
	flags.String("socket", "", "control socket of the daemon")
	flags.Bool("debug", false, "enable debug logging")

	root.AddCommand(
		newDaemonCmd(),
		newSchemaCmd(),
		newCallCmd("trigger <grab>", "Fire a trigger grab, used by the Hyprland binds", control.CmdTrigger, cobra.ExactArgs(1)),
		newCallCmd("get <section> <key>", "Print a setting", control.CmdGet, cobra.ExactArgs(2)),
		newCallCmd("set <section> <key> <strv|int|bool> [values...]", "Change a setting", control.CmdSet, cobra.MinimumNArgs(3)),
		newCallCmd("status", "Print the active engine as waybar JSON", control.CmdStatus, cobra.NoArgs),
		newCallCmd("engines", "List the enabled engines, active first", control.CmdEngines, cobra.NoArgs),
		newCallCmd("activate <engine>", "Switch to an enabled engine", control.CmdActivate, cobra.ExactArgs(1)),
		newCallCmd("key <press|release> <keysym> <state>", "Feed a key event to the switcher", control.CmdKey, cobra.ExactArgs(3)),
	)

	return root
}

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the switcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			return runDaemon(cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("store", "", "settings store: sqlite, json, memory or none")
	flags.String("store-path", "", "settings store file")
	flags.String("evdev-xml", "", "path to evdev.xml")
	flags.String("component-dir", "", "IBus component directory")
	flags.String("ibus", "", "IBus backend: dbus, cli or none")
	flags.String("device", "", "keyboard device, the main keyboard if empty")
	flags.String("status-file", "", "where to write the status JSON")
	flags.Bool("immediate", true, "switch on every trigger press instead of on modifier release")
	flags.Duration("debounce", 0, "ignore layout changes for this long after one was handled")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the SQL schema of the sqlite settings store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sqlite.DumpSchema(cmd.Context(), cmd.OutOrStdout(), zap.NewNop().Sugar())
		},
	}
}

func newCallCmd(use, short, command string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), clientTimeout)
			defer cancel()

			resp, err := control.Client{Path: cfg.Socket}.Call(ctx, control.Request{Command: command, Args: args})
			if err != nil {
				return err
			}
			return printResponse(cmd, command, resp)
		},
	}
}

func configFromCmd(cmd *cobra.Command) (Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return Config{}, err
	}
	return loadConfig(path, cmd.Flags())
}

func printResponse(cmd *cobra.Command, command string, resp control.Response) error {
	out := cmd.OutOrStdout()
	switch command {
	case control.CmdGet, control.CmdSet:
		if resp.Value != nil {
			fmt.Fprintln(out, resp.Value.String())
		}
	case control.CmdStatus, control.CmdActivate:
		if resp.Status == nil {
			return nil
		}
		enc := json.NewEncoder(out)
		return enc.Encode(map[string]string{
			"text":    resp.Status.Label,
			"alt":     resp.Status.Engine,
			"tooltip": resp.Status.Tooltip,
			"class":   resp.Status.Engine,
		})
	case control.CmdEngines:
		for i, name := range resp.Engines {
			if i == 0 {
				name = activeColor.Sprint(name)
			}
			fmt.Fprintln(out, name)
		}
	case control.CmdKey:
		if !resp.Handled {
			return errNotHandled
		}
	}
	return nil
}
