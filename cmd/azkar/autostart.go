package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/autostart"
)

var autostartOpts struct {
	exec string
}

var autostartManager = autostart.NewManager()

// autostartCmd represents the autostart command group.
var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Start azkard at login",
	Long: `Manage the XDG autostart entry that launches azkard at login.

Use 'azkar autostart status' to check whether the entry is installed.
Use 'azkar autostart on' to install it.
Use 'azkar autostart off' to remove it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to showing status
		return autostartStatusRun(cmd, args)
	},
}

var autostartOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Launch azkard at login",
	Args:  cobra.NoArgs,
	RunE:  autostartOnRun,
}

var autostartOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Stop launching azkard at login",
	Args:  cobra.NoArgs,
	RunE:  autostartOffRun,
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether azkard is launched at login",
	Args:  cobra.NoArgs,
	RunE:  autostartStatusRun,
}

func init() {
	autostartCmd.AddCommand(autostartOnCmd)
	autostartCmd.AddCommand(autostartOffCmd)
	autostartCmd.AddCommand(autostartStatusCmd)

	autostartOnCmd.Flags().StringVar(&autostartOpts.exec, "exec", "",
		"Path to the azkard binary (default: azkard next to azkar, then $PATH)")

	rootCmd.AddCommand(autostartCmd)
}

func autostartOnRun(cmd *cobra.Command, args []string) error {
	execPath, err := daemonPath()
	if err != nil {
		return err
	}
	if err := autostartManager.Enable(execPath); err != nil {
		return err
	}
	path, _ := autostart.Path()
	fmt.Fprintf(cmd.OutOrStdout(), "Autostart: enabled (%s)\n", path)
	return nil
}

func autostartOffRun(cmd *cobra.Command, args []string) error {
	if err := autostartManager.Disable(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Autostart: disabled")
	return nil
}

func autostartStatusRun(cmd *cobra.Command, args []string) error {
	if autostartManager.IsEnabled() {
		fmt.Fprintln(cmd.OutOrStdout(), "Autostart: enabled")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Autostart: disabled")
	}
	return nil
}

// daemonPath locates the azkard binary for the autostart entry.
func daemonPath() (string, error) {
	if autostartOpts.exec != "" {
		return autostartOpts.exec, nil
	}

	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), "azkard")
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}

	p, err := exec.LookPath("azkard")
	if err != nil {
		return "", fmt.Errorf("azkard not found; pass --exec: %w", err)
	}
	return p, nil
}
