package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stitchpdf/stitch/internal/config"
	"github.com/stitchpdf/stitch/internal/home"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the stitch home directory and a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		path := h.ConfigPath()
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("config already exists at %s\n", path)
			return nil
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
