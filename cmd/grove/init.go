package main

import (
	"github.com/spf13/cobra"
)

func newInitCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create indexes and seed the admin account and templates, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.app.Bootstrap(nil); err != nil {
				return err
			}
			cmd.Println("database initialised")
			return nil
		},
	}
}
