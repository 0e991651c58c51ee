package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

// operator is the actor used by command-line maintenance tasks.
var operator = service.Actor{Admin: true}

func newDemoCmd(cfgPath *string) *cobra.Command {
	demo := &cobra.Command{
		Use:   "demo",
		Short: "Demo data helpers",
	}

	var (
		formID string
		count  int
		seed   int64
	)
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a form with generated responses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if formID == "" {
				return errors.New("--form is required")
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			e, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer e.Close()
			start := time.Now()
			n, err := e.app.Demo.Seed(operator, formID, count, seed)
			if err != nil {
				return err
			}
			cmd.Printf("inserted %d responses in %s\n", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	seedCmd.Flags().StringVar(&formID, "form", "", "form id")
	seedCmd.Flags().IntVar(&count, "count", 200, "number of responses")
	seedCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")
	demo.AddCommand(seedCmd)
	return demo
}
