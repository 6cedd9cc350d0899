package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dailyhealth/internal/dateparse"
)

func newStrategiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "按优先级列出日期解析策略",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, st := range dateparse.Strategies() {
				fmt.Fprintf(out, "%d\t%s\n", i+1, st.Name)
			}
			state := "off"
			if a.cfg.Merge.Recover {
				state = "on"
			}
			fmt.Fprintf(out, "-\t%s (%s)\n", strategyRecover, state)
			return nil
		},
	}
}
