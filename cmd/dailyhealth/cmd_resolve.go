package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dailyhealth/internal/dateparse"
	"dailyhealth/internal/model"
)

// strategyRecover 二次提取胜出时显示的策略名
const strategyRecover = "recover"

func newResolveCmd(a *app) *cobra.Command {
	var (
		recoverFlag bool
		explain     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <value>...",
		Short: "解析原始日期值并输出 DD-MM-YYYY",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			withRecover := a.cfg.Merge.Recover
			if cmd.Flags().Changed("recover") {
				withRecover = recoverFlag
			}

			out := cmd.OutOrStdout()
			for _, raw := range args {
				res, strategy := dateparse.Explain(raw)
				if !res.Resolved() && withRecover {
					res, strategy = dateparse.Recover(raw), strategyRecover
				}

				date := "unresolved"
				if res.Resolved() {
					date = model.FormatDayDate(res.Date)
				}
				if explain {
					if !res.Resolved() {
						strategy = "-"
					}
					fmt.Fprintf(out, "%q\t%s\t%s\n", raw, date, strategy)
					continue
				}
				fmt.Fprintln(out, date)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&recoverFlag, "recover", false, "级联失败后从文本中提取日期 (默认取配置 merge.recover)")
	cmd.Flags().BoolVar(&explain, "explain", false, "同时输出原始值与胜出策略")
	return cmd
}
