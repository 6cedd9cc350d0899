package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dailyhealth/internal/config"
	"dailyhealth/internal/importer"
	"dailyhealth/internal/service/runner"
	"dailyhealth/internal/store"
)

func newRunCmd(a *app) *cobra.Command {
	var noWorkbook bool

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "扫描目录并生成按日规范表",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noWorkbook {
				a.cfg.Data.Workbook = false
			}
			root := ""
			if len(args) == 1 {
				root = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, a, root, cmd)
		},
	}
	cmd.Flags().BoolVar(&noWorkbook, "no-workbook", false, "不生成 XLSX 工作簿")
	return cmd
}

func runOnce(ctx context.Context, a *app, root string, cmd *cobra.Command) error {
	if _, err := config.EnsureDataDir(a.cfg); err != nil {
		return err
	}
	st, err := store.New(config.DBPath(a.cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	r := runner.New(a.cfg, st, a.logger)
	summary, err := r.Run(ctx, root, func(e importer.ProgressEvent) {
		switch e.Type {
		case importer.EventWarning:
			a.logger.Warn(e.Message)
		case importer.EventSourceDone:
			a.logger.Debug(e.Message, zap.Any("data", e.Data))
		}
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:        %s\n", summary.RunID)
	fmt.Fprintf(out, "root:       %s\n", summary.Root)
	fmt.Fprintf(out, "files:      %d scanned, %d sources\n", summary.TotalFiles, summary.Sources)
	fmt.Fprintf(out, "rows:       %d (resolved %d, recovered %d, unresolved %d)\n",
		summary.Stats.TotalRows, summary.Stats.Resolved, summary.Stats.Recovered, summary.Stats.Unresolved)
	fmt.Fprintf(out, "days:       %d\n", summary.Stats.Days)
	fmt.Fprintf(out, "daily:      %s\n", summary.Outputs.Daily)
	fmt.Fprintf(out, "unresolved: %s\n", summary.Outputs.Unresolved)
	fmt.Fprintf(out, "sources:    %s\n", summary.Outputs.Sources)
	if summary.Outputs.Workbook != "" {
		fmt.Fprintf(out, "workbook:   %s\n", summary.Outputs.Workbook)
	}
	return nil
}
