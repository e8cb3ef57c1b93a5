package main

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"

	"opname/collections"
	"opname/config"
	"opname/services"
)

// newReportCommand returns the "report" command, which writes the combined
// opname and RAB report of one store to a directory.
func newReportCommand(app core.App, cfg *config.Config, session *services.Session, store *services.SheetStore) *cobra.Command {
	var (
		storeCode string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the opname and RAB report of a store",
		Example: `  opname report --store TZ01
  opname report --store TZ01 --out ./laporan`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeCode = strings.TrimSpace(storeCode)
			if storeCode == "" {
				return fmt.Errorf("--store is required")
			}
			if outDir == "" {
				outDir = cfg.OutputDir
			}

			logger := config.NewLogger(cfg)

			collections.Setup(app)
			if err := session.Open(); err != nil {
				return fmt.Errorf("open sheet session: %w", err)
			}

			ctx := cmd.Context()
			desc, err := store.Store(ctx, storeCode)
			if err != nil {
				return err
			}
			subs, err := store.ApprovedSubmissions(ctx, storeCode)
			if err != nil {
				return err
			}

			compositor := services.NewCompositor(cfg, store, logger)
			report, err := compositor.Export(ctx, services.FileSink{Dir: outDir}, subs, desc)
			if err != nil {
				return err
			}

			logger.Info("report written",
				"store", storeCode,
				"file", report.Filename,
				"dir", outDir,
				"pages", report.PageCount,
				"photos", report.PhotoCount,
				"missing_photos", report.MissingPhotos,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", strings.TrimRight(outDir, "/"), report.Filename)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeCode, "store", "", "store code (kode_toko)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default OPNAME_OUTPUT_DIR)")
	return cmd
}
