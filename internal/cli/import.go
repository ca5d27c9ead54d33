package cli

import (
	"fmt"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/config"
	"eduhub-course-service/internal/content"
	"eduhub-course-service/internal/infra/excel"
	"eduhub-course-service/internal/logger"
	"github.com/spf13/cobra"
)

// NewImportCmd appends a course read from a spreadsheet to the catalog.
func NewImportCmd(configPath *string) *cobra.Command {
	var (
		sheet string
		title string
	)
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import a course from an xlsx sheet into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Development)

			importCfg := excel.DefaultImportConfig(args[0])
			importCfg.SheetName = sheet
			importCfg.Title = title
			result, err := excel.ImportCourse(importCfg)
			if err != nil {
				return err
			}
			for _, rowErr := range result.Errors {
				log.Warn().Msg(rowErr)
			}
			if len(result.Course.Modules) == 0 {
				return fmt.Errorf("no lessons imported from %s", args[0])
			}

			if driverName(cfg.Storage.Driver) == "memory" && cfg.Postgres.URL == "" {
				log.Warn().Msg("memory storage selected, the imported course will not outlive this command")
			}
			st, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			defaults, err := content.DefaultCourses()
			if err != nil {
				return err
			}
			course := app.NewCatalogService(st.catalog, defaults, log).Append(ctx, result.Course)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %q as %s: %d rows, %d skipped\n",
				course.Title, course.ID, result.TotalProcessed, result.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().StringVar(&title, "title", "", "course title (default: file name)")
	return cmd
}
