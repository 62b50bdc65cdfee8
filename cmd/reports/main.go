// Command reports manages the report history outside the inspection loop.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"riceinspector/internal/config"
	"riceinspector/internal/logger"
	"riceinspector/internal/model"
	"riceinspector/internal/repository/sqlite"
	"riceinspector/internal/service/storage"
)

const (
	flagDB      = "db"
	flagLog     = "log"
	flagDir     = "dir"
	flagLimit   = "limit"
	flagMinimum = "min-quality"
)

func main() {
	defaults := config.Load()

	app := &cli.App{
		Name:  "reports",
		Usage: "inspect and migrate saved rice quality reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagDB,
				Value: defaults.DatabasePath,
				Usage: "report database `FILE`",
			},
			&cli.StringFlag{
				Name:  flagLog,
				Value: defaults.ReportLogPath,
				Usage: "CSV report log `FILE`",
			},
			&cli.StringFlag{
				Name:  flagDir,
				Value: defaults.ReportDirectory,
				Usage: "directory holding the scan images",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "copy CSV log rows missing from the database",
				Action: importAction,
			},
			{
				Name:  "list",
				Usage: "print the newest reports",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagLimit,
						Value: 20,
						Usage: "number of reports to print",
					},
					&cli.IntFlag{
						Name:  flagMinimum,
						Usage: "only reports with at least this quality percent",
					},
				},
				Action: listAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*sqlite.DB, error) {
	db, err := sqlite.New(c.String(flagDB))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func importAction(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := &config.Config{
		ReportDirectory: c.String(flagDir),
		ReportLogPath:   c.String(flagLog),
	}
	recorder, err := storage.NewRecorderService(cfg, logger.NewNop(), sqlite.NewReportRepository(db), sqlite.NewGrainRepository(db))
	if err != nil {
		return err
	}

	fmt.Printf("Importing reports from %s into %s\n", cfg.ReportLogPath, c.String(flagDB))
	imported, err := recorder.ImportLog()
	fmt.Printf("✅ Imported %d reports\n", imported)
	if err != nil {
		fmt.Printf("⚠️  Some rows were skipped:\n%v\n", err)
	}
	return nil
}

func listAction(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := sqlite.NewReportRepository(db)
	filter := &model.ReportFilter{
		MinQuality: c.Int(flagMinimum),
		Limit:      c.Int(flagLimit),
	}

	reports, err := repo.GetAll(filter)
	if err != nil {
		return err
	}
	summary, err := repo.GetSummary(filter)
	if err != nil {
		return err
	}

	for _, r := range reports {
		fmt.Printf("%4d  %s  total %3d  whole %3d  broken %3d  foreign %2d  avg %6s mm  quality %3d%%  %s\n",
			r.ID, r.Timestamp.Format(model.TimestampLayout), r.Total, r.Whole, r.Broken, r.Foreign,
			model.FormatLength(r.AvgLengthMM), r.QualityPercent, r.ImageFile)
	}

	fmt.Printf("\n📊 Report Statistics:\n")
	fmt.Printf("   Reports: %d\n", summary.TotalReports)
	fmt.Printf("   Grains: %d whole, %d broken, %d foreign\n", summary.TotalWhole, summary.TotalBroken, summary.TotalForeign)
	fmt.Printf("   Average quality: %.1f%%\n", summary.AvgQuality)
	fmt.Printf("   Contaminated reports: %d\n", summary.Contaminations)
	return nil
}
