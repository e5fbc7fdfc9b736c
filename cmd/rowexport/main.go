package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin"
	_ "github.com/lib/pq"
	"kastelo.dev/rowexport"
	"kastelo.dev/rowexport/excel"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cmdExport := kingpin.Command("export", "Export records from a file to a spreadsheet").Default()
	input := cmdExport.Flag("input", "Input file (default stdin)").Short('i').ExistingFile()
	format := cmdExport.Flag("format", "Input format (default from file extension, json for stdin)").Enum("json", "yaml", "csv", "kv")
	charset := cmdExport.Flag("charset", "Input character set").Envar("ROWEXPORT_CHARSET").String()
	exportOutput := cmdExport.Flag("output", "Output file").Short('o').Default("output.xlsx").Envar("ROWEXPORT_OUTPUT").String()

	cmdQuery := kingpin.Command("query", "Export the result of a PostgreSQL query to a spreadsheet")
	dsn := cmdQuery.Flag("dsn", "Database connection string").Envar("DATABASE_URL").Required().String()
	query := cmdQuery.Flag("sql", "Query to run").Required().String()
	queryOutput := cmdQuery.Flag("output", "Output file").Short('o').Default("output.xlsx").Envar("ROWEXPORT_OUTPUT").String()

	cmdDiff := kingpin.Command("diff", "Show differences between the contents of two exported spreadsheets")
	diffOld := cmdDiff.Arg("old", "Old spreadsheet").Required().ExistingFile()
	diffNew := cmdDiff.Arg("new", "New spreadsheet").Required().ExistingFile()

	var err error
	switch kingpin.Parse() {
	case cmdExport.FullCommand():
		err = exportFile(*input, *format, *charset, *exportOutput)
	case cmdQuery.FullCommand():
		err = exportQuery(*dsn, *query, *queryOutput)
	case cmdDiff.FullCommand():
		var same bool
		same, err = diff(*diffOld, *diffNew)
		if err == nil && !same {
			os.Exit(1)
		}
	}
	if err != nil {
		slog.Error("Export failed", "error", err)
		os.Exit(1)
	}
}

func exportFile(input, format, charset, output string) error {
	r := io.Reader(os.Stdin)
	if input != "" {
		fd, err := os.Open(input)
		if err != nil {
			return err
		}
		defer fd.Close()
		r = fd
	}

	f := rowexport.Format(format)
	if f == "" {
		f = rowexport.FormatJSON
		if input != "" {
			var err error
			if f, err = rowexport.FormatFromPath(input); err != nil {
				return err
			}
		}
	}

	records, err := rowexport.Decode(r, f, charset)
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}
	return export(records, output)
}

func exportQuery(dsn, query, output string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	records, err := rowexport.QueryRecords(ctx, db, query)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	return export(records, output)
}

func export(records rowexport.RecordSet, output string) error {
	if err := excel.Export(records, output); err != nil {
		return err
	}
	if len(records) == 0 {
		slog.Info("Written spreadsheet (no rows)", "path", output)
		return nil
	}
	slog.Info("Written spreadsheet", "path", output, "records", len(records))
	return nil
}

func diff(oldPath, newPath string) (bool, error) {
	patch, err := excel.Diff(oldPath, newPath)
	if err != nil {
		return false, err
	}
	if patch == "" {
		return true, nil
	}
	fmt.Print(patch)
	return false, nil
}
