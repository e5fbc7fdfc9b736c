package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"kastelo.dev/rowexport/excel"
)

func main() {
	dir := flag.String("dir", ".", "Directory")
	flag.Parse()

	for _, path := range flag.Args() {
		writeCSV(*dir, path)
	}
}

func writeCSV(dir, path string) {
	rows, err := excel.ReadRows(path)
	if err != nil {
		log.Fatal(err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".csv"
	fd, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		log.Fatal(err)
	}
	cw := csv.NewWriter(fd)
	if err := cw.WriteAll(rows); err != nil {
		log.Fatal(err)
	}
	if err := fd.Close(); err != nil {
		log.Fatal(err)
	}
}
