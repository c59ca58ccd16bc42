// Command templategen writes the project import templates to a directory.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"energy_finance/internal/spreadsheet"
	"energy_finance/pkg/logger"
)

func main() {
	dir := flag.String("out", "templates", "output directory")
	flag.Parse()
	logger.Init()

	if err := run(*dir); err != nil {
		logger.Fatal(err.Error())
	}
}

func run(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	templates := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"project_template.xlsx", spreadsheet.WriteTemplateXLSX},
		{"project_template.csv", spreadsheet.WriteTemplateCSV},
	}

	for _, tpl := range templates {
		path := filepath.Join(dir, tpl.name)
		if err := writeFile(path, tpl.write); err != nil {
			return err
		}
		logger.Infof("Wrote %s", path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
