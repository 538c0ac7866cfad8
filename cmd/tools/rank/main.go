package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/soltixdb/casetrend/internal/config"
	"github.com/soltixdb/casetrend/internal/dataset"
	"github.com/soltixdb/casetrend/internal/ingest"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/ranking"
	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/view"
)

func main() {
	defaults := config.DefaultConfig()

	// Command line flags
	confirmed := flag.String("confirmed", defaults.Data.ConfirmedURL, "Confirmed cases table (path or URL)")
	deaths := flag.String("deaths", defaults.Data.DeathsURL, "Deaths table (path or URL)")
	recovered := flag.String("recovered", defaults.Data.RecoveredURL, "Recovered table (path or URL)")
	population := flag.String("population", defaults.Data.PopulationPath, "Population table (optional)")
	category := flag.String("data", "confirmed", "Category (confirmed, deaths, recovered)")
	perCapita := flag.Bool("per-capita", false, "Rank per million inhabitants")
	window := flag.Int("window", view.DefaultWindowSize, "Trailing window in days")
	excludeTop := flag.Int("exclude-top", defaults.Ranking.ExcludeTop, "Highest rows dropped from each ranking")
	limit := flag.Int("limit", 20, "Rows printed per ranking (0 = all)")
	countries := flag.String("countries", "", "Semicolon-separated countries to export as a dataset CSV")
	output := flag.String("output", "", "Dataset CSV output file (requires -countries)")
	timeout := flag.Duration("timeout", defaults.Data.FetchTimeout, "Fetch timeout")

	flag.Parse()

	cat, err := series.ParseCategory(*category)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	loader := ingest.NewLoader(ingest.Sources{
		Confirmed:  *confirmed,
		Deaths:     *deaths,
		Recovered:  *recovered,
		Population: *population,
	}, nil, *timeout, logging.NewDevelopment())

	table, err := loader.Load(context.Background())
	if err != nil {
		log.Fatalf("Error loading tables: %v\n", err)
	}

	dates := table.Dates()
	fmt.Printf("Loaded %d countries, %s to %s\n", len(table.Countries()),
		dates[0].Format("2006-01-02"), dates[len(dates)-1].Format("2006-01-02"))

	result, err := ranking.Rank(table, cat, *perCapita, *window, ranking.ExclusionRule{Top: *excludeTop})
	if err != nil {
		log.Fatalf("Error ranking: %v\n", err)
	}

	printRanking(fmt.Sprintf("Daily %s (%d-day average)", cat, *window), result.ByDailyAverage, *limit, true)
	printRanking(fmt.Sprintf("Total %s", cat), result.ByTotal, *limit, false)

	if *output == "" {
		return
	}
	if *countries == "" {
		log.Fatal("Error: -output requires -countries")
	}

	params := view.DefaultParameters()
	params.Countries = nil
	for _, name := range strings.Split(*countries, ";") {
		country, ok := table.ResolveCountry(name)
		if !ok {
			log.Printf("Warning: unknown country %q skipped\n", name)
			continue
		}
		params.Countries = append(params.Countries, country)
	}
	params.Category = cat
	params.PerCapita = *perCapita
	params.WindowSize = *window

	flat, err := view.Recompute(params, table)
	if err != nil {
		log.Fatalf("Error building dataset: %v\n", err)
	}

	if err := exportToCSV(*output, flat); err != nil {
		log.Fatalf("Error exporting to CSV: %v\n", err)
	}

	fmt.Printf("Successfully exported to: %s\n", *output)
}

func printRanking(title string, rows []ranking.Row, limit int, withLatest bool) {
	fmt.Printf("\n%s\n", title)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	if withLatest {
		_, _ = fmt.Fprintln(w, "#\tCountry\tAverage\tLatest\t")
	} else {
		_, _ = fmt.Fprintln(w, "#\tCountry\tTotal\t")
	}

	for i, row := range rows {
		if limit > 0 && i >= limit {
			break
		}
		if withLatest {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%.2f\t%.0f\t\n", i+1, row.Country, row.Value, row.Latest)
		} else {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%.0f\t\n", i+1, row.Country, row.Value)
		}
	}
	_ = w.Flush()
}

// exportToCSV writes one column per series key and one row per date.
// Undefined values are left empty.
func exportToCSV(path string, flat *dataset.Flat) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	keys := flat.Keys()
	header := make([]string, 0, len(keys)+1)
	header = append(header, "date")
	columns := make([]dataset.Values, 0, len(keys))
	for _, key := range keys {
		values, _ := flat.Get(key)
		header = append(header, key.String())
		columns = append(columns, values)
	}

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, date := range flat.X() {
		row := make([]string, 0, len(header))
		row = append(row, date.Format(time.DateOnly))
		for _, values := range columns {
			if math.IsNaN(values[i]) {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(values[i], 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
