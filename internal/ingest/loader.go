package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/series"
)

// Sources names the four input files. Each is a local path or an http(s) URL.
type Sources struct {
	Confirmed  string
	Deaths     string
	Recovered  string
	Population string
}

// Opener opens one source for reading
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// DefaultOpener reads local files and fetches http(s) URLs
type DefaultOpener struct {
	Client *http.Client
}

// Open implements Opener
func (o *DefaultOpener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.Open(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d", location, resp.StatusCode)
	}
	return resp.Body, nil
}

// Loader builds a complete Table from Sources
type Loader struct {
	sources Sources
	opener  Opener
	timeout time.Duration
	logger  *logging.Logger
}

// NewLoader creates a loader. A nil opener uses DefaultOpener.
func NewLoader(sources Sources, opener Opener, timeout time.Duration, logger *logging.Logger) *Loader {
	if opener == nil {
		opener = &DefaultOpener{Client: &http.Client{Timeout: timeout}}
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Loader{
		sources: sources,
		opener:  opener,
		timeout: timeout,
		logger:  logger.With("component", "ingest"),
	}
}

// Load fetches and parses all four sources in parallel, then aligns them.
// Nothing is returned unless every source parsed and the tables agree.
func (l *Loader) Load(ctx context.Context) (*series.Table, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		errs       []error
		cases      = make(map[series.Category]*series.CaseTable, 3)
		population []series.PopulationRow
	)

	caseSources := map[series.Category]string{
		series.Confirmed: l.sources.Confirmed,
		series.Deaths:    l.sources.Deaths,
		series.Recovered: l.sources.Recovered,
	}

	for category, location := range caseSources {
		wg.Add(1)
		go func(category series.Category, location string) {
			defer wg.Done()
			table, err := l.readCases(ctx, location)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", category, err))
				return
			}
			cases[category] = table
		}(category, location)
	}

	if l.sources.Population != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := l.readPopulation(ctx, l.sources.Population)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, fs.ErrNotExist) {
				l.logger.Warn("Population file not found, per-capita views are unavailable",
					"path", l.sources.Population)
				return
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("population: %w", err))
				return
			}
			population = rows
		}()
	}

	wg.Wait()

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load sources: %w", errors.Join(errs...))
	}

	table, err := series.LoadRawTable(cases[series.Confirmed], cases[series.Deaths], cases[series.Recovered], population)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loaded case tables",
		"countries", len(table.Countries()),
		"dates", table.Len(),
		"duration", time.Since(start))
	return table, nil
}

func (l *Loader) readCases(ctx context.Context, location string) (*series.CaseTable, error) {
	if location == "" {
		return nil, fmt.Errorf("no source configured")
	}
	rc, err := l.opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return ParseCaseCSV(rc)
}

func (l *Loader) readPopulation(ctx context.Context, location string) ([]series.PopulationRow, error) {
	rc, err := l.opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return ParsePopulationCSV(rc)
}
