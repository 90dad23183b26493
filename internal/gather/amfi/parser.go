package amfi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"saarthi/internal/domain"
)

// Source is recorded on every fund parsed from the feed.
const Source = "AMFI India"

// Record lines look like
//
//	code;isin;isin-reinvestment;name;nav;date
//
// Extra trailing fields are ignored.
const (
	minFields = 6
	fieldCode = 0
	fieldISIN = 1
	fieldName = 3
	fieldNAV  = 4
	fieldDate = 5
)

// maxRejects bounds how many rejected lines are kept for the run metadata.
const maxRejects = 100

// maxLineBytes is the longest line the parser will interpret. Longer lines
// are skipped as malformed.
const maxLineBytes = 1 << 20

// ParseResult is the outcome of parsing one feed.
type ParseResult struct {
	Catalog    *domain.Catalog
	Lines      int      // non-blank lines read
	Headers    int      // section header lines
	Skipped    int      // record lines rejected as malformed
	Duplicates int      // well-formed records whose key was already taken
	Rejects    []string // first few rejection reasons
}

// Parser turns the raw feed text into a catalog.
type Parser struct {
	asOf string
	log  *slog.Logger
}

// NewParser creates a Parser that stamps records with the date of asOf.
func NewParser(asOf time.Time, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{
		asOf: asOf.Format("2006-01-02"),
		log:  log,
	}
}

// Parse reads the feed line by line. Malformed record lines are counted and
// skipped; only a read failure returns an error.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	res := &ParseResult{Catalog: domain.NewCatalog()}
	var amc string

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading feed: %w", err)
		}
		if raw != "" {
			lineNo++
			amc = p.parseLine(res, raw, lineNo, amc)
		}
		if err != nil {
			break
		}
	}
	return res, nil
}

// parseLine folds one raw line into res and returns the AMC in effect for
// the lines that follow.
func (p *Parser) parseLine(res *ParseResult, raw string, lineNo int, amc string) string {
	if len(raw) > maxLineBytes {
		res.Lines++
		p.reject(res, lineNo, fmt.Sprintf("line of %d bytes exceeds %d", len(raw), maxLineBytes))
		return amc
	}
	line := strings.TrimSpace(raw)
	if line == "" {
		return amc
	}
	res.Lines++

	if first, _ := utf8.DecodeRuneInString(line); !unicode.IsDigit(first) {
		res.Headers++
		return line
	}

	rec, reason := p.parseRecord(line, amc)
	if rec == nil {
		p.reject(res, lineNo, reason)
		return amc
	}
	if !res.Catalog.Add(rec) {
		res.Duplicates++
		return amc
	}
	if n := res.Catalog.Len(); n%1000 == 0 {
		p.log.Info("funds processed", "count", n)
	}
	return amc
}

func (p *Parser) reject(res *ParseResult, lineNo int, reason string) {
	res.Skipped++
	if len(res.Rejects) < maxRejects {
		res.Rejects = append(res.Rejects, fmt.Sprintf("line %d: %s", lineNo, reason))
	}
}

// parseRecord builds a record from one data line, or returns the reason the
// line was rejected.
func (p *Parser) parseRecord(line, amc string) (*domain.FundRecord, string) {
	fields := strings.Split(line, ";")
	if len(fields) < minFields {
		return nil, fmt.Sprintf("%d fields, need %d", len(fields), minFields)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	code, name := fields[fieldCode], fields[fieldName]
	if code == "" {
		return nil, "empty scheme code"
	}
	if name == "" {
		return nil, "empty scheme name"
	}
	key := NormalizeName(name)
	if key == "" {
		return nil, fmt.Sprintf("name %q normalizes to nothing", name)
	}

	category := Classify(key)
	return &domain.FundRecord{
		Key:         key,
		Name:        name,
		AMC:         amc,
		SchemeCode:  code,
		ISIN:        parseISIN(fields[fieldISIN]),
		NAV:         parseNAV(fields[fieldNAV]),
		NAVDate:     fields[fieldDate],
		Category:    category,
		AUM:         EstimatedAUM(category),
		Benchmark:   domain.DefaultBenchmark(),
		Source:      Source,
		LastUpdated: p.asOf,
	}, ""
}

// parseNAV returns an absent value for anything that is not a number, such
// as "N.A.".
func parseNAV(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseISIN(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
