package referenceparser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alibahaloo/PharmaTrack-sub000/interactions"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"golang.org/x/text/unicode/norm"
)

const maxLineSize = 1024 * 1024

// skipStats counts rejected lines of one TSV file
type skipStats struct {
	lines          int
	emptyLines     int
	missingColumns int
	formatErrors   int
}

func (s skipStats) log(file string, parsed int) {
	if s.emptyLines == 0 && s.missingColumns == 0 && s.formatErrors == 0 {
		return
	}
	logging.Info(file+" skip statistics",
		"empty_lines", s.emptyLines,
		"missing_columns", s.missingColumns,
		"format_errors", s.formatErrors,
		"total_lines", s.lines,
		"records_parsed", parsed)
}

// scanTSV calls fn for every non-empty line with at least minFields tab-separated fields.
// fn returns false to count the line as a format error.
func scanTSV(r io.Reader, file string, minFields int, fn func(fields []string) bool) (skipStats, error) {
	var stats skipStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		stats.lines++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			stats.emptyLines++
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < minFields {
			stats.missingColumns++
			continue
		}

		if !fn(fields) {
			stats.formatErrors++
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scanner error in %s: %w", file, err)
	}
	return stats, nil
}

// NormalizeName returns the canonical form of an ingredient name read from a source
func NormalizeName(name string) string {
	return interactions.NormalizeIngredient(name)
}

// parseDrugs reads a CIS_bdpm.txt export: code, display name, then columns we ignore.
func parseDrugs(r io.Reader) (map[int]string, []int, error) {
	names := make(map[int]string)
	var order []int

	stats, err := scanTSV(r, "CIS_bdpm.txt", 2, func(fields []string) bool {
		code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return false
		}
		name := strings.TrimSpace(norm.NFC.String(fields[1]))
		if name == "" {
			return false
		}
		if _, seen := names[code]; !seen {
			order = append(order, code)
		}
		names[code] = name
		return true
	})
	if err != nil {
		return nil, nil, err
	}

	stats.log("CIS_bdpm.txt", len(names))
	return names, order, nil
}

// parseCompositions reads a CIS_COMPO_bdpm.txt export. Therapeutic-fraction rows ("FT")
// restate an active substance under another name and are dropped.
func parseCompositions(r io.Reader) ([]entities.Composition, error) {
	var records []entities.Composition

	stats, err := scanTSV(r, "CIS_COMPO_bdpm.txt", 7, func(fields []string) bool {
		code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return false
		}
		substanceCode, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return false
		}

		nature := strings.ToUpper(strings.TrimSpace(fields[6]))
		if nature == "FT" {
			return true
		}

		records = append(records, entities.Composition{
			DrugCode:              code,
			ElementPharmaceutique: strings.TrimSpace(fields[1]),
			CodeSubstance:         substanceCode,
			DenominationSubstance: NormalizeName(fields[3]),
			Dosage:                strings.TrimSpace(fields[4]),
			NatureComposant:       nature,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	stats.log("CIS_COMPO_bdpm.txt", len(records))
	return records, nil
}
