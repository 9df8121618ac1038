// Package validation checks reference records, reports data quality after each load and
// screens raw query strings before they are tokenised.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
)

const (
	maxQueryLength = 2048
	maxNameLength  = 200
	reportListSize = 10
)

var (
	// Letters in any script, digits, separators and the punctuation found in INN names
	queryRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s,\-\.\+'()/]*$`)

	// Substring checks are faster than a regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		"`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateDrug checks if a drug entity is valid
func (v *DataValidatorImpl) ValidateDrug(d *entities.Drug) error {
	if d == nil {
		return fmt.Errorf("drug is nil")
	}

	if d.Code <= 0 {
		return fmt.Errorf("invalid drug code: %d", d.Code)
	}

	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("empty name for drug %d", d.Code)
	}

	if len(d.Name) > 500 {
		return fmt.Errorf("name too long for drug %d: %d characters", d.Code, len(d.Name))
	}

	for _, ingredient := range d.Ingredients {
		if len(ingredient) > maxNameLength {
			return fmt.Errorf("ingredient name too long for drug %d: %d characters", d.Code, len(ingredient))
		}
	}

	return nil
}

// ValidateInteraction checks that a record has two distinct non-blank sides and a level
func (v *DataValidatorImpl) ValidateInteraction(i *entities.Interaction) error {
	if i == nil {
		return fmt.Errorf("interaction is nil")
	}

	a := strings.ToLower(strings.TrimSpace(i.IngredientA))
	b := strings.ToLower(strings.TrimSpace(i.IngredientB))

	if a == "" || b == "" {
		return fmt.Errorf("interaction %s has a blank ingredient", i.ID)
	}

	if a == b {
		return fmt.Errorf("interaction %s pairs %q with itself", i.ID, a)
	}

	if strings.TrimSpace(i.Level) == "" {
		return fmt.Errorf("interaction %s (%s, %s) has no level", i.ID, a, b)
	}

	if len(a) > maxNameLength || len(b) > maxNameLength {
		return fmt.Errorf("interaction %s has an ingredient name longer than %d characters", i.ID, maxNameLength)
	}

	return nil
}

// ReportDataQuality counts the issues of a reference load. Problem records are reported,
// not dropped.
func (v *DataValidatorImpl) ReportDataQuality(data *entities.ReferenceData) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DrugsWithoutCompositionsList: []int{},
		OrphanCompositionsList:       []int{},
	}
	if data == nil {
		return report
	}

	for _, drug := range data.Drugs {
		if len(drug.Ingredients) > 0 {
			continue
		}
		report.DrugsWithoutCompositions++
		if len(report.DrugsWithoutCompositionsList) < reportListSize {
			report.DrugsWithoutCompositionsList = append(report.DrugsWithoutCompositionsList, drug.Code)
		}
	}

	report.OrphanCompositions = len(data.OrphanCompositionCodes)
	for _, code := range data.OrphanCompositionCodes {
		if len(report.OrphanCompositionsList) >= reportListSize {
			break
		}
		report.OrphanCompositionsList = append(report.OrphanCompositionsList, code)
	}

	seen := make(map[string]struct{}, len(data.Interactions))
	for _, rec := range data.Interactions {
		a := strings.ToLower(strings.TrimSpace(rec.IngredientA))
		b := strings.ToLower(strings.TrimSpace(rec.IngredientB))

		if a == "" || b == "" {
			report.InteractionsWithBlankSide++
			continue
		}
		if a == b {
			report.SelfInteractions++
			continue
		}

		if b < a {
			a, b = b, a
		}
		key := a + "\x00" + b + "\x00" + strings.ToLower(strings.TrimSpace(rec.Level))
		if _, dup := seen[key]; dup {
			report.DuplicateInteractions++
			continue
		}
		seen[key] = struct{}{}
	}

	return report
}

// ValidateQuery screens a raw comma-separated query value. Emptiness and token rules
// belong to the resolver.
func (v *DataValidatorImpl) ValidateQuery(input string) error {
	if len(input) > maxQueryLength {
		return fmt.Errorf("query too long: maximum %d characters", maxQueryLength)
	}

	for _, r := range input {
		if unicode.IsControl(r) && r != '\t' {
			return fmt.Errorf("query contains control characters")
		}
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("query contains potentially dangerous content")
		}
	}

	if !queryRegex.MatchString(input) {
		return fmt.Errorf("query contains invalid characters. Only letters, digits, spaces, commas, hyphens, periods, apostrophes, plus signs, slashes and parentheses are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("query contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition reports a run of more than 10 identical non-digit characters.
// Digits are exempt because drug codes legitimately repeat them.
func hasExcessiveRepetition(input string) bool {
	run := 0
	var prev rune = -1
	for _, r := range input {
		if r == prev && !unicode.IsDigit(r) {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}
