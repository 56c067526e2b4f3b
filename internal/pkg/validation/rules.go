package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/apperrors"
)

// Validation rule patterns and bounds
var (
	// Subject pattern - 2 to 4 letters
	SubjectPattern = `^[A-Za-z]{2,4}$`

	// Term count bounds
	NtermsMin = 1
	NtermsMax = 20

	// Course number bounds
	CourseNumberMin = 0
	CourseNumberMax = 9999
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Subject *regexp.Regexp
}{
	Subject: regexp.MustCompile(SubjectPattern),
}

// ValidateJobParameters checks and normalizes raw report-request fields into
// job parameters. Subjects are uppercased and ranges become inclusive pairs.
// Failures are collected per field into a single validation error rather
// than stopping at the first one.
func ValidateJobParameters(nterms int, subjects []string, ranges [][]int, includeSummer, saveAll, saveGrouped bool) (models.JobParameters, error) {
	fields := make(map[string]interface{})

	if nterms < NtermsMin || nterms > NtermsMax {
		fields["nterms"] = fmt.Sprintf("must be an integer between %d and %d", NtermsMin, NtermsMax)
	}

	normalizedSubjects := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if !CompiledPatterns.Subject.MatchString(subject) {
			fields["subjects"] = fmt.Sprintf("invalid subject %q: must be 2 to 4 letters", subject)
			break
		}
		normalizedSubjects = append(normalizedSubjects, strings.ToUpper(subject))
	}

	normalizedRanges := make([]models.CourseRange, 0, len(ranges))
	for _, pair := range ranges {
		if len(pair) != 2 {
			fields["ranges"] = "each range must be a [low, high] pair of course numbers"
			break
		}
		low, high := pair[0], pair[1]
		if low < CourseNumberMin || high > CourseNumberMax {
			fields["ranges"] = fmt.Sprintf("course numbers must be between %d and %d", CourseNumberMin, CourseNumberMax)
			break
		}
		if low > high {
			fields["ranges"] = fmt.Sprintf("range [%d, %d] has low greater than high", low, high)
			break
		}
		normalizedRanges = append(normalizedRanges, models.CourseRange{Low: low, High: high})
	}

	if !saveAll && !saveGrouped {
		fields["save_all"] = "at least one of save_all and save_grouped must be true"
	}

	if len(fields) > 0 {
		return models.JobParameters{}, apperrors.NewValidationError(fields)
	}

	return models.JobParameters{
		Nterms:        nterms,
		Subjects:      normalizedSubjects,
		Ranges:        normalizedRanges,
		IncludeSummer: includeSummer,
		SaveAll:       saveAll,
		SaveGrouped:   saveGrouped,
	}, nil
}
