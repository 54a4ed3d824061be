package whois

import (
	"unicode"

	"github.com/polisai/polis-whois/pkg/domain"
)

// Detection is the Format Detector verdict.
type Detection struct {
	Dialect domain.Dialect
	// Share is the fraction of voting lines that agreed with Dialect.
	Share float64
	Votes map[domain.Dialect]int
}

// Detect classifies the dialect by majority vote over the lines. Each line votes
// for key:value, column-aligned or prose. Prose wins only when it outnumbers all
// structured votes together; between the structured dialects ties go to
// KeyColon. Lines without any word do not vote, and a record with no votes is
// Unknown.
func Detect(lines []domain.Line) Detection {
	votes := map[domain.Dialect]int{}
	for _, line := range lines {
		switch {
		case isKeyColonLine(line.Text):
			votes[domain.DialectKeyColon]++
		case isColumnLine(line.Text):
			votes[domain.DialectColumnAligned]++
		case hasWord(line.Text):
			votes[domain.DialectFreeText]++
		}
	}

	kc := votes[domain.DialectKeyColon]
	col := votes[domain.DialectColumnAligned]
	prose := votes[domain.DialectFreeText]
	total := kc + col + prose

	d := Detection{Dialect: domain.DialectUnknown, Votes: votes}
	if total == 0 {
		return d
	}

	winner := kc
	switch {
	case prose > kc+col:
		d.Dialect, winner = domain.DialectFreeText, prose
	case col > kc:
		d.Dialect, winner = domain.DialectColumnAligned, col
	default:
		d.Dialect = domain.DialectKeyColon
	}
	d.Share = float64(winner) / float64(total)
	return d
}

func isKeyColonLine(text string) bool {
	if _, _, ok := splitKeyColon(text); ok {
		return true
	}
	_, ok := bracketHeader(text)
	return ok
}

func isColumnLine(text string) bool {
	_, _, ok := splitColumn(text)
	return ok
}

// hasWord reports a run of at least two letters.
func hasWord(s string) bool {
	run := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			run++
			if run >= 2 {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}
