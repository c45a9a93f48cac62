package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the format used when no date is found in the text
const dateLayout = "2006-01-02"

// amountPattern matches an optional currency marker followed by a numeral.
// "?" is accepted as a marker because OCR commonly misreads the rupee glyph.
var amountPattern = regexp.MustCompile(`(?i)(?:₹|rs|inr|\?)?\.?\s?([\d,]+\.?\d*)`)

// datePattern matches DD/DD/YY(YY) or DD-DD-YY(YY) with a consistent separator
var datePattern = regexp.MustCompile(`\d{2}/\d{2}/(?:\d{4}|\d{2})|\d{2}-\d{2}-(?:\d{4}|\d{2})`)

// penaltyKeywords indicate money was taken away from the payout.
// Matching is by substring, so "dr" also matches words like "driver".
var penaltyKeywords = []string{"penalty", "adjustment", "deduction", "dr"}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// ReceiptFacts contains the structured data extracted from receipt text.
//
// TotalEarnings is the largest amount found. Receipts usually list line items
// (fares, tips, deductions) alongside the grand total, so the maximum is a
// good guess but not a guarantee.
type ReceiptFacts struct {
	DetectedDate    string    `json:"detected_date"`
	DateDetected    bool      `json:"date_detected"` // false when DetectedDate is the parse-time fallback
	TotalEarnings   float64   `json:"total_earnings"`
	PenaltyFlag     bool      `json:"penalty_flag"`
	RawAmountsFound []float64 `json:"raw_amounts_found"`
}

// Parse extracts receipt facts from raw OCR text, falling back to today's date
func Parse(rawText string) ReceiptFacts {
	return ParseAt(rawText, time.Now())
}

// ParseAt extracts receipt facts from raw OCR text using now as the fallback date.
// It never fails: missing fields degrade to zero values.
func ParseAt(rawText string, now time.Time) ReceiptFacts {
	text := strings.TrimSpace(newlineReplacer.Replace(rawText))
	textLower := strings.ToLower(text)

	amounts := extractAmounts(text)

	facts := ReceiptFacts{
		TotalEarnings:   maxAmount(amounts),
		PenaltyFlag:     containsAny(textLower, penaltyKeywords),
		RawAmountsFound: amounts,
	}

	if date := datePattern.FindString(text); date != "" {
		facts.DetectedDate = date
		facts.DateDetected = true
	} else {
		facts.DetectedDate = now.Format(dateLayout)
	}

	return facts
}

// extractAmounts returns every parseable amount in order of appearance
func extractAmounts(text string) []float64 {
	amounts := make([]float64, 0)
	for _, match := range amountPattern.FindAllStringSubmatch(text, -1) {
		numeral := strings.ReplaceAll(match[1], ",", "")
		value, err := strconv.ParseFloat(numeral, 64)
		if err != nil {
			// Bare commas and similar OCR noise. Runs too long for a float64
			// come back as ErrRange with ±Inf and are dropped as well.
			continue
		}
		amounts = append(amounts, value)
	}
	return amounts
}

func maxAmount(amounts []float64) float64 {
	if len(amounts) == 0 {
		return 0.0
	}
	total := amounts[0]
	for _, a := range amounts[1:] {
		if a > total {
			total = a
		}
	}
	return total
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
