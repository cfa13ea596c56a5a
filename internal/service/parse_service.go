package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// Matches lines of the shape "MM/DD  DESCRIPTION  -$1,234.56".
	// Lines that don't match are not transactions and are skipped.
	transactionLine = regexp.MustCompile(`(\d{2}/\d{2})\s+(.+?)\s+(-?\$?[\d,]+\.\d{2})`)

	// First 4-digit year token anywhere in the document. Statements
	// print dates as MM/DD, so the year is inferred once per document.
	yearToken = regexp.MustCompile(`\b(20\d{2})\b`)
)

// ParseService extracts line-item transactions from raw document
// bytes: plain-text extraction followed by a per-line pattern match.
type ParseService struct {
	extractor TextExtractor
	logger    *zap.Logger
}

func NewParseService(extractor TextExtractor, logger *zap.Logger) *ParseService {
	return &ParseService{
		extractor: extractor,
		logger:    logger,
	}
}

// Parse returns the document's transactions in document order. A
// document with no transaction-shaped lines yields an empty slice and
// no error; only a failed text extraction is fatal.
func (s *ParseService) Parse(data []byte) ([]ParsedTransaction, error) {
	text, err := s.extractor.ExtractText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	transactions := parseStatementText(text)

	s.logger.Info("Parsed document",
		zap.Int("transactions", len(transactions)),
		zap.Int("text_length", len(text)),
	)

	return transactions, nil
}

// parseStatementText scans extracted text line by line for transaction
// rows. Dates are synthesized from the single inferred year plus each
// line's MM/DD token.
func parseStatementText(text string) []ParsedTransaction {
	year := inferYear(text)

	var transactions []ParsedTransaction
	for _, line := range strings.Split(text, "\n") {
		match := transactionLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		amount, err := parseAmount(match[3])
		if err != nil {
			continue
		}

		monthDay := strings.SplitN(match[1], "/", 2)
		transactions = append(transactions, ParsedTransaction{
			Date:        fmt.Sprintf("%d-%s-%s", year, monthDay[0], monthDay[1]),
			Description: strings.TrimSpace(match[2]),
			Amount:      amount,
		})
	}

	return transactions
}

// inferYear picks the first 4-digit year token in the document, falling
// back to the current year. Multi-year statements get the first year
// for every transaction; that is a known limitation of the format.
func inferYear(text string) int {
	if match := yearToken.FindStringSubmatch(text); match != nil {
		year, _ := strconv.Atoi(match[1])
		return year
	}
	return time.Now().Year()
}

// parseAmount strips the currency symbol and grouping separators and
// parses the remainder as a signed decimal. The source text's own sign
// convention distinguishes debits from credits.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(raw)
	return decimal.NewFromString(cleaned)
}
