package factors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FlowRow is one trading day of aggregate ETF net flow in USD millions.
type FlowRow struct {
	Date  time.Time
	Total float64
}

// ParseResult is one of Success, PartialSuccess or Failure.
type ParseResult interface {
	isParseResult()
}

// Success means every data row parsed.
type Success struct {
	Rows       []FlowRow
	HeaderHash string
}

// PartialSuccess means some cells were unusable but rows remain.
type PartialSuccess struct {
	Rows       []FlowRow
	Warnings   []string
	HeaderHash string
}

// Failure means no usable rows were produced. TableFound distinguishes a
// recognised table whose rows all failed to parse from a page with no table.
type Failure struct {
	Errors     []string
	TableFound bool
}

func (Success) isParseResult()        {}
func (PartialSuccess) isParseResult() {}
func (Failure) isParseResult()        {}

// DateParser tries to read a table date cell.
type DateParser func(string) (time.Time, bool)

// NumberParser tries to read a flow cell.
type NumberParser func(string) (float64, bool)

// FlowParser extracts daily totals from the flow table. Strategies are
// tried in order, first match wins.
type FlowParser struct {
	Dates   []DateParser
	Numbers []NumberParser
}

// DefaultFlowParser knows the date and number formats seen on the page.
func DefaultFlowParser() FlowParser {
	return FlowParser{
		Dates: []DateParser{
			layoutDate("02 Jan 2006"),
			layoutDate("2 Jan 2006"),
			layoutDate("2006-01-02"),
			layoutDate("Jan 2, 2006"),
		},
		Numbers: []NumberParser{dashZero, parenNegative, commaGrouped, plainNumber},
	}
}

func layoutDate(layout string) DateParser {
	return func(s string) (time.Time, bool) {
		t, err := time.Parse(layout, s)
		return t, err == nil
	}
}

func dashZero(s string) (float64, bool) {
	switch s {
	case "-", "–", "—":
		return 0, true
	}
	return 0, false
}

func parenNegative(s string) (float64, bool) {
	if len(s) < 3 || s[0] != '(' || s[len(s)-1] != ')' {
		return 0, false
	}
	v, ok := commaGrouped(s[1 : len(s)-1])
	return -v, ok
}

func commaGrouped(s string) (float64, bool) {
	return plainNumber(strings.ReplaceAll(s, ",", ""))
}

func plainNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func cleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimPrefix(s, "$")
}

func (p FlowParser) date(s string) (time.Time, bool) {
	for _, f := range p.Dates {
		if t, ok := f(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p FlowParser) number(s string) (float64, bool) {
	for _, f := range p.Numbers {
		if v, ok := f(s); ok {
			return v, true
		}
	}
	return 0, false
}

// HeaderHash fingerprints a header row so layout changes can be noticed.
func HeaderHash(cells []string) string {
	norm := make([]string, len(cells))
	for i, c := range cells {
		norm[i] = strings.ToLower(cleanCell(c))
	}
	sum := sha256.Sum256([]byte(strings.Join(norm, "|")))
	return hex.EncodeToString(sum[:])
}

// Parse finds the flow table in html and extracts one total per date.
// When the total column is missing, fund columns are summed instead.
func (p FlowParser) Parse(html string) ParseResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Failure{Errors: []string{fmt.Sprintf("parse html: %v", err)}}
	}

	var header []string
	var totalCol = -1
	var rows [][]string
	var warnings []string

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		header, totalCol, rows = nil, -1, nil
		dated := 0
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cleanCell(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}
			if header == nil {
				if _, ok := p.date(cells[0]); ok {
					return
				}
				if isHeader(cells) {
					header = cells
					totalCol = indexOf(cells, "total")
				}
				return
			}
			if _, ok := p.date(cells[0]); ok {
				dated++
			}
			rows = append(rows, cells)
		})
		return header == nil || dated == 0
	})

	if header == nil || len(rows) == 0 {
		return Failure{Errors: []string{"no flow table found"}}
	}
	if totalCol < 0 {
		warnings = append(warnings, "total column missing, summing fund columns")
	}

	byDate := make(map[time.Time]float64)
	for _, cells := range rows {
		d, ok := p.date(cells[0])
		if !ok {
			// summary rows such as Total or Average
			continue
		}
		v, ok := p.rowTotal(cells, totalCol)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: unparseable flow", d.Format("2006-01-02")))
			continue
		}
		byDate[d] = v
	}
	if len(byDate) == 0 {
		return Failure{Errors: append(warnings, "no dated rows parsed"), TableFound: true}
	}

	out := make([]FlowRow, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, FlowRow{Date: d, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	hash := HeaderHash(header)
	if len(warnings) > 0 {
		return PartialSuccess{Rows: out, Warnings: warnings, HeaderHash: hash}
	}
	return Success{Rows: out, HeaderHash: hash}
}

func (p FlowParser) rowTotal(cells []string, totalCol int) (float64, bool) {
	if totalCol >= 0 {
		if totalCol >= len(cells) {
			return 0, false
		}
		return p.number(cells[totalCol])
	}
	var sum float64
	var found bool
	for _, c := range cells[1:] {
		if v, ok := p.number(c); ok {
			sum += v
			found = true
		}
	}
	return sum, found
}

func isHeader(cells []string) bool {
	if len(cells) < 2 {
		return false
	}
	first := strings.ToLower(cells[0])
	return first == "date" || first == "" || indexOf(cells, "total") >= 0
}

func indexOf(cells []string, want string) int {
	for i, c := range cells {
		if strings.EqualFold(c, want) {
			return i
		}
	}
	return -1
}
