package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/docstitch/docstitch/internal/document"
)

// CSVParser handles CSV files. Rows are grouped into batches; each batch
// becomes one page so large tables are fed to the model incrementally.
type CSVParser struct{}

const csvRowsPerPage = 20

func (p *CSVParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	var pages []document.Page
	for i := 0; i < len(dataRows); i += csvRowsPerPage {
		end := i + csvRowsPerPage
		if end > len(dataRows) {
			end = len(dataRows)
		}
		batch := dataRows[i:end]

		title := fmt.Sprintf("Rows %d-%d", i+2, end+1) // 1-indexed, skip header
		var text strings.Builder
		text.WriteString(title + "\n")
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n")
		blocks := []document.Block{
			{Text: title, FontSize: 16, FontWeight: "bold"},
		}

		for _, row := range batch {
			var line strings.Builder
			for j, cell := range row {
				if j < len(headers) {
					line.WriteString(headers[j] + ": " + cell)
				} else {
					line.WriteString(cell)
				}
				if j < len(row)-1 {
					line.WriteString(", ")
				}
			}
			text.WriteString(line.String() + "\n")
			blocks = append(blocks, document.Block{
				Text:       line.String(),
				FontSize:   12,
				FontWeight: "normal",
			})
		}

		pages = append(pages, document.Page{
			Number: len(pages) + 1,
			Text:   strings.TrimRight(text.String(), "\n"),
			Blocks: blocks,
		})
	}

	return pages, nil
}
