package pdf

import (
	"bytes"
	"fmt"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// Generator converts rendered HTML reports into in-memory PDF buffers via
// wkhtmltopdf.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// CreateBuffer renders html to a PDF and returns a reader positioned at the
// start of the document.
func (g *Generator) CreateBuffer(html string) (*bytes.Reader, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("init pdf generator: %w", err)
	}

	pdfg.AddPage(wkhtmltopdf.NewPageReader(strings.NewReader(html)))

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return bytes.NewReader(pdfg.Buffer().Bytes()), nil
}
