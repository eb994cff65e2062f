package certificate

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Details carries everything printed on a participation certificate.
type Details struct {
	StudentName string
	EventTitle  string
	EventDate   time.Time
	IssuedAt    time.Time
}

// Render produces a single-page PDF certificate of participation.
func Render(d Details) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.AddPage()
	w, _ := pdf.GetPageSize()

	line := func(y float64, font string, size float64, text string) {
		pdf.SetFont("Helvetica", font, size)
		pdf.SetXY(0, y)
		pdf.CellFormat(w, 12, text, "", 0, "C", false, 0, "")
	}

	line(30, "B", 28, "CERTIFICATE OF PARTICIPATION")
	line(60, "", 16, "This is to certify that")
	line(75, "B", 22, d.StudentName)
	line(92, "", 16, "has successfully participated in")
	line(107, "B", 18, d.EventTitle)
	line(124, "", 14, fmt.Sprintf("held on %s", d.EventDate.Format("January 2, 2006")))
	line(150, "", 11, fmt.Sprintf("Generated on %s", d.IssuedAt.Format("January 2, 2006")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
