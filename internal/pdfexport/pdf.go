package pdfexport

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
)

// PageCount is how many pages an image of height imgH needs at page height
// pageH, both in the same unit. Always at least 1.
func PageCount(imgH, pageH float64) int {
	if imgH <= 0 || pageH <= 0 {
		return 1
	}
	n := int(math.Ceil(imgH/pageH - 1e-9))
	if n < 1 {
		return 1
	}
	return n
}

// WritePDF places img at full A4 portrait width and tiles it down as many
// pages as its height needs. It returns the page count.
func WritePDF(w io.Writer, img image.Image) (int, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0, fmt.Errorf("empty capture")
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return 0, fmt.Errorf("encode capture: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pageW, pageH := pdf.GetPageSize()
	imgW := pageW
	imgH := float64(b.Dy()) * imgW / float64(b.Dx())

	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("capture", opt, &encoded)

	pages := PageCount(imgH, pageH)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.ImageOptions("capture", 0, -float64(i)*pageH, imgW, imgH, false, opt, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("assemble pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return pages, nil
}
