package qrstamp

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a minimal valid PDF with the given number of empty
// letter-sized pages, computing the xref offsets at runtime.
func buildPDF(pages int) []byte {
	var kids bytes.Buffer
	for i := 0; i < pages; i++ {
		fmt.Fprintf(&kids, "%d 0 R ", 3+i)
	}

	objs := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [ %s] /Count %d >>\nendobj\n", kids.String(), pages),
	}
	for i := 0; i < pages; i++ {
		objs = append(objs, fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		buf.WriteString(o)
	}
	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xrefPos)
	return buf.Bytes()
}

func TestStampTwoPages(t *testing.T) {
	s := New()
	input := buildPDF(2)
	original := append([]byte(nil), input...)

	out, err := s.Stamp(input, "https://host/v/ABCDEF2G3H4J", Options{})
	require.NoError(t, err)

	// input buffer is never mutated
	assert.Equal(t, original, input)

	// output is an independent, altered document
	assert.NotEmpty(t, out)
	assert.NotEqual(t, input, out)

	// page count and order are preserved
	n, err := api.PageCount(bytes.NewReader(out), s.conf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStampEveryPageByDefault(t *testing.T) {
	s := New()
	input := buildPDF(5)

	out, err := s.Stamp(input, "https://host/v/ABCDEF2G3H4J", Options{})
	require.NoError(t, err)

	n, err := api.PageCount(bytes.NewReader(out), s.conf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStampSafeModeOnManyPages(t *testing.T) {
	s := New()
	input := buildPDF(safeModeMaxPages + 1)

	out, err := s.Stamp(input, "https://host/v/ABCDEF2G3H4J", Options{})
	require.NoError(t, err)

	n, err := api.PageCount(bytes.NewReader(out), s.conf)
	require.NoError(t, err)
	assert.Equal(t, safeModeMaxPages+1, n)
}

func TestStampAllSizesAndPositions(t *testing.T) {
	s := New()
	input := buildPDF(1)

	for _, size := range []Size{SizeSmall, SizeMedium, SizeLarge} {
		for _, pos := range []Position{TopLeft, TopCenter, TopRight, BottomLeft, BottomCenter, BottomRight} {
			t.Run(string(size)+"/"+string(pos), func(t *testing.T) {
				out, err := s.Stamp(input, "https://host/v/ABCDEF2G3H4J", Options{Size: size, Position: pos})
				require.NoError(t, err)
				assert.NotEqual(t, input, out)
			})
		}
	}
}

func TestStampInvalidInput(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		pdf  []byte
		url  string
	}{
		{"empty input", nil, "https://host/v/ABCDEF2G3H4J"},
		{"not a pdf", []byte("plain text, no pdf header"), "https://host/v/ABCDEF2G3H4J"},
		{"empty url", buildPDF(1), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Stamp(tt.pdf, tt.url, Options{})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, SizeSmall, ParseSize("small"))
	assert.Equal(t, SizeLarge, ParseSize("large"))
	assert.Equal(t, SizeMedium, ParseSize(""))
	assert.Equal(t, SizeMedium, ParseSize("gigantic"))
}

func TestParsePosition(t *testing.T) {
	assert.Equal(t, TopLeft, ParsePosition("top-left"))
	assert.Equal(t, BottomRight, ParsePosition(""))
	assert.Equal(t, BottomRight, ParsePosition("middle"))
}

func TestOptionsPlacementMath(t *testing.T) {
	// bottom-right/medium must anchor 20pt in from the bottom-right corner
	anchor, dx, dy := Options{Position: BottomRight}.placement()
	assert.Equal(t, "br", anchor)
	assert.Equal(t, -Margin, dx)
	assert.Equal(t, Margin, dy)

	assert.Equal(t, float64(80), Options{}.points())
	assert.Equal(t, float64(60), Options{Size: SizeSmall}.points())
	assert.Equal(t, float64(100), Options{Size: SizeLarge}.points())
}
