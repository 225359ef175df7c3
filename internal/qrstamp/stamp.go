// Package qrstamp embeds a verification QR code onto the pages of a PDF.
//
// The QR raster is generated once per call and reused for every stamped page.
// The input byte slice is never modified; the stamped document is returned as
// an independent buffer.
package qrstamp

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrInvalidInput indicates the input bytes are not a parseable PDF.
	ErrInvalidInput = errors.New("invalid input document")
	// ErrStampFailed indicates the PDF parsed but embedding the QR failed.
	ErrStampFailed = errors.New("stamping failed")
)

// Size selects the rendered QR dimensions in points.
type Size string

const (
	SizeSmall  Size = "small"  // 60pt
	SizeMedium Size = "medium" // 80pt
	SizeLarge  Size = "large"  // 100pt
)

// Position selects the page corner or edge the QR is anchored to.
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
)

// Margin is the distance in points kept from the chosen page edges.
const Margin = 20

// Safe-mode thresholds: beyond either, only the first and last page are
// stamped to keep memory and CPU bounded on oversized inputs.
const (
	safeModeMaxBytes = 25 * 1024 * 1024
	safeModeMaxPages = 80
)

var sizePoints = map[Size]float64{
	SizeSmall:  60,
	SizeMedium: 80,
	SizeLarge:  100,
}

// anchors maps positions onto pdfcpu watermark anchors plus the offsets that
// produce the Margin distance from the selected edges. Offsets are in points;
// positive x moves right, positive y moves up (origin at the page bottom).
var anchors = map[Position]struct {
	anchor string
	dx, dy int
}{
	TopLeft:      {"tl", Margin, -Margin},
	TopCenter:    {"tc", 0, -Margin},
	TopRight:     {"tr", -Margin, -Margin},
	BottomLeft:   {"bl", Margin, Margin},
	BottomCenter: {"bc", 0, Margin},
	BottomRight:  {"br", -Margin, Margin},
}

// Options configure a single stamping run. Zero values mean medium size,
// bottom-right position, safe mode enabled.
type Options struct {
	Size     Size
	Position Position
	// DisableSafeMode forces stamping of every page regardless of input size.
	DisableSafeMode bool
}

func (o Options) points() float64 {
	if pts, ok := sizePoints[o.Size]; ok {
		return pts
	}
	return sizePoints[SizeMedium]
}

func (o Options) placement() (string, int, int) {
	if a, ok := anchors[o.Position]; ok {
		return a.anchor, a.dx, a.dy
	}
	a := anchors[BottomRight]
	return a.anchor, a.dx, a.dy
}

// ParseSize normalizes a user-supplied size name, falling back to medium.
func ParseSize(s string) Size {
	if _, ok := sizePoints[Size(s)]; ok {
		return Size(s)
	}
	return SizeMedium
}

// ParsePosition normalizes a user-supplied position name, falling back to
// bottom-right.
func ParsePosition(s string) Position {
	if _, ok := anchors[Position(s)]; ok {
		return Position(s)
	}
	return BottomRight
}

// Stamper embeds QR codes into PDFs.
type Stamper struct {
	conf *pdfmodel.Configuration
}

// New returns a Stamper with relaxed PDF validation so encrypted or slightly
// malformed documents are tolerated rather than rejected outright.
func New() *Stamper {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return &Stamper{conf: conf}
}

// Stamp returns a new PDF with a QR code encoding verificationURL placed on
// the selected pages. The input slice is left untouched.
func (s *Stamper) Stamp(pdf []byte, verificationURL string, opt Options) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	if verificationURL == "" {
		return nil, fmt.Errorf("%w: verification URL is empty", ErrInvalidInput)
	}

	pageCount, err := api.PageCount(bytes.NewReader(pdf), s.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidInput)
	}

	sizePts := opt.points()

	// Raster at >=3x the target point size (min 200px) so the QR stays sharp
	// when scaled down onto the page.
	px := int(sizePts * 3)
	if px < 200 {
		px = 200
	}
	png, err := qrcode.Encode(verificationURL, qrcode.Medium, px)
	if err != nil {
		return nil, fmt.Errorf("%w: encode qr: %v", ErrStampFailed, err)
	}

	anchor, dx, dy := opt.placement()
	desc := fmt.Sprintf("position:%s, offset:%d %d, rotation:0, scalefactor:%.4f abs",
		anchor, dx, dy, sizePts/float64(px))

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(png), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: build watermark: %v", ErrStampFailed, err)
	}

	// By default every page carries the QR. Oversized inputs fall back to
	// first and last page only.
	var selectedPages []string
	if !opt.DisableSafeMode && (len(pdf) > safeModeMaxBytes || pageCount > safeModeMaxPages) {
		selectedPages = []string{"1"}
		if pageCount > 1 {
			selectedPages = append(selectedPages, strconv.Itoa(pageCount))
		}
		log.Printf(`{"component":"qrstamp","event":"safe_mode","pages":%d,"bytes":%d,"stamped_pages":%q}`,
			pageCount, len(pdf), selectedPages)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, selectedPages, wm, s.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStampFailed, err)
	}
	return out.Bytes(), nil
}
