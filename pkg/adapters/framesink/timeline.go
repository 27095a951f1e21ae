package framesink

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// TimelineOptions controls the timeline image.
type TimelineOptions struct {
	Title     string
	CellWidth int
	// MaxFrames limits the frames drawn; 0 draws all of them.
	MaxFrames int
}

// Timeline colours.
var (
	timelineBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	timelineText       = color.RGBA{0x20, 0x20, 0x20, 0xff}
	timelineFrame      = color.RGBA{0x4a, 0x90, 0xd9, 0xff}
	timelineDuplicate  = color.RGBA{0xe0, 0x9a, 0x3a, 0xff}
	timelineLink       = color.RGBA{0x90, 0x90, 0x90, 0xff}
)

const (
	timelineMargin = 16
	timelineRow    = 28
	timelineGap    = 64
)

// RenderTimeline draws output frames as two rows, decode order on top and
// output order below, joined by a line per frame. It returns PNG data.
func RenderTimeline(records []Record, opts TimelineOptions) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("framesink: no frames to draw")
	}
	if opts.MaxFrames > 0 && len(records) > opts.MaxFrames {
		records = records[:opts.MaxFrames]
	}
	cell := opts.CellWidth
	if cell <= 0 {
		cell = 24
	}

	// decode indices count every decoded picture, output indices only the
	// frames drawn here, so both rows are laid out by rank
	decodeRank := rankBy(records, func(r Record) int { return r.DecodeIndex })
	outputRank := rankBy(records, func(r Record) int { return r.OutputIndex })

	width := 2*timelineMargin + cell*len(records)
	height := 2*timelineMargin + 20 + 2*timelineRow + timelineGap
	dc := gg.NewContext(width, height)
	dc.SetColor(timelineBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(timelineText)
	dc.DrawStringAnchored(opts.Title, timelineMargin, timelineMargin+6, 0, 0.5)

	top := float64(timelineMargin + 20)
	bottom := top + timelineRow + timelineGap
	for i, r := range records {
		x0 := float64(timelineMargin + cell*decodeRank[i])
		x1 := float64(timelineMargin + cell*outputRank[i])
		w := float64(cell - 2)

		dc.SetColor(timelineLink)
		dc.SetLineWidth(1)
		dc.DrawLine(x0+w/2, top+timelineRow, x1+w/2, bottom)
		dc.Stroke()

		fill := timelineFrame
		if r.Duplicate {
			fill = timelineDuplicate
		}
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(x0, top, w, timelineRow, 3)
		dc.DrawRoundedRectangle(x1, bottom, w, timelineRow, 3)
		dc.Fill()

		dc.SetColor(timelineBackground)
		label := fmt.Sprint(r.FrameID)
		dc.DrawStringAnchored(label, x0+w/2, top+timelineRow/2, 0.5, 0.5)
		dc.DrawStringAnchored(label, x1+w/2, bottom+timelineRow/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func rankBy(records []Record, key func(Record) int) []int {
	ranks := make([]int, len(records))
	for i := range records {
		for j := range records {
			ki, kj := key(records[i]), key(records[j])
			if kj < ki || (kj == ki && j < i) {
				ranks[i]++
			}
		}
	}
	return ranks
}
