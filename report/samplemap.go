package report

import (
	"bytes"
	"encoding/base64"
	"image/png"

	"github.com/carbocation/pfx"
	"github.com/fogleman/gg"

	"github.com/iobis/pacman-data-analysis/occurrence"
	"github.com/iobis/pacman-data-analysis/summarize"
)

const (
	mapWidth  = 860
	mapHeight = 520
	mapMargin = 40.0
)

var eventColors = map[occurrence.EventType][3]float64{
	occurrence.EventPlankton: {0.12, 0.47, 0.71},
	occurrence.EventPlate:    {1.00, 0.50, 0.05},
	occurrence.EventWater:    {0.17, 0.63, 0.17},
	occurrence.EventUnknown:  {0.50, 0.50, 0.50},
}

// sampleMap draws the sample coordinates as colored markers on a plain
// lon/lat canvas. The template pairs it with an HTML legend, so no text
// is drawn on the image itself.
func sampleMap(samples []summarize.SampleSummary) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	minLon, maxLon := samples[0].Longitude, samples[0].Longitude
	minLat, maxLat := samples[0].Latitude, samples[0].Latitude
	for _, s := range samples {
		if s.Longitude < minLon {
			minLon = s.Longitude
		}
		if s.Longitude > maxLon {
			maxLon = s.Longitude
		}
		if s.Latitude < minLat {
			minLat = s.Latitude
		}
		if s.Latitude > maxLat {
			maxLat = s.Latitude
		}
	}

	// Degenerate extents (all samples at one point) still need a scale.
	if maxLon == minLon {
		maxLon += 0.01
		minLon -= 0.01
	}
	if maxLat == minLat {
		maxLat += 0.01
		minLat -= 0.01
	}

	toPixel := func(lon, lat float64) (float64, float64) {
		x := mapMargin + (lon-minLon)/(maxLon-minLon)*(mapWidth-2*mapMargin)
		// Latitude increases upward; image Y increases downward.
		y := mapMargin + (maxLat-lat)/(maxLat-minLat)*(mapHeight-2*mapMargin)
		return x, y
	}

	dc := gg.NewContext(mapWidth, mapHeight)
	dc.SetRGB(0.94, 0.96, 0.98)
	dc.Clear()

	// Light graticule.
	dc.SetRGB(0.82, 0.85, 0.88)
	dc.SetLineWidth(1)
	for i := 1; i < 8; i++ {
		x := float64(i) * mapWidth / 8
		dc.DrawLine(x, 0, x, mapHeight)
		dc.Stroke()
	}
	for i := 1; i < 5; i++ {
		y := float64(i) * mapHeight / 5
		dc.DrawLine(0, y, mapWidth, y)
		dc.Stroke()
	}

	for _, s := range samples {
		x, y := toPixel(s.Longitude, s.Latitude)
		c := eventColors[s.EventType]

		dc.SetRGBA(c[0], c[1], c[2], 0.85)
		dc.DrawCircle(x, y, 7)
		dc.Fill()

		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(1.5)
		dc.DrawCircle(x, y, 7)
		dc.Stroke()
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, dc.Image()); err != nil {
		return "", pfx.Err(err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
