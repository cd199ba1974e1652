package tui

import (
	"strings"
)

// Equirectangular land outline, longitude -180..180 over mapWidth columns
// and latitude mapNorth..mapSouth over the rows.
var worldRows = []string{
	"   ................ .......      .........................",
	" ...................         ..... .......................",
	"   ................         ............................",
	"     ............           ...........................",
	"       ........             ........... ............  ..",
	"         ....              .............  ........",
	"           ....             ............      .....  ...",
	"               .....          ..........        ..  .....",
	"                .........      ........           ..",
	"                 .......        ......         ........",
	"                  .....         .....           ........",
	"                   ...                                .",
	"                   ..",
}

const (
	mapWidth = 60
	mapNorth = 80.0
	mapSouth = -60.0
	marker   = '●'
)

type latLon struct {
	lat, lon float64
}

// countryCoords maps lower-cased country names to a point inside them.
var countryCoords = map[string]latLon{
	"australia":      {-25, 134},
	"brazil":         {-10, -52},
	"canada":         {56, -106},
	"china":          {35, 103},
	"france":         {46, 2},
	"germany":        {51, 10},
	"hong kong":      {22, 114},
	"india":          {21, 78},
	"japan":          {36, 138},
	"netherlands":    {52, 5},
	"poland":         {52, 19},
	"singapore":      {1, 104},
	"south africa":   {-29, 24},
	"sweden":         {62, 15},
	"turkey":         {39, 35},
	"united kingdom": {54, -2},
	"united states":  {39, -98},
}

// project returns the map cell for a coordinate.
func project(p latLon) (row, col int) {
	col = int((p.lon + 180) / 360 * mapWidth)
	row = int((mapNorth - p.lat) / (mapNorth - mapSouth) * float64(len(worldRows)))
	col = min(max(col, 0), mapWidth-1)
	row = min(max(row, 0), len(worldRows)-1)
	return row, col
}

// renderMap draws the world with country highlighted. An empty or unknown
// country draws the plain map.
func renderMap(country string) string {
	hr, hc := -1, -1
	if p, ok := countryCoords[strings.ToLower(country)]; ok {
		hr, hc = project(p)
	}

	lines := make([]string, len(worldRows))
	for r, row := range worldRows {
		cells := []rune(row)
		for len(cells) < mapWidth {
			cells = append(cells, ' ')
		}
		if r != hr {
			lines[r] = landStyle.Render(string(cells))
			continue
		}
		lines[r] = landStyle.Render(string(cells[:hc])) +
			markerStyle.Render(string(marker)) +
			landStyle.Render(string(cells[hc+1:]))
	}
	return strings.Join(lines, "\n")
}
