// Package disks holds a catalog of canned image geometries, loaded from
// an embedded CSV via github.com/jszwec/csvutil, the same pattern
// dargueta/disko's disks.go uses for floppy geometries. Here the rows
// describe SFS layouts instead: block size, root capacity, filename
// limit, and BAT size, one preset per named image size class.
package disks

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/dpeckham/sfs"
)

// Preset names one canned Layout by slug, e.g. "small" or "large".
type Preset struct {
	Slug        string `csv:"slug"`
	Description string `csv:"description"`
	BlockSize   uint32 `csv:"block_size"`
	RootN       uint32 `csv:"root_n"`
	FilenameMax uint32 `csv:"filename_max"`
	BatN        uint32 `csv:"bat_n"`
}

// Layout builds the sfs.Layout this preset describes. The root region is
// placed immediately after a one-block reserved header, mirroring
// sfs.Standard's placement of RootOff right after block 0.
func (p Preset) Layout() sfs.Layout {
	return sfs.Layout{
		BlockSize:   p.BlockSize,
		RootOff:     int64(p.BlockSize),
		RootN:       p.RootN,
		FilenameMax: p.FilenameMax,
	}.WithBatSize(p.BatN)
}

//go:embed presets.csv
var presetsRawCSV string
var presets map[string]Preset

// Get returns the preset registered under slug.
func Get(slug string) (Preset, error) {
	preset, ok := presets[slug]
	if ok {
		return preset, nil
	}
	return Preset{}, fmt.Errorf("no predefined image size preset exists with slug %q", slug)
}

// Names returns every registered preset slug.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}

func init() {
	reader := strings.NewReader(presetsRawCSV)
	csvReader := csv.NewReader(reader)
	csvReader.Comma = ','

	decoder, err := csvutil.NewDecoder(csvReader)
	if err != nil {
		panic(fmt.Errorf("failed to create CSV decoder: %w", err))
	}

	presets = make(map[string]Preset)

	for {
		var row Preset
		if err = decoder.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			panic(fmt.Errorf("failed to decode row %d: %w", len(presets)+1, err))
		}

		if _, exists := presets[row.Slug]; exists {
			panic(fmt.Errorf("duplicate definition for preset %q", row.Slug))
		}
		presets[row.Slug] = row
	}
}
