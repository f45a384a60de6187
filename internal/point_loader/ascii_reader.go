package point_loader

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
)

const maxAsciiLineBytes = 1024 * 1024

// readAsciiPoints parses one point per line from input, accepting fields
// separated by runs of spaces or tabs, or by commas. Layouts by field count:
//
//	x y z
//	x y z intensity
//	x y z r g b
//	x y z r g b intensity
//
// Blank lines are skipped. A malformed line fails the whole read, naming
// the source and line number.
func readAsciiPoints(input io.Reader, sourceName string, loader Sink) error {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxAsciiLineBytes)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		point, err := parseAsciiPoint(line)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", sourceName, lineNumber)
		}
		loader.AddPoint(point)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "reading %s", sourceName)
	}

	return nil
}

func parseAsciiPoint(line string) (*data.Point, error) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))

	if len(fields) < 3 {
		return nil, errors.Errorf("expected at least 3 fields, got %d", len(fields))
	}

	x, err := parseCoordinate(fields[0], "x")
	if err != nil {
		return nil, err
	}
	y, err := parseCoordinate(fields[1], "y")
	if err != nil {
		return nil, err
	}
	z, err := parseCoordinate(fields[2], "z")
	if err != nil {
		return nil, err
	}

	switch len(fields) {
	case 3:
		return data.NewColorlessPoint(x, y, z), nil
	case 4:
		gray, err := parseIntensity(fields[3])
		if err != nil {
			return nil, err
		}
		return data.NewPoint(x, y, z, gray, gray, gray), nil
	case 6, 7:
		// a trailing 7th field is an intensity and is ignored
		r, err := parseColorComponent(fields[3], "r")
		if err != nil {
			return nil, err
		}
		g, err := parseColorComponent(fields[4], "g")
		if err != nil {
			return nil, err
		}
		b, err := parseColorComponent(fields[5], "b")
		if err != nil {
			return nil, err
		}
		return data.NewPoint(x, y, z, r, g, b), nil
	default:
		return nil, errors.Errorf("unsupported field count %d", len(fields))
	}
}

func parseCoordinate(field string, axis string) (float64, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, errors.Errorf("invalid %s coordinate %q", axis, field)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.Errorf("non-finite %s coordinate %q", axis, field)
	}
	return value, nil
}

func parseColorComponent(field string, channel string) (uint8, error) {
	value, err := strconv.ParseUint(field, 10, 8)
	if err != nil {
		return 0, errors.Errorf("invalid %s color component %q", channel, field)
	}
	return uint8(value), nil
}

// parseIntensity maps a single trailing intensity field to an 8 bit gray
// level, clamping values outside [0, 255]
func parseIntensity(field string) (uint8, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(value) {
		return 0, errors.Errorf("invalid intensity %q", field)
	}
	rounded := math.Round(value)
	if rounded < 0 {
		return 0, nil
	}
	if rounded > 255 {
		return 255, nil
	}
	return uint8(rounded), nil
}
