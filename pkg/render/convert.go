package render

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const rsvgBinary = "rsvg-convert"

// ErrNoConverter is returned when PDF or PNG output is requested and
// rsvg-convert (librsvg) is not installed.
var ErrNoConverter = errors.New("rsvg-convert not found (install librsvg: brew install librsvg, apt install librsvg2-bin)")

// ToPDF converts SVG bytes to a vector PDF.
func ToPDF(svg []byte) ([]byte, error) {
	return rasterize(svg, FormatPDF, nil)
}

// ToPNG renders SVG bytes at scale times their natural size. A scale of
// zero or less means 1.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return rasterize(svg, FormatPNG, []string{"--zoom", fmt.Sprintf("%.2f", scale)})
}

// Convert turns SVG bytes into format. SVG passes through unchanged.
func Convert(svg []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatSVG:
		return svg, nil
	case FormatPDF:
		return ToPDF(svg)
	case FormatPNG:
		return ToPNG(svg, scale)
	}
	return nil, fmt.Errorf("cannot convert svg to %q", format)
}

// Available reports whether PDF and PNG output can be produced.
func Available() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}

func rasterize(svg []byte, format string, extra []string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, fmt.Errorf("%s output: %w", format, ErrNoConverter)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(bin, append([]string{"--format", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", rsvgBinary, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", rsvgBinary, err)
	}
	return stdout.Bytes(), nil
}
