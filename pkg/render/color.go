package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrBadColor is returned for strings that are not #rgb, #rgba, #rrggbb or #rrggbbaa.
var ErrBadColor = errors.New("bad hex color")

const hexDigits = "0123456789abcdefABCDEF"

// ParseHexColor parses a CSS-style hex color. The RGB part is parsed by
// colorful; an optional trailing alpha of one or two digits follows it.
func ParseHexColor(s string) (color.NRGBA, error) {
	bad := fmt.Errorf("%w: %q", ErrBadColor, s)
	if !strings.HasPrefix(s, "#") || strings.Trim(s[1:], hexDigits) != "" {
		return color.NRGBA{}, bad
	}

	var rgb, alpha string
	switch len(s) {
	case 4, 7:
		rgb = s
	case 5:
		rgb, alpha = s[:4], s[4:]
	case 9:
		rgb, alpha = s[:7], s[7:]
	default:
		return color.NRGBA{}, bad
	}

	c, err := colorful.Hex(rgb)
	if err != nil {
		return color.NRGBA{}, bad
	}
	r, g, b := c.RGB255()
	out := color.NRGBA{R: r, G: g, B: b, A: 0xff}
	if alpha != "" {
		a, err := strconv.ParseUint(alpha, 16, 8)
		if err != nil {
			return color.NRGBA{}, bad
		}
		if len(alpha) == 1 {
			a *= 0x11
		}
		out.A = uint8(a)
	}
	return out, nil
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}
