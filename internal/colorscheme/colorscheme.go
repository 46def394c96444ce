// Package colorscheme derives deterministic node colors from frame names.
//
// Four schemes are supported. Rainbow hashes the full name with a salt; Greyscale,
// Flame and Ice reduce the leaf function name to a scalar in [0,1] and map it onto a ramp.
package colorscheme

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RGBA is a color with channels in [0,1].
type RGBA [4]float32

// Scheme identifies a name-to-color mapping.
type Scheme int

const (
	Rainbow Scheme = iota
	Greyscale
	Flame
	Ice
)

// Default is the scheme new trees start with.
const Default = Rainbow

// String returns the string representation of Scheme.
func (s Scheme) String() string {
	switch s {
	case Rainbow:
		return "rainbow"
	case Greyscale:
		return "greyscale"
	case Flame:
		return "flame"
	case Ice:
		return "ice"
	default:
		return "unknown"
	}
}

// ParseScheme parses a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(s) {
	case "rainbow":
		return Rainbow, nil
	case "greyscale", "grayscale", "grey", "gray":
		return Greyscale, nil
	case "flame":
		return Flame, nil
	case "ice":
		return Ice, nil
	default:
		return 0, fmt.Errorf("unknown color scheme: %s", s)
	}
}

const (
	hashModulus  = 11
	hashMaxChars = 7
	hashDecay    = 0.7
)

// FromScheme returns the color for name under scheme and salt.
func FromScheme(name string, scheme Scheme, salt uint32) RGBA {
	switch scheme {
	case Greyscale:
		return greyscale(Vector(name, salt))
	case Flame:
		return flame(Vector(name, salt))
	case Ice:
		return ice(Vector(name, salt))
	default:
		return rainbow(name, salt)
	}
}

func rainbow(name string, salt uint32) RGBA {
	var saltBuf [4]byte
	binary.LittleEndian.PutUint32(saltBuf[:], salt)

	d := xxhash.New()
	_, _ = d.WriteString(name)
	_, _ = d.Write(saltBuf[:])
	sum := d.Sum64()

	channel := func(shift uint) float32 {
		return 0.3 + float32(byte(sum>>shift))/500
	}
	return RGBA{channel(56), channel(48), channel(40), 1}
}

// Vector maps the leaf function name to a scalar in [0,1]. Module qualification up to the
// last backtick and any parameter list are ignored.
func Vector(name string, salt uint32) float64 {
	if name == "" {
		return 0
	}
	return weightedHash(LeafName(name), salt)
}

// LeafName strips a backtick-delimited module prefix and a parenthesised suffix.
func LeafName(name string) string {
	if i := strings.LastIndexByte(name, '`'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return name
}

// weightedHash weights earlier characters more heavily so that names sharing a prefix
// land close together on the ramp.
func weightedHash(name string, salt uint32) float64 {
	var hash, maxHash float64
	weight := 1.0
	i := 0
	for _, c := range name {
		if i >= hashMaxChars {
			break
		}
		hash += weight * float64((uint32(c)+salt)%hashModulus)
		maxHash += weight * float64(hashModulus-1)
		weight *= hashDecay
		i++
	}
	if maxHash == 0 {
		return 0
	}
	return hash / maxHash
}

func channel8(v float64) float32 {
	return float32(math.Round(v)) / 255
}

func greyscale(v float64) RGBA {
	c := channel8(255 * (1 - v))
	return RGBA{c, c, c, 1}
}

func flame(v float64) RGBA {
	return RGBA{
		channel8(200 + math.Round(55*v)),
		channel8(230 * (1 - v)),
		channel8(55 * (1 - v)),
		1,
	}
}

func ice(v float64) RGBA {
	return RGBA{
		channel8(55 * (1 - v)),
		channel8(230 * (1 - v)),
		channel8(200 + math.Round(55*v)),
		1,
	}
}

// Darken scales the rgb channels by factor, keeping alpha.
func (c RGBA) Darken(factor float32) RGBA {
	return RGBA{c[0] * factor, c[1] * factor, c[2] * factor, c[3]}
}

// WithAlpha returns c with its alpha channel replaced.
func (c RGBA) WithAlpha(a float32) RGBA {
	c[3] = a
	return c
}
