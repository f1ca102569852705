package config

import (
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"
)

// Size is a width and height written as "WxH".
type Size image.Point

// ParseSize parses "WxH".
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Size{}, fmt.Errorf("%w: size %q is not WxH", ErrInvalidValue, s)
	}
	x, err := strconv.Atoi(w)
	if err != nil {
		return Size{}, fmt.Errorf("%w: size %q: %w", ErrInvalidValue, s, err)
	}
	y, err := strconv.Atoi(h)
	if err != nil {
		return Size{}, fmt.Errorf("%w: size %q: %w", ErrInvalidValue, s, err)
	}
	return Size{X: x, Y: y}, nil
}

// Point returns s as an image.Point.
func (s Size) Point() image.Point {
	return image.Point(s)
}

// String returns "WxH", or the empty string for the zero Size.
func (s Size) String() string {
	if s == (Size{}) {
		return ""
	}
	return fmt.Sprintf("%dx%d", s.X, s.Y)
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(b []byte) error {
	v, err := ParseSize(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Set and Type let a Size be used as a command line flag value.
func (s *Size) Set(v string) error {
	return s.UnmarshalText([]byte(v))
}

func (s *Size) Type() string {
	return "WxH"
}

// Duration is a time.Duration written as "150ms".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %w", ErrInvalidValue, b, err)
	}
	*d = Duration(v)
	return nil
}
