package compute

import (
	"github.com/dustin/go-humanize"
)

type Size struct {
	Value uint64
	Unit  SizeUnit
}

func NewSize(value uint64, unit SizeUnit) Size {
	return Size{value, unit}
}

func (s Size) Bytes() uint64 {
	switch s.Unit {
	default:
		panic("unknown size unit")
	case SizeUnitUnknown:
		return 0
	case SizeUnitB:
		return s.Value
	case SizeUnitK:
		return s.Value * 1024
	case SizeUnitM:
		return s.Value * 1024 * 1024
	case SizeUnitG:
		return s.Value * 1024 * 1024 * 1024
	}
}

func (s Size) M() uint64 {
	return s.Bytes() / 1024 / 1024
}

func (s Size) G() uint64 {
	return s.Bytes() / 1024 / 1024 / 1024
}

// AddG grows the size by delta gibibytes, the result is expressed in G.
func (s Size) AddG(delta uint64) Size {
	return NewSize(s.G()+delta, SizeUnitG)
}

func (s Size) String() string {
	if s.Unit == SizeUnitUnknown {
		return "unknown"
	}
	return humanize.IBytes(s.Bytes())
}

type SizeUnit int

const (
	SizeUnitUnknown SizeUnit = iota
	SizeUnitB
	SizeUnitK
	SizeUnitM
	SizeUnitG
)

func (unit SizeUnit) String() string {
	switch unit {
	default:
		return "unknown"
	case SizeUnitB:
		return "B"
	case SizeUnitK:
		return "KiB"
	case SizeUnitM:
		return "MiB"
	case SizeUnitG:
		return "GiB"
	}
}
