// Package chart lays out the monthly totals bar chart rendered as inline SVG.
package chart

import (
	"math"

	"tracker/internal/core"
)

const (
	marginLeft   = 72.0
	marginRight  = 16.0
	marginTop    = 16.0
	marginBottom = 40.0
	tickCount    = 4
	barGap       = 0.25 // share of each slot left empty
)

type Bar struct {
	Label   string
	Value   core.Money
	X       float64
	Y       float64
	Width   float64
	Height  float64
	LabelX  float64
	Tooltip string
}

type Tick struct {
	Y     float64
	Label string
}

// Chart holds absolute SVG coordinates for every element.
type Chart struct {
	Width      float64
	Height     float64
	PlotLeft   float64
	PlotRight  float64
	PlotTop    float64
	PlotBottom float64
	Bars       []Bar
	Ticks      []Tick
	Empty      bool
}

// Build lays out one bar per month in the given order. Amounts are shown with
// symbol in tick labels and tooltips.
func Build(totals []core.MonthTotal, width, height int, symbol string) Chart {
	c := Chart{
		Width:      float64(width),
		Height:     float64(height),
		PlotLeft:   marginLeft,
		PlotRight:  float64(width) - marginRight,
		PlotTop:    marginTop,
		PlotBottom: float64(height) - marginBottom,
	}
	if len(totals) == 0 || c.PlotRight <= c.PlotLeft || c.PlotBottom <= c.PlotTop {
		c.Empty = true
		return c
	}

	var maxCents int64
	for _, t := range totals {
		if t.Total.Cents > maxCents {
			maxCents = t.Total.Cents
		}
	}
	top := niceCeil(maxCents)
	plotH := c.PlotBottom - c.PlotTop
	scale := plotH / float64(top)

	step := top / tickCount
	for i := 0; i <= tickCount; i++ {
		v := step * int64(i)
		c.Ticks = append(c.Ticks, Tick{
			Y:     c.PlotBottom - float64(v)*scale,
			Label: core.Money{Cents: v}.Format(symbol),
		})
	}

	slot := (c.PlotRight - c.PlotLeft) / float64(len(totals))
	barW := slot * (1 - barGap)
	for i, t := range totals {
		h := float64(max(t.Total.Cents, 0)) * scale
		x := c.PlotLeft + float64(i)*slot + (slot-barW)/2
		c.Bars = append(c.Bars, Bar{
			Label:   t.Label,
			Value:   t.Total,
			X:       round(x),
			Y:       round(c.PlotBottom - h),
			Width:   round(barW),
			Height:  round(h),
			LabelX:  round(x + barW/2),
			Tooltip: t.Label + ": " + t.Total.Format(symbol),
		})
	}
	return c
}

// niceCeil rounds cents up to 1, 2 or 5 times a power of ten, and to a
// multiple of tickCount so every tick lands on a whole cent. Totals past the
// last such step saturate at maxTop.
func niceCeil(cents int64) int64 {
	if cents <= 0 {
		return 100 * tickCount
	}
	mag := int64(1)
	for mag <= cents/10 {
		mag *= 10
	}
	var top int64
	switch {
	case cents <= mag:
		top = mag
	case cents <= 2*mag:
		top = 2 * mag
	case cents <= 5*mag:
		top = 5 * mag
	case mag <= maxTop/10:
		top = 10 * mag
	default:
		return maxTop
	}
	if r := top % tickCount; r != 0 {
		if top > maxTop-tickCount {
			return maxTop
		}
		top += tickCount - r
	}
	return top
}

// maxTop is the largest axis top that keeps every tick a whole cent.
const maxTop = math.MaxInt64 - math.MaxInt64%tickCount

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
