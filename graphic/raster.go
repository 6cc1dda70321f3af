package graphic

import "math"

// LineStroke is the number of rows painted for each point of a line.
const LineStroke = 10

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

func halfIntensity(c Color) Color {
	return Color{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: c.A}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// PolarToCartesian returns the point at radius r and angle theta (degrees)
// around (x0, y0).
func PolarToCartesian(x0, y0, r int, theta float64) (int, int) {
	t := radians(theta)
	x := x0 + int(float64(r)*math.Cos(t))
	y := y0 + int(float64(r)*math.Sin(t))

	return x, y
}

// Line draws a digital differential line from (x0, y0) to (x1, y1).
//
// Every sampled point is stroked upwards LineStroke rows high.
func (b *Buffer) Line(x0, y0, x1, y1 int, c Color) {
	dx := x1 - x0
	dy := y1 - y0

	steps := max(abs(dx), abs(dy))

	stroke := func(x, y int) {
		for n := 0; n < LineStroke; n++ {
			b.SetPixel(x, y+n, c)
		}
	}

	if steps == 0 {
		stroke(x0, y0)
		return
	}

	for i := 0; i <= steps; i++ {
		stroke(x0+i*dx/steps, y0+i*dy/steps)
	}
}

// arcSweep calls fn for the upper semicircle points of radius r whose x lies
// between the projections of theta0 and theta1.
func arcSweep(x0, y0, r int, theta0, theta1 float64, fn func(x, y int)) {
	if r < 0 {
		return
	}

	xa, _ := PolarToCartesian(x0, y0, r, theta0)
	xb, _ := PolarToCartesian(x0, y0, r, theta1)

	if xa > xb {
		xa, xb = xb, xa
	}

	for x := xa; x <= xb; x++ {
		d := x - x0

		sq := r*r - d*d
		if sq < 0 {
			continue
		}

		fn(x, y0+int(math.Sqrt(float64(sq))))
	}
}

// Arc draws the upper part of a ring centred on (x0, y0), from radius to
// radius+thickness, between the angles theta0 and theta1 in degrees.
//
// One pixel rings at half intensity are drawn just inside and outside for
// anti-aliasing. Nothing is painted below y0.
func (b *Buffer) Arc(x0, y0, radius int, theta0, theta1 float64, thickness int, c Color) {
	half := halfIntensity(c)

	set := func(x, y int, col Color) {
		if y >= y0 {
			b.SetPixel(x, y, col)
		}
	}

	guard := func(x, y int) { set(x, y, half) }

	arcSweep(x0, y0, radius-1, theta0, theta1, guard)
	arcSweep(x0, y0, radius+thickness+1, theta0, theta1, guard)

	for r := radius; r <= radius+thickness; r++ {
		arcSweep(x0, y0, r, theta0, theta1, func(x, y int) {
			set(x, y, c)
			set(x, y+1, c)
			set(x, y-1, c)
		})
	}
}

// Ray draws a radial segment from r0 to r1 at angle theta (degrees) around
// (x0, y0). thickness columns are drawn side by side, each flanked above and
// below by half intensity pixels.
func (b *Buffer) Ray(x0, y0, r0, r1 int, theta float64, thickness int, c Color) {
	half := halfIntensity(c)

	for r := r0; r <= r1; r++ {
		x, y := PolarToCartesian(x0, y0, r, theta)
		for dx := 0; dx < thickness; dx++ {
			b.SetPixel(x+dx, y-1, half)
			b.SetPixel(x+dx, y+1, half)
		}
	}

	for r := r0; r <= r1; r++ {
		x, y := PolarToCartesian(x0, y0, r, theta)
		for dx := 0; dx < thickness; dx++ {
			b.SetPixel(x+dx, y, c)
		}
	}
}
