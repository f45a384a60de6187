package geometry

// Coordinate models a position in the cloud cartesian frame
type Coordinate struct {
	X float64
	Y float64
	Z float64
}
