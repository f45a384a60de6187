package data

// Contains data of a Point Cloud Point, namely X,Y,Z coords
// and the optional R,G,B color components
type Point struct {
	X        float64
	Y        float64
	Z        float64
	R        uint8
	G        uint8
	B        uint8
	HasColor bool
}

// Builds a new Point from the given coordinates and color components
func NewPoint(X, Y, Z float64, R, G, B uint8) *Point {
	return &Point{
		X:        X,
		Y:        Y,
		Z:        Z,
		R:        R,
		G:        G,
		B:        B,
		HasColor: true,
	}
}

// Builds a new Point from the given coordinates, carrying no color
func NewColorlessPoint(X, Y, Z float64) *Point {
	return &Point{
		X: X,
		Y: Y,
		Z: Z,
	}
}
