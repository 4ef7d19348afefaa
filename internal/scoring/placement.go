package scoring

import "math"

// Place converte as horas dos quatro quadrantes em uma coordenada normalizada.
//
//	x = 100 · ((q1+q4) − (q2+q3)) / total
//	y = 100 · ((q1+q2) − (q3+q4)) / total
//
// Com total zero ou não finito retorna (0, 0).
func Place(q1, q2, q3, q4 float64) Coordinate {
	total := q1 + q2 + q3 + q4
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return Coordinate{}
	}

	c := Coordinate{
		X: 100 * ((q1 + q4) - (q2 + q3)) / total,
		Y: 100 * ((q1 + q2) - (q3 + q4)) / total,
	}
	if !finite(c.X) || !finite(c.Y) {
		return Coordinate{}
	}
	return c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PlaceClassification aplica Place às horas de uma classificação
func PlaceClassification(c *Classification) Coordinate {
	return Place(c.Hours("q1"), c.Hours("q2"), c.Hours("q3"), c.Hours("q4"))
}
