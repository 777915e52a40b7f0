package simplify

import (
	"fmt"

	"lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
)

// ============================================================
// Path Simplifier
// ============================================================

const (
	DefaultTolerance     = 2.0  // допуск RDP в пикселях
	DefaultMinWallLength = 30.0 // более короткие сегменты считаются шумом
)

type Options struct {
	Tolerance     float64
	MinWallLength float64
}

func DefaultOptions() Options {
	return Options{
		Tolerance:     DefaultTolerance,
		MinWallLength: DefaultMinWallLength,
	}
}

// RDP сокращает ломаную алгоритмом Рамера–Дугласа–Пекера.
// Уже упрощённая ломаная является неподвижной точкой.
func RDP(points []models.Point, tolerance float64) []models.Point {
	if len(points) < 3 {
		return points
	}

	first := points[0]
	last := points[len(points)-1]
	index := -1
	maxDist := 0.0

	for i := 1; i < len(points)-1; i++ {
		dist := geometry.PointToSegmentDistance(points[i], first, last)
		if dist > maxDist {
			maxDist = dist
			index = i
		}
	}

	if maxDist > tolerance {
		head := RDP(points[:index+1], tolerance)
		tail := RDP(points[index:], tolerance)

		out := make([]models.Point, 0, len(head)+len(tail)-1)
		out = append(out, head[:len(head)-1]...)
		return append(out, tail...)
	}

	return []models.Point{first, last}
}

// ExtractWalls превращает контуры в стены: упрощение, затем фильтр по длине.
// ID детерминированы: wall-<n> в порядке появления.
func ExtractWalls(contours [][]models.Point, opts Options) []models.Wall {
	var walls []models.Wall

	for _, contour := range contours {
		if len(contour) == 0 {
			continue
		}

		path := contour
		if len(path) >= 3 {
			path = RDP(path, opts.Tolerance)
		}

		for i := 0; i < len(path)-1; i++ {
			start, end := path[i], path[i+1]
			length := geometry.Distance(start, end)
			if length <= opts.MinWallLength {
				continue
			}

			pixelLength := length
			walls = append(walls, models.Wall{
				ID:          fmt.Sprintf("wall-%d", len(walls)),
				Start:       start,
				End:         end,
				PixelLength: &pixelLength,
			})
		}
	}

	return walls
}
