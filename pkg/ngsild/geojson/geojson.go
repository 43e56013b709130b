package geojson

import (
	"encoding/json"
	"fmt"
)

// Geometry is implemented by the GeoJSON geometries that can be stored as
// values of a GeoProperty
type Geometry interface {
	GeometryType() string
	Centroid() Point
}

// Point is a single WGS84 position
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func (p Point) GeometryType() string { return p.Type }

func (p Point) Centroid() Point {
	return Point{Type: "Point", Coordinates: p.Coordinates}
}

func (p Point) Latitude() float64 {
	return p.Coordinates[1]
}

func (p Point) Longitude() float64 {
	return p.Coordinates[0]
}

type LineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

func (ls LineString) GeometryType() string { return ls.Type }

func (ls LineString) Centroid() Point {
	return centroidOf(ls.Coordinates)
}

type Polygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

func (p Polygon) GeometryType() string { return p.Type }

func (p Polygon) Centroid() Point {
	return centroidOf(p.Coordinates[0])
}

type MultiPolygon struct {
	Type        string          `json:"type"`
	Coordinates [][][][]float64 `json:"coordinates"`
}

func (mp MultiPolygon) GeometryType() string { return mp.Type }

func (mp MultiPolygon) Centroid() Point {
	return centroidOf(mp.Coordinates[0][0])
}

func NewPoint(longitude, latitude float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{longitude, latitude}}
}

// Parse validates a GeoJSON geometry and returns it in its typed form
func Parse(raw json.RawMessage) (Geometry, error) {
	header := struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}{}

	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("geometry is not a json object: %w", err)
	}

	if header.Type == "" {
		return nil, fmt.Errorf("geometries without a geotype are not supported")
	}

	if len(header.Coordinates) == 0 {
		return nil, fmt.Errorf("unable to parse %s geometry with no coordinates", header.Type)
	}

	switch header.Type {
	case "Point":
		coordinates := []float64{}
		if err := json.Unmarshal(header.Coordinates, &coordinates); err != nil {
			return nil, fmt.Errorf("point coordinates not convertible to float64: %w", err)
		}
		if len(coordinates) < 2 {
			return nil, fmt.Errorf("point coordinates array has insufficient length (%d < 2)", len(coordinates))
		}
		return NewPoint(coordinates[0], coordinates[1]), nil
	case "LineString":
		ls := LineString{Type: header.Type}
		if err := json.Unmarshal(header.Coordinates, &ls.Coordinates); err != nil {
			return nil, fmt.Errorf("malformed linestring coordinates: %w", err)
		}
		if len(ls.Coordinates) < 2 {
			return nil, fmt.Errorf("a linestring needs at least two positions")
		}
		return ls, validatePositions(ls.Coordinates)
	case "Polygon":
		p := Polygon{Type: header.Type}
		if err := json.Unmarshal(header.Coordinates, &p.Coordinates); err != nil {
			return nil, fmt.Errorf("malformed polygon coordinates: %w", err)
		}
		if len(p.Coordinates) == 0 {
			return nil, fmt.Errorf("a polygon needs at least one ring")
		}
		for _, ring := range p.Coordinates {
			if err := validateRing(ring); err != nil {
				return nil, err
			}
		}
		return p, nil
	case "MultiPolygon":
		mp := MultiPolygon{Type: header.Type}
		if err := json.Unmarshal(header.Coordinates, &mp.Coordinates); err != nil {
			return nil, fmt.Errorf("malformed multipolygon coordinates: %w", err)
		}
		if len(mp.Coordinates) == 0 || len(mp.Coordinates[0]) == 0 {
			return nil, fmt.Errorf("a multipolygon needs at least one polygon")
		}
		for _, polygon := range mp.Coordinates {
			for _, ring := range polygon {
				if err := validateRing(ring); err != nil {
					return nil, err
				}
			}
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unknown geotype %s not supported", header.Type)
	}
}

func validatePositions(positions [][]float64) error {
	for _, p := range positions {
		if len(p) < 2 {
			return fmt.Errorf("position has insufficient length (%d < 2)", len(p))
		}
	}
	return nil
}

func validateRing(ring [][]float64) error {
	if len(ring) < 4 {
		return fmt.Errorf("a linear ring needs at least four positions")
	}

	if err := validatePositions(ring); err != nil {
		return err
	}

	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return fmt.Errorf("a linear ring must be closed")
	}

	return nil
}

func centroidOf(positions [][]float64) Point {
	var lon, lat float64
	for _, p := range positions {
		lon += p[0]
		lat += p[1]
	}
	n := float64(len(positions))
	return NewPoint(lon/n, lat/n)
}
