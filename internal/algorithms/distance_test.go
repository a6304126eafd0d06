package algorithms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_OneDegreeAtEquator(t *testing.T) {
	d := DistanceKm(Point{0, 0}, Point{0, 1})
	assert.InDelta(t, 111.19, d, 0.01)
}

func TestDistanceKm_SymmetricAndZero(t *testing.T) {
	points := []Point{
		{0, 0},
		{12.97, 77.59},
		{-33.87, 151.21},
		{51.5, -0.12},
		{89.9, 10},
		{-45, -179.9},
	}

	for _, a := range points {
		assert.InDelta(t, 0, DistanceKm(a, a), 1e-9)
		for _, b := range points {
			assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
		}
	}
}

func TestDistanceKm_Monotonic(t *testing.T) {
	origin := Point{12.97, 77.59}
	near := DistanceKm(origin, Point{13.02, 77.59})
	far := DistanceKm(origin, Point{13.17, 77.59})

	assert.InDelta(t, 5.56, near, 0.01)
	assert.InDelta(t, 22.24, far, 0.01)
	assert.Less(t, near, far)
}

func TestPointFrom_MissingCoordinate(t *testing.T) {
	lat := 1.0
	_, ok := PointFrom(&lat, nil)
	assert.False(t, ok)
	_, ok = PointFrom(nil, &lat)
	assert.False(t, ok)

	p, ok := PointFrom(&lat, &lat)
	assert.True(t, ok)
	assert.Equal(t, Point{1, 1}, p)
}

func TestBoundingBoxAround(t *testing.T) {
	origin := Point{12.97, 77.59}
	box := BoundingBoxAround(origin, 10)

	assert.True(t, box.LonOK)
	assert.Less(t, box.MinLat, origin.Lat)
	assert.Greater(t, box.MaxLat, origin.Lat)
	assert.Less(t, box.MinLon, origin.Lon)
	assert.Greater(t, box.MaxLon, origin.Lon)

	// точка на краю радиуса должна попасть в прямоугольник
	edge := Point{origin.Lat + 0.0899, origin.Lon}
	assert.LessOrEqual(t, DistanceKm(origin, edge), 10.0)
	assert.LessOrEqual(t, edge.Lat, box.MaxLat)

	polar := BoundingBoxAround(Point{89.99, 0}, 50)
	assert.False(t, polar.LonOK)
	assert.Equal(t, 90.0, polar.MaxLat)

	dateline := BoundingBoxAround(Point{0, 179.95}, 20)
	assert.False(t, dateline.LonOK)
}

func TestBoundingBoxAround_HighLatitudeTangentPoint(t *testing.T) {
	origin := Point{60, 10}
	box := BoundingBoxAround(origin, 500)
	assert.True(t, box.LonOK)

	// восточнее, чем r/(kmPerDeg·cos φ), но все еще внутри радиуса
	p := Point{60.30, 19.0132}
	assert.Less(t, DistanceKm(origin, p), 500.0)
	assert.GreaterOrEqual(t, box.MaxLon, p.Lon)
	assert.LessOrEqual(t, box.MinLon, 2*origin.Lon-p.Lon)
}

func TestBoundingBoxAround_ContainsWholeCircle(t *testing.T) {
	cases := []struct {
		origin   Point
		radiusKm float64
	}{
		{Point{0, 0}, 50},
		{Point{43.24, 76.89}, 20},
		{Point{60, 10}, 500},
		{Point{-71.5, -60}, 300},
		{Point{80, 30}, 200},
	}

	for _, tc := range cases {
		box := BoundingBoxAround(tc.origin, tc.radiusKm)
		for bearing := 0.0; bearing < 360; bearing += 0.5 {
			p := destination(tc.origin, bearing, tc.radiusKm*0.9999)
			assert.GreaterOrEqual(t, p.Lat, box.MinLat, "origin %v bearing %v", tc.origin, bearing)
			assert.LessOrEqual(t, p.Lat, box.MaxLat, "origin %v bearing %v", tc.origin, bearing)
			if box.LonOK {
				assert.GreaterOrEqual(t, p.Lon, box.MinLon, "origin %v bearing %v", tc.origin, bearing)
				assert.LessOrEqual(t, p.Lon, box.MaxLon, "origin %v bearing %v", tc.origin, bearing)
			}
		}
	}
}

func TestBoundingBoxAround_PoleInsideCircle(t *testing.T) {
	box := BoundingBoxAround(Point{85, 0}, 600)
	assert.False(t, box.LonOK)
	assert.Equal(t, 90.0, box.MaxLat)
}

// destination - точка на расстоянии distKm по азимуту bearing (градусы)
func destination(origin Point, bearing, distKm float64) Point {
	delta := distKm / EarthRadiusKm
	theta := toRadians(bearing)
	lat1 := toRadians(origin.Lat)
	lon1 := toRadians(origin.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Lat: toDegrees(lat2), Lon: toDegrees(lon2)}
}
