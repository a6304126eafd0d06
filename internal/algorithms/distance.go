package algorithms

import "math"

// EarthRadiusKm - средний радиус Земли для haversine
const EarthRadiusKm = 6371.0

// kmPerDegreeLat ≈ 2πR/360
const kmPerDegreeLat = EarthRadiusKm * math.Pi / 180

// Point - координата в градусах
type Point struct {
	Lat float64
	Lon float64
}

// PointFrom возвращает false, если хотя бы одна координата не задана.
// Отсутствующие координаты считаются "нет совпадения", а не нулем.
func PointFrom(lat, lon *float64) (Point, bool) {
	if lat == nil || lon == nil {
		return Point{}, false
	}
	return Point{Lat: *lat, Lon: *lon}, true
}

// DistanceKm - расстояние по большому кругу (haversine)
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundingBox - грубый прямоугольник вокруг origin для предфильтра в SQL.
// lonOK=false, когда долготу ограничить нельзя (полюса, переход через ±180).
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	LonOK          bool
}

func BoundingBoxAround(origin Point, radiusKm float64) BoundingBox {
	dLat := radiusKm / kmPerDegreeLat
	box := BoundingBox{
		MinLat: math.Max(origin.Lat-dLat, -90),
		MaxLat: math.Min(origin.Lat+dLat, 90),
	}

	// Максимальный разброс долготы окружности на сфере достигается не на широте origin,
	// а на касательной широте: dLon = asin(sin(r/R) / cos φ).
	cosLat := math.Cos(toRadians(origin.Lat))
	if cosLat < 1e-6 {
		return box
	}
	sinSpan := math.Sin(radiusKm/EarthRadiusKm) / cosLat
	if radiusKm/EarthRadiusKm >= math.Pi/2 || sinSpan >= 1 {
		// полюс внутри окружности
		return box
	}
	dLon := toDegrees(math.Asin(sinSpan))
	if dLon >= 180 || origin.Lon-dLon < -180 || origin.Lon+dLon > 180 {
		return box
	}
	box.MinLon = origin.Lon - dLon
	box.MaxLon = origin.Lon + dLon
	box.LonOK = true
	return box
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
