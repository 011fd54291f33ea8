package crs

import "math"

// UTM is a WGS84 Universal Transverse Mercator zone (EPSG 326xx north,
// 327xx south). Uses the USGS transverse mercator series, accurate to
// well under a meter inside the zone.
type UTM struct {
	Zone  int // 1..60
	South bool
}

const (
	utmScale        = 0.9996
	utmFalseEasting = 500000.0
	utmFalseNorth   = 10000000.0
)

// centralMeridian returns the zone's central meridian in radians.
func (u *UTM) centralMeridian() float64 {
	return float64(u.Zone*6-183) * math.Pi / 180
}

func (u *UTM) EPSG() int {
	if u.South {
		return 32700 + u.Zone
	}
	return 32600 + u.Zone
}

func (u *UTM) FromWGS84(lon, lat float64) (x, y float64) {
	a := semiMajor
	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180

	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	tanPhi := sinPhi / cosPhi

	n := a / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	A := (lam - u.centralMeridian()) * cosPhi

	m := meridianArc(phi)

	x = utmScale*n*(A+(1-t+c)*A*A*A/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(A, 5)/120) + utmFalseEasting
	y = utmScale * (m + n*tanPhi*(A*A/2+
		(5-t+9*c+4*c*c)*math.Pow(A, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(A, 6)/720))
	if u.South {
		y += utmFalseNorth
	}
	return x, y
}

func (u *UTM) ToWGS84(x, y float64) (lon, lat float64) {
	a := semiMajor
	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	northing := y
	if u.South {
		northing -= utmFalseNorth
	}

	m := northing / utmScale
	mu := m / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sin(phi1), math.Cos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := a / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := a * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (x - utmFalseEasting) / (n1 * utmScale)

	phi := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
	lam := u.centralMeridian() + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cosPhi1

	return lam * 180 / math.Pi, phi * 180 / math.Pi
}

// meridianArc returns the meridian arc length from the equator to
// latitude phi (radians) on the WGS84 ellipsoid.
func meridianArc(phi float64) float64 {
	a := semiMajor
	e2 := flattening * (2 - flattening)
	e4 := e2 * e2
	e6 := e4 * e2
	return a * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}
