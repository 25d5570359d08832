package crs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const projJSONSchema = "https://proj.org/schemas/v0.7/projjson.schema.json"

// ProjJSON is the subset of the PROJJSON CRS model that WKT records in
// point-cloud files use in practice.
type ProjJSON struct {
	Schema           string            `json:"$schema,omitempty"`
	Type             string            `json:"type"`
	Name             string            `json:"name"`
	BaseCRS          *ProjJSON         `json:"base_crs,omitempty"`
	Datum            *Datum            `json:"datum,omitempty"`
	DatumEnsemble    *DatumEnsemble    `json:"datum_ensemble,omitempty"`
	Conversion       *Conversion       `json:"conversion,omitempty"`
	Components       []*ProjJSON       `json:"components,omitempty"`
	CoordinateSystem *CoordinateSystem `json:"coordinate_system,omitempty"`
	ID               *ID               `json:"id,omitempty"`
}

type ID struct {
	Authority string `json:"authority"`
	// Code is an int64 for numeric codes and a string otherwise.
	Code any `json:"code"`
}

// UnitObject is used for any unit other than metre, degree, or unity,
// which are written as bare strings.
type UnitObject struct {
	Type             string  `json:"type"`
	Name             string  `json:"name"`
	ConversionFactor float64 `json:"conversion_factor"`
}

type Axis struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Direction    string `json:"direction"`
	Unit         any    `json:"unit,omitempty"`
}

type CoordinateSystem struct {
	Subtype string `json:"subtype"`
	Axis    []Axis `json:"axis"`
}

type Ellipsoid struct {
	Name              string  `json:"name"`
	SemiMajorAxis     float64 `json:"semi_major_axis,omitempty"`
	InverseFlattening float64 `json:"inverse_flattening,omitempty"`
	Radius            float64 `json:"radius,omitempty"`
	ID                *ID     `json:"id,omitempty"`
}

type PrimeMeridian struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
}

type Datum struct {
	// Type is empty for engineering datums, which PROJJSON leaves
	// untyped.
	Type          string         `json:"type,omitempty"`
	Name          string         `json:"name"`
	Ellipsoid     *Ellipsoid     `json:"ellipsoid,omitempty"`
	PrimeMeridian *PrimeMeridian `json:"prime_meridian,omitempty"`
	ID            *ID            `json:"id,omitempty"`
}

type EnsembleMember struct {
	Name string `json:"name"`
	ID   *ID    `json:"id,omitempty"`
}

type DatumEnsemble struct {
	Name      string           `json:"name"`
	Members   []EnsembleMember `json:"members"`
	Ellipsoid *Ellipsoid       `json:"ellipsoid,omitempty"`
	Accuracy  string           `json:"accuracy,omitempty"`
	ID        *ID              `json:"id,omitempty"`
}

type Method struct {
	Name string `json:"name"`
	ID   *ID    `json:"id,omitempty"`
}

type Parameter struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  any     `json:"unit,omitempty"`
	ID    *ID     `json:"id,omitempty"`
}

type Conversion struct {
	Name       string      `json:"name"`
	Method     Method      `json:"method"`
	Parameters []Parameter `json:"parameters,omitempty"`
	ID         *ID         `json:"id,omitempty"`
}

// ToProjJSON converts a parsed WKT1 or WKT2 CRS into PROJJSON.
func ToProjJSON(n *Node) (*ProjJSON, error) {
	pj, err := convertCRS(n)
	if err != nil {
		return nil, err
	}
	pj.Schema = projJSONSchema
	return pj, nil
}

func convertCRS(n *Node) (*ProjJSON, error) {
	switch {
	case n.Is("GEOGCS"):
		return geogCS1(n)
	case n.Is("PROJCS"):
		return projCS1(n)
	case n.Is("GEOCCS"):
		return geocCS1(n)
	case n.Is("VERT_CS"):
		return vertCS(n, true)
	case n.Is("COMPD_CS", "COMPOUNDCRS"):
		return compound(n)
	case n.Is("GEOGCRS", "GEOGRAPHICCRS", "GEODCRS", "GEODETICCRS", "BASEGEOGCRS", "BASEGEODCRS"):
		return geodCRS2(n)
	case n.Is("PROJCRS", "PROJECTEDCRS"):
		return projCRS2(n)
	case n.Is("VERTCRS", "VERTICALCRS"):
		return vertCS(n, false)
	case n.Is("LOCAL_CS"):
		return localCS1(n)
	case n.Is("ENGCRS", "ENGINEERINGCRS"):
		return engCRS2(n)
	case n.Is("BOUNDCRS"):
		if src := n.Child("SOURCECRS"); src != nil && len(src.Nodes()) > 0 {
			return convertCRS(src.Nodes()[0])
		}
	}
	return nil, fmt.Errorf("%w %s", ErrUnsupported, n.Keyword)
}

func isCRSNode(n *Node) bool {
	return n.Is("GEOGCS", "PROJCS", "GEOCCS", "VERT_CS", "COMPD_CS", "COMPOUNDCRS",
		"GEOGCRS", "GEOGRAPHICCRS", "GEODCRS", "GEODETICCRS", "PROJCRS", "PROJECTEDCRS",
		"VERTCRS", "VERTICALCRS", "BOUNDCRS", "LOCAL_CS", "ENGCRS", "ENGINEERINGCRS")
}

func authority(n *Node) *ID {
	a := n.Child("AUTHORITY", "ID")
	if a == nil {
		return nil
	}
	org := a.Name()
	code, ok := a.Text(1)
	if org == "" || !ok {
		return nil
	}
	if v, err := strconv.ParseInt(code, 10, 64); err == nil {
		return &ID{Authority: org, Code: v}
	}
	return &ID{Authority: org, Code: code}
}

type unitKind int

const (
	linearUnit unitKind = iota
	angularUnit
	scaleUnit
)

func unitJSON(u *Node, kind unitKind) any {
	if u == nil {
		switch kind {
		case angularUnit:
			return "degree"
		case scaleUnit:
			return "unity"
		}
		return "metre"
	}
	switch {
	case u.Is("LENGTHUNIT"):
		kind = linearUnit
	case u.Is("ANGLEUNIT"):
		kind = angularUnit
	case u.Is("SCALEUNIT"):
		kind = scaleUnit
	}
	name := u.Name()
	factor, _ := u.Number(1)
	lower := strings.ToLower(name)
	var typ string
	switch kind {
	case linearUnit:
		if factor == 1 && (lower == "metre" || lower == "meter") {
			return "metre"
		}
		typ = "LinearUnit"
	case angularUnit:
		if math.Abs(factor-math.Pi/180) < 1e-12 && strings.HasPrefix(lower, "degree") {
			return "degree"
		}
		typ = "AngularUnit"
	case scaleUnit:
		if factor == 1 {
			return "unity"
		}
		typ = "ScaleUnit"
	}
	return UnitObject{Type: typ, Name: name, ConversionFactor: factor}
}

func ellipsoid(n *Node) *Ellipsoid {
	a, _ := n.Number(1)
	rf, _ := n.Number(2)
	e := &Ellipsoid{Name: n.Name(), ID: authority(n)}
	if rf == 0 {
		e.Radius = a
	} else {
		e.SemiMajorAxis = a
		e.InverseFlattening = rf
	}
	return e
}

var datumAliases = map[string]string{
	"WGS_1984":                  "World Geodetic System 1984",
	"WGS84":                     "World Geodetic System 1984",
	"North_American_Datum_1983": "North American Datum 1983",
	"North_American_Datum_1927": "North American Datum 1927",
	"NAD83_National_Spatial_Reference_System_2011": "NAD83 (National Spatial Reference System 2011)",
}

func datumName1(name string) string {
	if alias, ok := datumAliases[name]; ok {
		return alias
	}
	return strings.ReplaceAll(strings.TrimPrefix(name, "D_"), "_", " ")
}

func geodeticDatum(n *Node, wkt1 bool) (*Datum, *DatumEnsemble, error) {
	if ens := n.Child("ENSEMBLE"); ens != nil {
		de := &DatumEnsemble{Name: ens.Name(), ID: authority(ens)}
		for _, m := range ens.Children("MEMBER") {
			de.Members = append(de.Members, EnsembleMember{Name: m.Name(), ID: authority(m)})
		}
		if e := ens.Child("ELLIPSOID", "SPHEROID"); e != nil {
			de.Ellipsoid = ellipsoid(e)
		}
		if acc := ens.Child("ENSEMBLEACCURACY"); acc != nil {
			de.Accuracy, _ = acc.Text(0)
		}
		return nil, de, nil
	}
	d := n.Child("DATUM", "GEODETICDATUM", "TRF")
	if d == nil {
		return nil, nil, errMissingDatum
	}
	name := d.Name()
	if wkt1 {
		name = datumName1(name)
	}
	datum := &Datum{Type: "GeodeticReferenceFrame", Name: name, ID: authority(d)}
	if e := d.Child("SPHEROID", "ELLIPSOID"); e != nil {
		datum.Ellipsoid = ellipsoid(e)
	}
	if pm := n.Child("PRIMEM", "PRIMEMERIDIAN"); pm != nil {
		lon, _ := pm.Number(1)
		if lon != 0 || !strings.EqualFold(pm.Name(), "Greenwich") {
			datum.PrimeMeridian = &PrimeMeridian{Name: pm.Name(), Longitude: lon}
		}
	}
	return datum, nil, nil
}

type axisAlias struct {
	name, abbreviation string
}

var axisAliases1 = map[string]axisAlias{
	"lat":                    {"Geodetic latitude", "Lat"},
	"latitude":               {"Geodetic latitude", "Lat"},
	"geodetic latitude":      {"Geodetic latitude", "Lat"},
	"lon":                    {"Geodetic longitude", "Lon"},
	"long":                   {"Geodetic longitude", "Lon"},
	"longitude":              {"Geodetic longitude", "Lon"},
	"geodetic longitude":     {"Geodetic longitude", "Lon"},
	"easting":                {"Easting", "E"},
	"northing":               {"Northing", "N"},
	"gravity-related height": {"Gravity-related height", "H"},
}

var directionNames = map[string]string{
	"east":  "Easting",
	"north": "Northing",
	"up":    "Height",
}

func axisList(n *Node, unit any, wkt1 bool) []Axis {
	var axes []Axis
	for _, a := range n.Children("AXIS") {
		name := a.Name()
		dir, _ := a.Text(1)
		if strings.ToUpper(dir) == dir {
			dir = strings.ToLower(dir)
		}
		ax := Axis{Direction: dir, Unit: unit}
		if open := strings.LastIndex(name, "("); open >= 0 && strings.HasSuffix(name, ")") {
			ax.Abbreviation = strings.TrimSpace(name[open+1 : len(name)-1])
			name = strings.TrimSpace(name[:open])
		}
		if alias, ok := axisAliases1[strings.ToLower(name)]; ok && wkt1 {
			name, ax.Abbreviation = alias.name, alias.abbreviation
		}
		if name == "" {
			name = directionNames[dir]
		}
		if name != "" {
			name = strings.ToUpper(name[:1]) + name[1:]
		}
		ax.Name = name
		if ax.Abbreviation == "" && name != "" {
			ax.Abbreviation = name[:1]
		}
		if u := a.Child("LENGTHUNIT", "ANGLEUNIT", "SCALEUNIT", "UNIT"); u != nil {
			ax.Unit = unitJSON(u, linearUnit)
		}
		axes = append(axes, ax)
	}
	return axes
}

func latLonAxes(unit any) []Axis {
	return []Axis{
		{Name: "Geodetic latitude", Abbreviation: "Lat", Direction: "north", Unit: unit},
		{Name: "Geodetic longitude", Abbreviation: "Lon", Direction: "east", Unit: unit},
	}
}

func eastNorthAxes(unit any) []Axis {
	return []Axis{
		{Name: "Easting", Abbreviation: "E", Direction: "east", Unit: unit},
		{Name: "Northing", Abbreviation: "N", Direction: "north", Unit: unit},
	}
}

func geocentricAxes(unit any) []Axis {
	return []Axis{
		{Name: "Geocentric X", Abbreviation: "X", Direction: "geocentricX", Unit: unit},
		{Name: "Geocentric Y", Abbreviation: "Y", Direction: "geocentricY", Unit: unit},
		{Name: "Geocentric Z", Abbreviation: "Z", Direction: "geocentricZ", Unit: unit},
	}
}

func heightAxes(unit any) []Axis {
	return []Axis{{Name: "Gravity-related height", Abbreviation: "H", Direction: "up", Unit: unit}}
}

func geogCS1(n *Node) (*ProjJSON, error) {
	datum, _, err := geodeticDatum(n, true)
	if err != nil {
		return nil, err
	}
	unit := unitJSON(n.Child("UNIT"), angularUnit)
	axes := axisList(n, unit, true)
	if len(axes) == 0 {
		axes = latLonAxes(unit)
	}
	return &ProjJSON{
		Type:             "GeographicCRS",
		Name:             n.Name(),
		Datum:            datum,
		CoordinateSystem: &CoordinateSystem{Subtype: "ellipsoidal", Axis: axes},
		ID:               authority(n),
	}, nil
}

func geocCS1(n *Node) (*ProjJSON, error) {
	datum, _, err := geodeticDatum(n, true)
	if err != nil {
		return nil, err
	}
	return &ProjJSON{
		Type:             "GeodeticCRS",
		Name:             n.Name(),
		Datum:            datum,
		CoordinateSystem: &CoordinateSystem{Subtype: "Cartesian", Axis: geocentricAxes(unitJSON(n.Child("UNIT"), linearUnit))},
		ID:               authority(n),
	}, nil
}

type paramSpec struct {
	name string
	code int64
	kind unitKind
}

type methodSpec struct {
	name   string
	code   int64
	params map[string]paramSpec
}

var commonParams1 = map[string]paramSpec{
	"latitude_of_origin":   {"Latitude of natural origin", 8801, angularUnit},
	"central_meridian":     {"Longitude of natural origin", 8802, angularUnit},
	"scale_factor":         {"Scale factor at natural origin", 8805, scaleUnit},
	"false_easting":        {"False easting", 8806, linearUnit},
	"false_northing":       {"False northing", 8807, linearUnit},
	"standard_parallel_1":  {"Latitude of 1st standard parallel", 8823, angularUnit},
	"standard_parallel_2":  {"Latitude of 2nd standard parallel", 8824, angularUnit},
	"latitude_of_center":   {"Latitude of projection centre", 8811, angularUnit},
	"longitude_of_center":  {"Longitude of projection centre", 8812, angularUnit},
	"azimuth":              {"Azimuth of initial line", 8813, angularUnit},
	"rectified_grid_angle": {"Angle from Rectified to Skew Grid", 8814, angularUnit},
}

var falseOriginParams = map[string]paramSpec{
	"latitude_of_origin":  {"Latitude of false origin", 8821, angularUnit},
	"central_meridian":    {"Longitude of false origin", 8822, angularUnit},
	"latitude_of_center":  {"Latitude of false origin", 8821, angularUnit},
	"longitude_of_center": {"Longitude of false origin", 8822, angularUnit},
	"false_easting":       {"Easting at false origin", 8826, linearUnit},
	"false_northing":      {"Northing at false origin", 8827, linearUnit},
}

var hotineAParams = map[string]paramSpec{
	"scale_factor": {"Scale factor on initial line", 8815, scaleUnit},
}

var hotineBParams = map[string]paramSpec{
	"scale_factor":   {"Scale factor on initial line", 8815, scaleUnit},
	"false_easting":  {"Easting at projection centre", 8816, linearUnit},
	"false_northing": {"Northing at projection centre", 8817, linearUnit},
}

var methods1 = map[string]methodSpec{
	"transverse_mercator":                    {"Transverse Mercator", 9807, nil},
	"lambert_conformal_conic_1sp":            {"Lambert Conic Conformal (1SP)", 9801, nil},
	"lambert_conformal_conic_2sp":            {"Lambert Conic Conformal (2SP)", 9802, falseOriginParams},
	"albers_conic_equal_area":                {"Albers Equal Area", 9822, falseOriginParams},
	"albers":                                 {"Albers Equal Area", 9822, falseOriginParams},
	"mercator_1sp":                           {"Mercator (variant A)", 9804, nil},
	"mercator_2sp":                           {"Mercator (variant B)", 9805, nil},
	"polar_stereographic":                    {"Polar Stereographic (variant A)", 9810, nil},
	"oblique_stereographic":                  {"Oblique Stereographic", 9809, nil},
	"hotine_oblique_mercator":                {"Hotine Oblique Mercator (variant A)", 9812, hotineAParams},
	"hotine_oblique_mercator_azimuth_center": {"Hotine Oblique Mercator (variant B)", 9815, hotineBParams},
	"lambert_azimuthal_equal_area":           {"Lambert Azimuthal Equal Area", 9820, nil},
	"cassini_soldner":                        {"Cassini-Soldner", 9806, nil},
	"equirectangular":                        {"Equidistant Cylindrical", 1028, nil},
	"popular_visualisation_pseudo_mercator":  {"Popular Visualisation Pseudo Mercator", 1024, pseudoMercatorParams},
	"mercator_auxiliary_sphere":              {"Popular Visualisation Pseudo Mercator", 1024, pseudoMercatorParams},
}

// pseudoMercatorParams drops the scale factor, which the method does
// not take.
var pseudoMercatorParams = map[string]paramSpec{
	"scale_factor":          {},
	"auxiliary_sphere_type": {},
}

// isPseudoMercator reports whether a Mercator_1SP PROJCS is the
// spherical web Mercator, which GDAL marks with a PROJ4 extension that
// disables datum shifts.
func isPseudoMercator(n *Node) bool {
	for _, ext := range n.Children("EXTENSION") {
		if !strings.EqualFold(ext.Name(), "PROJ4") {
			continue
		}
		def, _ := ext.Text(1)
		if strings.Contains(def, "+proj=merc") && strings.Contains(def, "+nadgrids=@null") {
			return true
		}
	}
	return false
}

func wktKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func readable(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func guessKind(key string) unitKind {
	switch {
	case strings.Contains(key, "easting"), strings.Contains(key, "northing"):
		return linearUnit
	case strings.Contains(key, "scale"):
		return scaleUnit
	}
	return angularUnit
}

func projCS1(n *Node) (*ProjJSON, error) {
	g := n.Child("GEOGCS")
	if g == nil {
		return nil, fmtErr("PROJCS %q has no GEOGCS", n.Name())
	}
	base, err := geogCS1(g)
	if err != nil {
		return nil, err
	}
	proj := n.Child("PROJECTION")
	if proj == nil {
		return nil, fmtErr("PROJCS %q has no PROJECTION", n.Name())
	}
	linear := unitJSON(n.Child("UNIT"), linearUnit)
	angular := base.CoordinateSystem.Axis[0].Unit
	params := n.Children("PARAMETER")

	key := wktKey(proj.Name())
	if key == "lambert_conformal_conic" {
		key = "lambert_conformal_conic_1sp"
		for _, p := range params {
			if wktKey(p.Name()) == "standard_parallel_2" {
				key = "lambert_conformal_conic_2sp"
			}
		}
	}
	if key == "mercator_1sp" && isPseudoMercator(n) {
		key = "popular_visualisation_pseudo_mercator"
	}
	spec, ok := methods1[key]
	if !ok {
		spec = methodSpec{name: readable(proj.Name())}
	}
	conv := &Conversion{Name: "unnamed", Method: Method{Name: spec.name}}
	if i := strings.Index(n.Name(), " / "); i >= 0 {
		conv.Name = n.Name()[i+3:]
	}
	if spec.code != 0 {
		conv.Method.ID = &ID{Authority: "EPSG", Code: spec.code}
	}
	for _, p := range params {
		pk := wktKey(p.Name())
		ps, ok := spec.params[pk]
		if ok && ps.name == "" {
			continue
		}
		if !ok {
			ps, ok = commonParams1[pk]
		}
		if !ok {
			ps = paramSpec{name: readable(p.Name()), kind: guessKind(pk)}
		}
		v, _ := p.Number(1)
		param := Parameter{Name: ps.name, Value: v}
		switch ps.kind {
		case linearUnit:
			param.Unit = linear
		case angularUnit:
			param.Unit = angular
		case scaleUnit:
			param.Unit = "unity"
		}
		if ps.code != 0 {
			param.ID = &ID{Authority: "EPSG", Code: ps.code}
		}
		conv.Parameters = append(conv.Parameters, param)
	}
	axes := axisList(n, linear, true)
	if len(axes) == 0 {
		axes = eastNorthAxes(linear)
	}
	return &ProjJSON{
		Type:             "ProjectedCRS",
		Name:             n.Name(),
		BaseCRS:          base,
		Conversion:       conv,
		CoordinateSystem: &CoordinateSystem{Subtype: "Cartesian", Axis: axes},
		ID:               authority(n),
	}, nil
}

func vertCS(n *Node, wkt1 bool) (*ProjJSON, error) {
	pj := &ProjJSON{Type: "VerticalCRS", Name: n.Name(), ID: authority(n)}
	if d := n.Child("VERT_DATUM", "VDATUM", "VERTICALDATUM", "VRF"); d != nil {
		pj.Datum = &Datum{Type: "VerticalReferenceFrame", Name: d.Name(), ID: authority(d)}
	}
	unit := unitJSON(n.Child("UNIT", "LENGTHUNIT"), linearUnit)
	axes := axisList(n, unit, wkt1)
	if len(axes) == 0 {
		axes = heightAxes(unit)
	}
	pj.CoordinateSystem = &CoordinateSystem{Subtype: "vertical", Axis: axes}
	return pj, nil
}

const unknownEngineeringDatum = "Unknown engineering datum"

func localCS1(n *Node) (*ProjJSON, error) {
	datum := &Datum{Name: unknownEngineeringDatum}
	if d := n.Child("LOCAL_DATUM"); d != nil && d.Name() != "" {
		datum.Name, datum.ID = d.Name(), authority(d)
	}
	unit := unitJSON(n.Child("UNIT"), linearUnit)
	axes := axisList(n, unit, true)
	if len(axes) == 0 {
		axes = eastNorthAxes(unit)
	}
	return &ProjJSON{
		Type:             "EngineeringCRS",
		Name:             n.Name(),
		Datum:            datum,
		CoordinateSystem: &CoordinateSystem{Subtype: "Cartesian", Axis: axes},
		ID:               authority(n),
	}, nil
}

func engCRS2(n *Node) (*ProjJSON, error) {
	datum := &Datum{Name: unknownEngineeringDatum}
	if d := n.Child("EDATUM", "ENGINEERINGDATUM"); d != nil && d.Name() != "" {
		datum.Name, datum.ID = d.Name(), authority(d)
	}
	return &ProjJSON{
		Type:             "EngineeringCRS",
		Name:             n.Name(),
		Datum:            datum,
		CoordinateSystem: coordinateSystem2(n, linearUnit, "Cartesian"),
		ID:               authority(n),
	}, nil
}

func compound(n *Node) (*ProjJSON, error) {
	pj := &ProjJSON{Type: "CompoundCRS", Name: n.Name(), ID: authority(n)}
	for _, c := range n.Nodes() {
		if !isCRSNode(c) {
			continue
		}
		comp, err := convertCRS(c)
		if err != nil {
			return nil, err
		}
		pj.Components = append(pj.Components, comp)
	}
	if len(pj.Components) < 2 {
		return nil, fmtErr("compound CRS %q needs at least two components", n.Name())
	}
	return pj, nil
}

func coordinateSystem2(n *Node, kind unitKind, subtype string) *CoordinateSystem {
	if cs := n.Child("CS"); cs != nil {
		if t, ok := cs.Text(0); ok {
			subtype = t
		}
	}
	unit := unitJSON(n.Child("LENGTHUNIT", "ANGLEUNIT", "SCALEUNIT", "UNIT"), kind)
	axes := axisList(n, unit, false)
	if len(axes) == 0 {
		switch {
		case strings.EqualFold(subtype, "ellipsoidal"):
			axes = latLonAxes(unit)
		case strings.EqualFold(subtype, "vertical"):
			axes = heightAxes(unit)
		case kind == linearUnit && n.Is("GEODCRS", "GEODETICCRS", "BASEGEODCRS"):
			axes = geocentricAxes(unit)
		default:
			axes = eastNorthAxes(unit)
		}
	}
	return &CoordinateSystem{Subtype: subtype, Axis: axes}
}

func geodCRS2(n *Node) (*ProjJSON, error) {
	datum, ensemble, err := geodeticDatum(n, false)
	if err != nil {
		return nil, err
	}
	pj := &ProjJSON{
		Type:          "GeographicCRS",
		Name:          n.Name(),
		Datum:         datum,
		DatumEnsemble: ensemble,
		ID:            authority(n),
	}
	kind, subtype := angularUnit, "ellipsoidal"
	if n.Is("GEODCRS", "GEODETICCRS", "BASEGEODCRS") {
		pj.Type = "GeodeticCRS"
		if cs := n.Child("CS"); cs != nil {
			if t, _ := cs.Text(0); strings.EqualFold(t, "Cartesian") {
				kind, subtype = linearUnit, "Cartesian"
			}
		}
	}
	pj.CoordinateSystem = coordinateSystem2(n, kind, subtype)
	return pj, nil
}

func projCRS2(n *Node) (*ProjJSON, error) {
	b := n.Child("BASEGEOGCRS", "BASEGEODCRS", "BASEGEOGRAPHICCRS")
	if b == nil {
		return nil, fmtErr("PROJCRS %q has no base CRS", n.Name())
	}
	base, err := geodCRS2(b)
	if err != nil {
		return nil, err
	}
	c := n.Child("CONVERSION")
	if c == nil {
		return nil, fmtErr("PROJCRS %q has no CONVERSION", n.Name())
	}
	conv := &Conversion{Name: c.Name(), ID: authority(c)}
	if m := c.Child("METHOD", "PROJECTION"); m != nil {
		conv.Method = Method{Name: m.Name(), ID: authority(m)}
	}
	for _, p := range c.Children("PARAMETER") {
		v, _ := p.Number(1)
		param := Parameter{Name: p.Name(), Value: v, ID: authority(p)}
		if u := p.Child("LENGTHUNIT", "ANGLEUNIT", "SCALEUNIT", "UNIT"); u != nil {
			param.Unit = unitJSON(u, linearUnit)
		}
		conv.Parameters = append(conv.Parameters, param)
	}
	return &ProjJSON{
		Type:             "ProjectedCRS",
		Name:             n.Name(),
		BaseCRS:          base,
		Conversion:       conv,
		CoordinateSystem: coordinateSystem2(n, linearUnit, "Cartesian"),
		ID:               authority(n),
	}, nil
}
