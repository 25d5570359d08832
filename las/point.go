package las

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Classification is the ASPRS point class.
type Classification uint8

const (
	CreatedNeverClassified Classification = 0
	Unclassified           Classification = 1
	Ground                 Classification = 2
	LowVegetation          Classification = 3
	MediumVegetation       Classification = 4
	HighVegetation         Classification = 5
	Building               Classification = 6
	LowPoint               Classification = 7
	ModelKeyPoint          Classification = 8
	Water                  Classification = 9
	Rail                   Classification = 10
	RoadSurface            Classification = 11
	WireGuard              Classification = 13
	WireConductor          Classification = 14
	TransmissionTower      Classification = 15
	WireStructureConnector Classification = 16
	BridgeDeck             Classification = 17
	HighNoise              Classification = 18
)

var classificationNames = [...]string{
	CreatedNeverClassified: "CreatedNeverClassified",
	Unclassified:           "Unclassified",
	Ground:                 "Ground",
	LowVegetation:          "LowVegetation",
	MediumVegetation:       "MediumVegetation",
	HighVegetation:         "HighVegetation",
	Building:               "Building",
	LowPoint:               "LowPoint",
	ModelKeyPoint:          "ModelKeyPoint",
	Water:                  "Water",
	Rail:                   "Rail",
	RoadSurface:            "RoadSurface",
	12:                     "",
	WireGuard:              "WireGuard",
	WireConductor:          "WireConductor",
	TransmissionTower:      "TransmissionTower",
	WireStructureConnector: "WireStructureConnector",
	BridgeDeck:             "BridgeDeck",
	HighNoise:              "HighNoise",
}

// String returns the class name. Classes without an assigned meaning
// render as Reserved(n) below 64 and UserDefinable(n) from 64 up.
func (c Classification) String() string {
	if int(c) < len(classificationNames) && classificationNames[c] != "" {
		return classificationNames[c]
	}
	if c < 64 {
		return "Reserved(" + strconv.Itoa(int(c)) + ")"
	}
	return "UserDefinable(" + strconv.Itoa(int(c)) + ")"
}

// ScanDirection is the direction the scanner mirror was travelling.
type ScanDirection uint8

const (
	RightToLeft ScanDirection = iota
	LeftToRight
)

func (d ScanDirection) String() string {
	if d == LeftToRight {
		return "LeftToRight"
	}
	return "RightToLeft"
}

// Point is one decoded point record. Coordinates are already scaled
// and offset.
type Point struct {
	X, Y, Z         float64
	Intensity       uint16
	ReturnNumber    uint8
	NumberOfReturns uint8
	ScanDirection   ScanDirection
	Classification  Classification
	// ScanAngle is in degrees.
	ScanAngle     float32
	PointSourceID uint16
	GPSTime       float64
	HasGPSTime    bool
}

// minRecordLength is the byte size of each point data format without
// extra bytes.
var minRecordLength = [...]uint16{20, 28, 26, 34, 57, 63, 30, 36, 38, 59, 67}

func formatHasGPSTime(format uint8) bool {
	return format != 0 && format != 2
}

// decodePoint decodes one record. b must hold at least
// minRecordLength[format] bytes.
func decodePoint(b []byte, format uint8, t *Transform, p *Point) {
	le := binary.LittleEndian
	p.X = t.X.apply(int32(le.Uint32(b[0:])))
	p.Y = t.Y.apply(int32(le.Uint32(b[4:])))
	p.Z = t.Z.apply(int32(le.Uint32(b[8:])))
	p.Intensity = le.Uint16(b[12:])
	if format < 6 {
		flags := b[14]
		p.ReturnNumber = flags & 0x07
		p.NumberOfReturns = (flags >> 3) & 0x07
		p.ScanDirection = ScanDirection((flags >> 6) & 0x01)
		p.Classification = Classification(b[15] & 0x1f)
		p.ScanAngle = float32(int8(b[16]))
		p.PointSourceID = le.Uint16(b[18:])
		p.HasGPSTime = formatHasGPSTime(format)
		if p.HasGPSTime {
			p.GPSTime = math.Float64frombits(le.Uint64(b[20:]))
		} else {
			p.GPSTime = 0
		}
		return
	}
	returns := b[14]
	p.ReturnNumber = returns & 0x0f
	p.NumberOfReturns = returns >> 4
	p.ScanDirection = ScanDirection((b[15] >> 6) & 0x01)
	p.Classification = Classification(b[16])
	p.ScanAngle = float32(int16(le.Uint16(b[18:]))) * 0.006
	p.PointSourceID = le.Uint16(b[20:])
	p.GPSTime = math.Float64frombits(le.Uint64(b[22:]))
	p.HasGPSTime = true
}
