package crs

import (
	"bytes"
	"strings"

	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/las"
)

// Policy decides what Resolve does when a file carries more than one
// WKT record.
type Policy int

const (
	// PolicyError fails when WKT records disagree. Records that Same
	// reports as one CRS are accepted.
	PolicyError Policy = iota
	// PolicyLastWins takes the last WKT record scanned.
	PolicyLastWins
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return PolicyError, nil
	case "last", "last-wins":
		return PolicyLastWins, nil
	}
	return 0, fmtErr("unknown conflict policy %q", s)
}

func (p Policy) String() string {
	if p == PolicyLastWins {
		return "last"
	}
	return "error"
}

// IsWKTRecord reports whether a header record holds a WKT CRS.
func IsWKTRecord(v las.VLR) bool {
	return strings.Contains(v.Description, "WKT") ||
		v.UserID == "LASF_Projection" && v.RecordID == 2112
}

// Resolve scans the header records, VLRs before EVLRs, for WKT CRS
// payloads. It returns nil without error when there are none. Every
// failure carries errkind.ErrCRSDecode.
func Resolve(h *las.Header, policy Policy) (*CRS, error) {
	var found *CRS
	for i, v := range h.VLRs {
		if !IsWKTRecord(v) {
			continue
		}
		c, err := FromWKT(v.Data)
		if err != nil {
			return nil, errkind.Wrapf(errkind.ErrCRSDecode, err, "record %d (%s/%d)", i, v.UserID, v.RecordID)
		}
		if found != nil && !Same(found, c) && policy == PolicyError {
			return nil, errkind.Wrapf(errkind.ErrCRSDecode, ErrConflict, "record %d (%s/%d) disagrees with %q",
				i, v.UserID, v.RecordID, found.Name)
		}
		found = c
	}
	return found, nil
}

// Same reports whether a and b describe the same CRS. Two records
// agree when they carry the same authority code, or when their WKT
// converts to identical PROJJSON, so a WKT1 and a WKT2 rendering of one
// system do not conflict.
func Same(a, b *CRS) bool {
	if a.WKT == b.WKT {
		return true
	}
	if a.Org != "" && strings.EqualFold(a.Org, b.Org) {
		return a.Code == b.Code && a.CodeString == b.CodeString
	}
	return bytes.Equal(a.ProjJSON, b.ProjJSON)
}
