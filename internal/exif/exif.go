package exif

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"
)

// Metadata is the best-effort capture metadata decoded from a photo.
// Latitude and Longitude are nil when the photo carries no usable GPS block.
type Metadata struct {
	Timestamp time.Time
	Latitude  *float64
	Longitude *float64
}

// HasCoordinates reports whether both coordinates were decoded.
func (m Metadata) HasCoordinates() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// TimestampISO renders the capture time as an ISO-8601 string for payloads.
func (m Metadata) TimestampISO() string {
	return m.Timestamp.Format(time.RFC3339)
}

const (
	markerSOI  = 0xFFD8
	markerAPP1 = 0xFFE1

	tagDateTimeOriginal = 0x9003
	tagGPSIFDPointer    = 0x8825

	gpsTagLatitudeRef  = 0x0001
	gpsTagLatitude     = 0x0002
	gpsTagLongitudeRef = 0x0003
	gpsTagLongitude    = 0x0004

	// DateTimeOriginal layout: "YYYY:MM:DD HH:mm:ss", local calendar fields.
	dateTimeLayout = "2006:01:02 15:04:05"
	dateTimeLength = 19
)

var exifIdentifier = []byte("Exif\x00\x00")

// Extract decodes capture time and GPS position from raw JPEG bytes. It
// never fails: anything unreadable degrades to the current time with no
// coordinates. Clock skew on the capturing device is irrelevant here; the
// embedded EXIF timestamp is authoritative when present.
func Extract(data []byte) Metadata {
	meta := Metadata{Timestamp: time.Now()}

	tiff, err := findExifSegment(data)
	if err != nil {
		return meta
	}
	parseTIFF(tiff, &meta)
	return meta
}

// findExifSegment scans JPEG markers until it reaches an APP1 segment with
// the EXIF identifier and returns the enclosed TIFF block.
func findExifSegment(data []byte) ([]byte, error) {
	if len(data) < 4 || binary.BigEndian.Uint16(data) != markerSOI {
		return nil, errMalformed
	}

	pos := 2
	for pos+4 <= len(data) {
		marker := binary.BigEndian.Uint16(data[pos:])
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		if length < 2 {
			return nil, errMalformed
		}
		segmentEnd := pos + 2 + length
		if segmentEnd > len(data) {
			return nil, errMalformed
		}
		if marker == markerAPP1 {
			payload := data[pos+4 : segmentEnd]
			if !bytes.HasPrefix(payload, exifIdentifier) {
				return nil, errMalformed
			}
			return payload[len(exifIdentifier):], nil
		}
		pos = segmentEnd
	}
	return nil, errMalformed
}

// parseTIFF walks the first IFD of the TIFF block, filling meta in place.
// Per-tag decode failures leave that field at its fallback value; only
// structural failures abandon the walk entirely.
func parseTIFF(tiff []byte, meta *Metadata) {
	r, err := newTIFFReader(tiff)
	if err != nil {
		return
	}

	ifdOffset, err := r.u32(4)
	if err != nil {
		return
	}

	count, err := r.u16(int(ifdOffset))
	if err != nil {
		return
	}

	for i := 0; i < int(count); i++ {
		entry := int(ifdOffset) + 2 + i*12
		tag, err := r.u16(entry)
		if err != nil {
			return
		}
		switch tag {
		case tagDateTimeOriginal:
			if ts, err := readDateTime(r, entry); err == nil {
				meta.Timestamp = ts
			}
		case tagGPSIFDPointer:
			if gpsOffset, err := r.u32(entry + 8); err == nil {
				parseGPSIFD(r, int(gpsOffset), meta)
			}
		}
	}
}

func newTIFFReader(tiff []byte) (reader, error) {
	if len(tiff) < 8 {
		return reader{}, errMalformed
	}
	switch binary.BigEndian.Uint16(tiff) {
	case 0x4949: // "II"
		return reader{buf: tiff, order: binary.LittleEndian}, nil
	case 0x4D4D: // "MM"
		return reader{buf: tiff, order: binary.BigEndian}, nil
	default:
		return reader{}, errMalformed
	}
}

// readDateTime resolves a DateTimeOriginal entry. The 19-byte ASCII value is
// always stored out of line; an early NUL terminator is tolerated.
func readDateTime(r reader, entry int) (time.Time, error) {
	valueOffset, err := r.u32(entry + 8)
	if err != nil {
		return time.Time{}, err
	}
	raw, err := r.bytes(int(valueOffset), dateTimeLength)
	if err != nil {
		return time.Time{}, err
	}
	text := string(raw)
	if idx := strings.IndexByte(text, 0); idx >= 0 {
		text = text[:idx]
	}
	ts, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(text), time.Local)
	if err != nil {
		return time.Time{}, errMalformed
	}
	return ts, nil
}

// parseGPSIFD collects the latitude/longitude refs and DMS triples from a
// GPS sub-IFD sharing the parent's byte order.
func parseGPSIFD(r reader, offset int, meta *Metadata) {
	count, err := r.u16(offset)
	if err != nil {
		return
	}

	var (
		latRef, lonRef string
		lat, lon       [3]float64
		latOK, lonOK   bool
	)

	for i := 0; i < int(count); i++ {
		entry := offset + 2 + i*12
		tag, err := r.u16(entry)
		if err != nil {
			return
		}
		switch tag {
		case gpsTagLatitudeRef:
			latRef = readInlineASCII(r, entry)
		case gpsTagLongitudeRef:
			lonRef = readInlineASCII(r, entry)
		case gpsTagLatitude:
			if triple, err := readDMS(r, entry); err == nil {
				lat, latOK = triple, true
			}
		case gpsTagLongitude:
			if triple, err := readDMS(r, entry); err == nil {
				lon, lonOK = triple, true
			}
		}
	}

	if latOK {
		value := dmsToDecimal(lat, latRef == "S")
		meta.Latitude = &value
	}
	if lonOK {
		value := dmsToDecimal(lon, lonRef == "W")
		meta.Longitude = &value
	}
}

// readInlineASCII reads a 2-byte ASCII value ("N\0" etc.) stored inline in
// the entry's value field. Inline ASCII bytes are not endian-swapped.
func readInlineASCII(r reader, entry int) string {
	raw, err := r.bytes(entry+8, 1)
	if err != nil {
		return ""
	}
	return string(raw)
}

// readDMS reads the out-of-line degrees/minutes/seconds rational triple.
func readDMS(r reader, entry int) ([3]float64, error) {
	valueOffset, err := r.u32(entry + 8)
	if err != nil {
		return [3]float64{}, err
	}
	var triple [3]float64
	for i := range triple {
		value, err := r.rational(int(valueOffset) + i*8)
		if err != nil {
			return [3]float64{}, err
		}
		triple[i] = value
	}
	return triple, nil
}

// dmsToDecimal converts degrees/minutes/seconds to signed decimal degrees.
func dmsToDecimal(dms [3]float64, negative bool) float64 {
	decimal := dms[0] + dms[1]/60 + dms[2]/3600
	if negative {
		return -decimal
	}
	return decimal
}
