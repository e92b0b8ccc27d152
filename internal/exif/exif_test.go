package exif

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// rational is a numerator/denominator pair as stored on disk.
type rational struct {
	num, den uint32
}

// testImage describes a synthetic JPEG with an EXIF APP1 segment.
type testImage struct {
	order    binary.ByteOrder
	dateTime string
	latRef   string
	lonRef   string
	lat      []rational
	lon      []rational
}

func (img testImage) hasGPS() bool {
	return len(img.lat) > 0 || len(img.lon) > 0
}

// buildTIFF lays out: header, IFD0, DateTimeOriginal string, GPS IFD,
// rational data. Offsets are computed from section sizes before writing.
func buildTIFF(t *testing.T, img testImage) []byte {
	t.Helper()

	order := img.order
	if order == nil {
		order = binary.LittleEndian
	}

	ifd0Count := 0
	if img.dateTime != "" {
		ifd0Count++
	}
	if img.hasGPS() {
		ifd0Count++
	}

	headerSize := 8
	ifd0Size := 2 + ifd0Count*12 + 4
	dateSize := 0
	if img.dateTime != "" {
		dateSize = 20
	}
	gpsCount := 0
	if img.latRef != "" {
		gpsCount++
	}
	if img.lonRef != "" {
		gpsCount++
	}
	if len(img.lat) > 0 {
		gpsCount++
	}
	if len(img.lon) > 0 {
		gpsCount++
	}
	gpsSize := 0
	if img.hasGPS() {
		gpsSize = 2 + gpsCount*12 + 4
	}

	dateOffset := headerSize + ifd0Size
	gpsOffset := dateOffset + dateSize
	latDataOffset := gpsOffset + gpsSize
	lonDataOffset := latDataOffset + len(img.lat)*8

	buf := &bytes.Buffer{}
	u16 := func(v uint16) {
		if err := binary.Write(buf, order, v); err != nil {
			t.Fatalf("write u16: %v", err)
		}
	}
	u32 := func(v uint32) {
		if err := binary.Write(buf, order, v); err != nil {
			t.Fatalf("write u32: %v", err)
		}
	}

	if order == binary.LittleEndian {
		buf.WriteString("II")
	} else {
		buf.WriteString("MM")
	}
	u16(42)
	u32(8)

	// IFD0
	u16(uint16(ifd0Count))
	if img.dateTime != "" {
		u16(tagDateTimeOriginal)
		u16(2) // ASCII
		u32(20)
		u32(uint32(dateOffset))
	}
	if img.hasGPS() {
		u16(tagGPSIFDPointer)
		u16(4) // LONG
		u32(1)
		u32(uint32(gpsOffset))
	}
	u32(0) // next IFD

	if img.dateTime != "" {
		raw := make([]byte, 20)
		copy(raw, img.dateTime)
		buf.Write(raw)
	}

	if img.hasGPS() {
		u16(uint16(gpsCount))
		if img.latRef != "" {
			u16(gpsTagLatitudeRef)
			u16(2)
			u32(2)
			ref := make([]byte, 4)
			copy(ref, img.latRef)
			buf.Write(ref)
		}
		if len(img.lat) > 0 {
			u16(gpsTagLatitude)
			u16(5) // RATIONAL
			u32(3)
			u32(uint32(latDataOffset))
		}
		if img.lonRef != "" {
			u16(gpsTagLongitudeRef)
			u16(2)
			u32(2)
			ref := make([]byte, 4)
			copy(ref, img.lonRef)
			buf.Write(ref)
		}
		if len(img.lon) > 0 {
			u16(gpsTagLongitude)
			u16(5)
			u32(3)
			u32(uint32(lonDataOffset))
		}
		u32(0)

		for _, r := range img.lat {
			u32(r.num)
			u32(r.den)
		}
		for _, r := range img.lon {
			u32(r.num)
			u32(r.den)
		}
	}

	return buf.Bytes()
}

func buildJPEG(t *testing.T, img testImage) []byte {
	t.Helper()

	tiff := buildTIFF(t, img)
	buf := &bytes.Buffer{}
	buf.Write([]byte{0xFF, 0xD8})
	// Dummy APP0 ahead of APP1 to exercise the marker scan.
	buf.Write([]byte{0xFF, 0xE0, 0x00, 0x06, 'J', 'F', 'I', 'F'})
	payload := append([]byte("Exif\x00\x00"), tiff...)
	buf.Write([]byte{0xFF, 0xE1})
	length := uint16(2 + len(payload))
	buf.Write([]byte{byte(length >> 8), byte(length)})
	buf.Write(payload)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func degrees(d, m, s uint32) []rational {
	return []rational{{d, 1}, {m, 1}, {s, 1}}
}

func assertNearNow(t *testing.T, ts time.Time) {
	t.Helper()
	if diff := time.Since(ts); diff < -5*time.Second || diff > 5*time.Second {
		t.Fatalf("expected timestamp near now, got %v", ts)
	}
}

func TestExtractNonJPEGFallsBack(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("definitely not a jpeg"), {0xFF, 0xD8}} {
		meta := Extract(data)
		assertNearNow(t, meta.Timestamp)
		if meta.HasCoordinates() {
			t.Fatalf("expected no coordinates for %q", data)
		}
	}
}

func TestExtractDateTimeOriginal(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		jpeg := buildJPEG(t, testImage{order: order, dateTime: "2026:01:15 09:30:00"})
		meta := Extract(jpeg)

		want := time.Date(2026, 1, 15, 9, 30, 0, 0, time.Local)
		if !meta.Timestamp.Equal(want) {
			t.Fatalf("%v: expected %v, got %v", order, want, meta.Timestamp)
		}
		if meta.HasCoordinates() {
			t.Fatal("expected no coordinates without a GPS IFD")
		}
	}
}

func TestExtractCoordinates(t *testing.T) {
	jpeg := buildJPEG(t, testImage{
		dateTime: "2026:01:15 09:30:00",
		latRef:   "N",
		lonRef:   "W",
		lat:      degrees(37, 33, 0),
		lon:      degrees(122, 24, 0),
	})
	meta := Extract(jpeg)

	if !meta.HasCoordinates() {
		t.Fatal("expected coordinates")
	}
	if math.Abs(*meta.Latitude-37.55) > 1e-9 {
		t.Fatalf("expected latitude 37.55, got %v", *meta.Latitude)
	}
	if math.Abs(*meta.Longitude-(-122.4)) > 1e-9 {
		t.Fatalf("expected longitude -122.4, got %v", *meta.Longitude)
	}
}

func TestExtractSouthernHemisphere(t *testing.T) {
	jpeg := buildJPEG(t, testImage{
		latRef: "S",
		lonRef: "E",
		lat:    degrees(37, 33, 0),
		lon:    degrees(144, 58, 0),
	})
	meta := Extract(jpeg)

	if !meta.HasCoordinates() {
		t.Fatal("expected coordinates")
	}
	if math.Abs(*meta.Latitude-(-37.55)) > 1e-9 {
		t.Fatalf("expected latitude -37.55, got %v", *meta.Latitude)
	}
	if *meta.Longitude <= 0 {
		t.Fatalf("expected positive longitude, got %v", *meta.Longitude)
	}
}

func TestExtractZeroDenominatorRational(t *testing.T) {
	jpeg := buildJPEG(t, testImage{
		latRef: "N",
		lonRef: "E",
		lat:    []rational{{37, 1}, {30, 0}, {0, 1}}, // minutes have zero denominator
		lon:    degrees(10, 0, 0),
	})
	meta := Extract(jpeg)

	if !meta.HasCoordinates() {
		t.Fatal("expected coordinates")
	}
	if math.Abs(*meta.Latitude-37.0) > 1e-9 {
		t.Fatalf("expected zero-denominator minutes to contribute 0, got %v", *meta.Latitude)
	}
}

func TestExtractMalformedDateKeepsCoordinates(t *testing.T) {
	jpeg := buildJPEG(t, testImage{
		dateTime: "not a date at all!",
		latRef:   "N",
		lonRef:   "E",
		lat:      degrees(51, 30, 0),
		lon:      degrees(0, 7, 0),
	})
	meta := Extract(jpeg)

	assertNearNow(t, meta.Timestamp)
	if !meta.HasCoordinates() {
		t.Fatal("expected coordinates despite malformed date")
	}
}

func TestExtractNULTerminatedDate(t *testing.T) {
	jpeg := buildJPEG(t, testImage{dateTime: "2026:03:02 18:04:59\x00"})
	meta := Extract(jpeg)

	want := time.Date(2026, 3, 2, 18, 4, 59, 0, time.Local)
	if !meta.Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, meta.Timestamp)
	}
}

func TestExtractTruncatedSegment(t *testing.T) {
	jpeg := buildJPEG(t, testImage{
		dateTime: "2026:01:15 09:30:00",
		latRef:   "N",
		lonRef:   "E",
		lat:      degrees(37, 33, 0),
		lon:      degrees(122, 24, 0),
	})

	// Cutting anywhere inside the file must never panic.
	for cut := 0; cut < len(jpeg); cut += 7 {
		meta := Extract(jpeg[:cut])
		if meta.Timestamp.IsZero() {
			t.Fatalf("cut %d: expected non-zero fallback timestamp", cut)
		}
	}
}

func TestExtractBadExifIdentifier(t *testing.T) {
	jpeg := buildJPEG(t, testImage{dateTime: "2026:01:15 09:30:00"})
	idx := bytes.Index(jpeg, []byte("Exif\x00\x00"))
	if idx < 0 {
		t.Fatal("identifier not found in synthetic jpeg")
	}
	jpeg[idx] = 'X'

	meta := Extract(jpeg)
	assertNearNow(t, meta.Timestamp)
	if meta.HasCoordinates() {
		t.Fatal("expected no coordinates")
	}
}

func TestReaderBounds(t *testing.T) {
	r := reader{buf: []byte{1, 2, 3}, order: binary.LittleEndian}

	if _, err := r.u16(2); err == nil {
		t.Fatal("expected out-of-range u16 to fail")
	}
	if _, err := r.u32(0); err == nil {
		t.Fatal("expected out-of-range u32 to fail")
	}
	if _, err := r.bytes(-1, 2); err == nil {
		t.Fatal("expected negative offset to fail")
	}
	if v, err := r.u16(0); err != nil || v != 0x0201 {
		t.Fatalf("expected little-endian read 0x0201, got %#x err %v", v, err)
	}
}

func TestDMSConversion(t *testing.T) {
	cases := []struct {
		dms      [3]float64
		negative bool
		want     float64
	}{
		{[3]float64{37, 33, 0}, false, 37.55},
		{[3]float64{37, 33, 0}, true, -37.55},
		{[3]float64{0, 0, 0}, false, 0},
		{[3]float64{122, 24, 36}, false, 122.41},
	}
	for _, tc := range cases {
		got := dmsToDecimal(tc.dms, tc.negative)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("dmsToDecimal(%v, %v) = %v, want %v", tc.dms, tc.negative, got, tc.want)
		}
	}
}
