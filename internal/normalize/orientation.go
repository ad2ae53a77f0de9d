package normalize

import (
	"bytes"
	"encoding/binary"
)

const (
	orientationTag = 0x0112
	markerSOS      = 0xDA
	markerEOI      = 0xD9
	markerAPP1     = 0xE1
)

var exifHeader = []byte("Exif\x00\x00")

// orientation returns the EXIF orientation (1-8) of a JPEG, or 1 when the
// source is not a JPEG or carries no usable tag.
func orientation(source []byte) int {
	if len(source) < 4 || source[0] != 0xFF || source[1] != 0xD8 {
		return 1
	}
	for i := 2; i+4 <= len(source); {
		if source[i] != 0xFF {
			return 1
		}
		marker := source[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			return 1
		}
		size := int(binary.BigEndian.Uint16(source[i+2 : i+4]))
		if size < 2 || i+2+size > len(source) {
			return 1
		}
		segment := source[i+4 : i+2+size]
		if marker == markerAPP1 && bytes.HasPrefix(segment, exifHeader) {
			return tiffOrientation(segment[len(exifHeader):])
		}
		i += 2 + size
	}
	return 1
}

func tiffOrientation(tiff []byte) int {
	if len(tiff) < 8 {
		return 1
	}
	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 1
	}
	if order.Uint16(tiff[2:4]) != 42 {
		return 1
	}

	ifd := int(order.Uint32(tiff[4:8]))
	if ifd < 8 || ifd+2 > len(tiff) {
		return 1
	}
	count := int(order.Uint16(tiff[ifd : ifd+2]))
	for n := range count {
		entry := ifd + 2 + n*12
		if entry+12 > len(tiff) {
			return 1
		}
		if order.Uint16(tiff[entry:entry+2]) != orientationTag {
			continue
		}
		if v := int(order.Uint16(tiff[entry+8 : entry+10])); v >= 1 && v <= 8 {
			return v
		}
		return 1
	}
	return 1
}

// swapsAxes reports whether displaying an image with orientation o turns it
// by a quarter, so its upright width is its stored height.
func swapsAxes(o int) bool {
	return o >= 5 && o <= 8
}
