package mediatype

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"strings"
)

// Signature is a magic-byte pattern at a fixed offset.
type Signature struct {
	MediaType MediaType
	Offset    int
	Magic     []byte
}

// signatures is ordered by specificity, most specific first.
var signatures = []Signature{
	// Images
	{JPEG, 0, []byte{0xFF, 0xD8, 0xFF}},
	{PNG, 0, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{GIF, 0, []byte("GIF87a")},
	{GIF, 0, []byte("GIF89a")},
	{WebP, 8, []byte("WEBP")},
	{TIFF, 0, []byte{0x49, 0x49, 0x2A, 0x00}},
	{TIFF, 0, []byte{0x4D, 0x4D, 0x00, 0x2A}},
	{MediaType{"image", "x-icon"}, 0, []byte{0x00, 0x00, 0x01, 0x00}},
	{MediaType{"image", "heic"}, 4, []byte("ftypheic")},
	{MediaType{"image", "heic"}, 4, []byte("ftypmif1")},
	{MediaType{"image", "avif"}, 4, []byte("ftypavif")},
	{BMP, 0, []byte("BM")},

	// Documents and signatures
	{PDF, 0, []byte("%PDF-")},
	{PKCS7Signature, 0, []byte("-----BEGIN PKCS7-----")},
	{PKCS7Signature, 0, []byte("-----BEGIN CMS-----")},

	// Archives
	{Zip, 0, []byte{0x50, 0x4B, 0x03, 0x04}},
	{Zip, 0, []byte{0x50, 0x4B, 0x05, 0x06}},
	{Zip, 0, []byte{0x50, 0x4B, 0x07, 0x08}},
	{MediaType{"application", "gzip"}, 0, []byte{0x1F, 0x8B}},
	{MediaType{"application", "x-tar"}, 257, []byte("ustar")},
	{MediaType{"application", "x-rar-compressed"}, 0, []byte("Rar!\x1a\x07\x00")},
	{MediaType{"application", "x-rar-compressed"}, 0, []byte("Rar!\x1a\x07\x01\x00")},
	{MediaType{"application", "x-7z-compressed"}, 0, []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}},
	{MediaType{"application", "x-bzip2"}, 0, []byte("BZh")},
	{MediaType{"application", "x-xz"}, 0, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},

	// Audio and video
	{MediaType{"audio", "mpeg"}, 0, []byte("ID3")},
	{MediaType{"audio", "flac"}, 0, []byte("fLaC")},
	{MediaType{"audio", "ogg"}, 0, []byte("OggS")},
	{MediaType{"audio", "wav"}, 0, []byte("RIFF")},
	{MediaType{"video", "webm"}, 0, []byte{0x1A, 0x45, 0xDF, 0xA3}},
	{MediaType{"video", "mp4"}, 4, []byte("ftyp")},
	{MediaType{"video", "quicktime"}, 4, []byte("moov")},

	// Markup
	{MediaType{"application", "xml"}, 0, []byte("<?xml")},
	{MediaType{"text", "html"}, 0, []byte("<!DOCTYPE html")},
	{MediaType{"text", "html"}, 0, []byte("<!doctype html")},
	{MediaType{"text", "html"}, 0, []byte("<html")},
}

// pkcs7SignedData is the DER encoding of OID 1.2.840.113549.1.7.2.
var pkcs7SignedData = []byte{0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x02}

// DetectBytes classifies data by its leading bytes. It never consults a
// filename and returns OctetStream when nothing matches.
func DetectBytes(data []byte) MediaType {
	if len(data) == 0 {
		return OctetStream
	}

	if isPKCS7SignedData(data) {
		return PKCS7Signature
	}

	if mt, ok := detectByMagic(data); ok {
		return refine(data, mt)
	}

	contentType := http.DetectContentType(data)
	mt, err := Parse(contentType)
	if err != nil {
		return OctetStream
	}
	return mt
}

func detectByMagic(data []byte) (MediaType, bool) {
	for _, sig := range signatures {
		if sig.Offset+len(sig.Magic) > len(data) {
			continue
		}
		if bytes.Equal(data[sig.Offset:sig.Offset+len(sig.Magic)], sig.Magic) {
			return sig.MediaType, true
		}
	}
	return MediaType{}, false
}

// isPKCS7SignedData recognises a DER SEQUENCE whose first element is the
// signed-data content type OID.
func isPKCS7SignedData(data []byte) bool {
	if len(data) < 2 || data[0] != 0x30 {
		return false
	}

	var offset int
	switch l := data[1]; {
	case l < 0x80:
		offset = 2
	case l == 0x80:
		// indefinite length (BER)
		offset = 2
	case l <= 0x84:
		offset = 2 + int(l&0x7F)
	default:
		return false
	}

	if len(data) < offset+len(pkcs7SignedData) {
		return false
	}
	return bytes.Equal(data[offset:offset+len(pkcs7SignedData)], pkcs7SignedData)
}

// refine handles formats that share leading bytes.
func refine(data []byte, mt MediaType) MediaType {
	switch mt {
	case MediaType{"audio", "wav"}:
		if len(data) >= 12 {
			switch string(data[8:12]) {
			case "WAVE":
				return mt
			case "AVI ":
				return MediaType{"video", "x-msvideo"}
			case "WEBP":
				return WebP
			}
		}
		return mt

	case Zip:
		// ASiC containers store their media type uncompressed in the first
		// entry, named "mimetype"
		if content, ok := zipMimetypeEntry(data); ok {
			switch {
			case strings.HasPrefix(content, ASiCE.String()):
				return ASiCE
			case strings.HasPrefix(content, ASiCS.String()):
				return ASiCS
			}
		}
		content := string(data)
		switch {
		case strings.Contains(content, "word/"):
			return MediaType{"application", "vnd.openxmlformats-officedocument.wordprocessingml.document"}
		case strings.Contains(content, "xl/"):
			return MediaType{"application", "vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
		case strings.Contains(content, "ppt/"):
			return MediaType{"application", "vnd.openxmlformats-officedocument.presentationml.presentation"}
		}
		return mt

	case MediaType{"video", "mp4"}:
		if len(data) >= 12 {
			switch string(data[8:12]) {
			case "M4A ":
				return MediaType{"audio", "mp4"}
			case "qt  ":
				return MediaType{"video", "quicktime"}
			case "3gp4", "3gp5", "3gp6":
				return MediaType{"video", "3gpp"}
			}
		}
		return mt

	default:
		return mt
	}
}

// zipMimetypeEntry returns the stored content of a leading zip entry named
// "mimetype".
func zipMimetypeEntry(data []byte) (string, bool) {
	const headerLen = 30
	if len(data) < headerLen {
		return "", false
	}
	nameLen := int(binary.LittleEndian.Uint16(data[26:28]))
	extraLen := int(binary.LittleEndian.Uint16(data[28:30]))
	start := headerLen + nameLen + extraLen
	if nameLen != 8 || len(data) < start || string(data[headerLen:headerLen+nameLen]) != "mimetype" {
		return "", false
	}
	return string(data[start:]), true
}
