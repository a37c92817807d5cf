package mediatype

import (
	"fmt"
	"strings"
)

// MediaType is a MIME type without parameters, stored lowercased.
type MediaType struct {
	Type    string
	Subtype string
}

// Common media types
var (
	OctetStream    = MediaType{"application", "octet-stream"}
	TextPlain      = MediaType{"text", "plain"}
	PDF            = MediaType{"application", "pdf"}
	Zip            = MediaType{"application", "zip"}
	JPEG           = MediaType{"image", "jpeg"}
	PNG            = MediaType{"image", "png"}
	GIF            = MediaType{"image", "gif"}
	BMP            = MediaType{"image", "bmp"}
	TIFF           = MediaType{"image", "tiff"}
	WebP           = MediaType{"image", "webp"}
	PKCS7Signature = MediaType{"application", "pkcs7-signature"}
	PKCS7MIME      = MediaType{"application", "pkcs7-mime"}
	ASiCE          = MediaType{"application", "vnd.etsi.asic-e+zip"}
	ASiCS          = MediaType{"application", "vnd.etsi.asic-s+zip"}
)

// New returns the media type typ/subtype.
func New(typ, subtype string) MediaType {
	return MediaType{
		Type:    strings.ToLower(strings.TrimSpace(typ)),
		Subtype: strings.ToLower(strings.TrimSpace(subtype)),
	}
}

// Parse parses "type/subtype", ignoring any parameters after ';'.
func Parse(s string) (MediaType, error) {
	if idx := strings.Index(s, ";"); idx >= 0 {
		s = s[:idx]
	}
	typ, subtype, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || typ == "" || subtype == "" || strings.ContainsAny(subtype, "/ ") {
		return MediaType{}, fmt.Errorf("invalid media type %q", s)
	}
	return New(typ, subtype), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) MediaType {
	mt, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return mt
}

func (m MediaType) String() string {
	if m.IsZero() {
		return ""
	}
	return m.Type + "/" + m.Subtype
}

// IsZero reports whether m is the zero MediaType.
func (m MediaType) IsZero() bool {
	return m.Type == "" && m.Subtype == ""
}

// Equal compares two media types case-insensitively.
func (m MediaType) Equal(o MediaType) bool {
	return strings.EqualFold(m.Type, o.Type) && strings.EqualFold(m.Subtype, o.Subtype)
}

// IsImage reports whether m is an image type.
func (m MediaType) IsImage() bool {
	return m.Type == "image"
}

// Category returns a human-readable category for m.
func (m MediaType) Category() string {
	s := m.String()
	switch {
	case m.Type == "image":
		return "image"
	case m.Type == "video":
		return "video"
	case m.Type == "audio":
		return "audio"
	case m.Type == "text":
		return "text"
	case m.Type == "font":
		return "font"
	case m.Equal(PKCS7Signature) || m.Equal(PKCS7MIME) || strings.Contains(m.Subtype, "asic"):
		return "signed"
	case strings.Contains(s, "zip") || strings.Contains(s, "tar") ||
		strings.Contains(s, "rar") || strings.Contains(s, "7z") ||
		strings.Contains(s, "gzip") || strings.Contains(s, "bzip"):
		return "archive"
	case m.Equal(PDF) || strings.Contains(s, "document") ||
		strings.Contains(s, "msword") || strings.Contains(s, "excel") ||
		strings.Contains(s, "powerpoint"):
		return "document"
	default:
		return "other"
	}
}
