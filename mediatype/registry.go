package mediatype

import (
	"path/filepath"
	"strings"
)

// Registry maps media types to the file extensions accepted for them and
// records which types correspond to each other.
//
// A Registry is built once and then only read; it is safe for concurrent
// reads.
type Registry struct {
	extensions  map[MediaType][]string
	byExtension map[string]MediaType
	corresponds map[MediaType][]MediaType
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		extensions:  make(map[MediaType][]string),
		byExtension: make(map[string]MediaType),
		corresponds: make(map[MediaType][]MediaType),
	}
}

// Register adds extensions for mt. The first extension ever registered for a
// type is its canonical extension. An extension maps back to the first type
// that registered it.
func (r *Registry) Register(mt MediaType, exts ...string) *Registry {
	for _, ext := range exts {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		r.extensions[mt] = append(r.extensions[mt], ext)
		if _, exists := r.byExtension[ext]; !exists {
			r.byExtension[ext] = mt
		}
	}
	return r
}

// Correspond records that content sniffed as generic may legitimately be of
// type specific, e.g. a zip container that is really a signed archive.
func (r *Registry) Correspond(generic MediaType, specific ...MediaType) *Registry {
	r.corresponds[generic] = append(r.corresponds[generic], specific...)
	return r
}

// Extensions returns the extensions accepted for mt, canonical first.
func (r *Registry) Extensions(mt MediaType) []string {
	exts := r.extensions[mt]
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// CanonicalExtension returns the preferred extension for mt, or "".
func (r *Registry) CanonicalExtension(mt MediaType) string {
	if exts := r.extensions[mt]; len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// ForExtension looks up the media type registered for ext.
func (r *Registry) ForExtension(ext string) (MediaType, bool) {
	mt, ok := r.byExtension[normalizeExt(ext)]
	return mt, ok
}

// ForFilename looks up the media type for the extension of name.
func (r *Registry) ForFilename(name string) (MediaType, bool) {
	return r.ForExtension(filepath.Ext(name))
}

// Corresponds reports whether a and b are the same type or one is recorded as
// corresponding to the other.
func (r *Registry) Corresponds(a, b MediaType) bool {
	if a.Equal(b) {
		return true
	}
	for _, mt := range r.corresponds[a] {
		if mt.Equal(b) {
			return true
		}
	}
	for _, mt := range r.corresponds[b] {
		if mt.Equal(a) {
			return true
		}
	}
	return false
}

// Accepts reports whether filename carries an extension accepted for mt or for
// a type corresponding to mt.
func (r *Registry) Accepts(mt MediaType, filename string) bool {
	ext := normalizeExt(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, e := range r.extensions[mt] {
		if e == ext {
			return true
		}
	}
	for _, other := range r.corresponds[mt] {
		for _, e := range r.extensions[other] {
			if e == ext {
				return true
			}
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// DefaultRegistry returns a new Registry filled with common document, image,
// archive and signature types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range defaultExtensions {
		r.Register(e.mediaType, e.exts...)
	}
	r.Correspond(OctetStream, ASiCE, ASiCS, PKCS7Signature, PKCS7MIME)
	r.Correspond(Zip, ASiCE, ASiCS)
	return r
}

var defaultRegistry = DefaultRegistry()

var defaultExtensions = []struct {
	mediaType MediaType
	exts      []string
}{
	// Signatures
	{PKCS7Signature, []string{".p7s"}},
	{PKCS7MIME, []string{".p7m", ".p7c"}},
	{ASiCE, []string{".asice", ".sce", ".bdoc"}},
	{ASiCS, []string{".asics", ".scs"}},

	// Images
	{JPEG, []string{".jpg", ".jpeg", ".jpe"}},
	{PNG, []string{".png"}},
	{GIF, []string{".gif"}},
	{BMP, []string{".bmp"}},
	{TIFF, []string{".tif", ".tiff"}},
	{WebP, []string{".webp"}},
	{MediaType{"image", "svg+xml"}, []string{".svg"}},
	{MediaType{"image", "heic"}, []string{".heic"}},
	{MediaType{"image", "avif"}, []string{".avif"}},
	{MediaType{"image", "x-icon"}, []string{".ico"}},

	// Documents
	{PDF, []string{".pdf"}},
	{TextPlain, []string{".txt", ".text", ".log"}},
	{MediaType{"text", "csv"}, []string{".csv"}},
	{MediaType{"text", "markdown"}, []string{".md"}},
	{MediaType{"text", "html"}, []string{".html", ".htm"}},
	{MediaType{"application", "json"}, []string{".json"}},
	{MediaType{"application", "xml"}, []string{".xml"}},
	{MediaType{"application", "rtf"}, []string{".rtf"}},
	{MediaType{"application", "msword"}, []string{".doc"}},
	{MediaType{"application", "vnd.openxmlformats-officedocument.wordprocessingml.document"}, []string{".docx"}},
	{MediaType{"application", "vnd.ms-excel"}, []string{".xls"}},
	{MediaType{"application", "vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, []string{".xlsx"}},
	{MediaType{"application", "vnd.ms-powerpoint"}, []string{".ppt"}},
	{MediaType{"application", "vnd.openxmlformats-officedocument.presentationml.presentation"}, []string{".pptx"}},
	{MediaType{"application", "vnd.oasis.opendocument.text"}, []string{".odt"}},

	// Archives
	{Zip, []string{".zip"}},
	{MediaType{"application", "gzip"}, []string{".gz"}},
	{MediaType{"application", "x-tar"}, []string{".tar"}},
	{MediaType{"application", "x-7z-compressed"}, []string{".7z"}},
	{MediaType{"application", "x-rar-compressed"}, []string{".rar"}},

	// Audio and video
	{MediaType{"audio", "mpeg"}, []string{".mp3"}},
	{MediaType{"audio", "ogg"}, []string{".ogg"}},
	{MediaType{"audio", "wav"}, []string{".wav"}},
	{MediaType{"video", "mp4"}, []string{".mp4"}},
	{MediaType{"video", "webm"}, []string{".webm"}},
	{MediaType{"video", "quicktime"}, []string{".mov"}},
}
