package imagecompress

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxResourceDepth bounds Parent chains and nested form XObjects.
const maxResourceDepth = 32

// EmbeddedImageKey identifies one distinct image inside a PDF: its resource
// name plus the object it points to. Direct image streams have no object
// number and are identified by the hash of their raw content instead.
type EmbeddedImageKey struct {
	Name         string
	ObjectNumber int
	Generation   int
	ContentHash  string
}

func (k EmbeddedImageKey) String() string {
	if k.ContentHash != "" {
		return k.Name + "@" + k.ContentHash
	}
	return fmt.Sprintf("%s@%d.%d", k.Name, k.ObjectNumber, k.Generation)
}

// embeddedImage is a distinct image and every resource dictionary naming it.
type embeddedImage struct {
	key        EmbeddedImageKey
	ref        *types.IndirectRef
	stream     *types.StreamDict
	containers []types.Dict
}

type imageCollector struct {
	xrt   *model.XRefTable
	byKey map[EmbeddedImageKey]*embeddedImage
	order []*embeddedImage
	forms map[int]bool
}

// collectImages walks the resources of every page, including nested form
// XObjects, and groups image references by key.
func collectImages(xrt *model.XRefTable) ([]*embeddedImage, error) {
	c := &imageCollector{
		xrt:   xrt,
		byKey: make(map[EmbeddedImageKey]*embeddedImage),
		forms: make(map[int]bool),
	}

	for pageNr := 1; pageNr <= xrt.PageCount; pageNr++ {
		pageDict, _, _, err := xrt.PageDict(pageNr, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		res, err := pageResources(xrt, pageDict)
		if err != nil {
			return nil, fmt.Errorf("page %d resources: %w", pageNr, err)
		}
		if err := c.collect(res, 0); err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
	}
	return c.order, nil
}

// pageResources returns the resource dictionary of a page, following the
// Parent chain for inherited resources.
func pageResources(xrt *model.XRefTable, d types.Dict) (types.Dict, error) {
	for depth := 0; d != nil && depth < maxResourceDepth; depth++ {
		if o, found := d.Find("Resources"); found {
			return xrt.DereferenceDict(o)
		}
		o, found := d.Find("Parent")
		if !found {
			return nil, nil
		}
		var err error
		if d, err = xrt.DereferenceDict(o); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *imageCollector) collect(res types.Dict, depth int) error {
	if res == nil || depth > maxResourceDepth {
		return nil
	}
	o, found := res.Find("XObject")
	if !found {
		return nil
	}
	xobjects, err := c.xrt.DereferenceDict(o)
	if err != nil || xobjects == nil {
		return err
	}

	names := make([]string, 0, len(xobjects))
	for name := range xobjects {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch v := xobjects[name].(type) {
		case types.IndirectRef:
			if err := c.collectRef(name, v, xobjects, depth); err != nil {
				return err
			}
		case *types.IndirectRef:
			if err := c.collectRef(name, *v, xobjects, depth); err != nil {
				return err
			}
		case types.StreamDict:
			if isImage(v.Dict) {
				sd := v
				key := EmbeddedImageKey{
					Name:        name,
					ContentHash: strconv.FormatUint(xxhash.Sum64(sd.Raw), 16),
				}
				c.add(key, nil, &sd, xobjects)
			}
		}
	}
	return nil
}

func (c *imageCollector) collectRef(name string, ref types.IndirectRef, container types.Dict, depth int) error {
	sd, _, err := c.xrt.DereferenceStreamDict(ref)
	if err != nil {
		return fmt.Errorf("xobject %s: %w", name, err)
	}
	if sd == nil {
		return nil
	}

	objNr := ref.ObjectNumber.Value()
	switch {
	case isImage(sd.Dict):
		key := EmbeddedImageKey{
			Name:         name,
			ObjectNumber: objNr,
			Generation:   ref.GenerationNumber.Value(),
		}
		c.add(key, &ref, sd, container)

	case isForm(sd.Dict) && !c.forms[objNr]:
		c.forms[objNr] = true
		if o, found := sd.Dict.Find("Resources"); found {
			res, err := c.xrt.DereferenceDict(o)
			if err != nil {
				return fmt.Errorf("form %s resources: %w", name, err)
			}
			return c.collect(res, depth+1)
		}
	}
	return nil
}

func (c *imageCollector) add(key EmbeddedImageKey, ref *types.IndirectRef, sd *types.StreamDict, container types.Dict) {
	img, ok := c.byKey[key]
	if !ok {
		img = &embeddedImage{key: key, ref: ref, stream: sd}
		c.byKey[key] = img
		c.order = append(c.order, img)
	}
	img.containers = append(img.containers, container)
}

func isImage(d types.Dict) bool {
	st := d.NameEntry("Subtype")
	return st != nil && *st == "Image"
}

func isForm(d types.Dict) bool {
	st := d.NameEntry("Subtype")
	return st != nil && *st == "Form"
}

// replaceImages transforms each distinct image once. An indirect image is
// replaced in the object table, so every container that references the
// object sees the new stream. A direct image gets a new indirect object and
// each container is pointed at it.
func replaceImages(xrt *model.XRefTable, images []*embeddedImage, p Parameters) (pdfReport, error) {
	report := pdfReport{Images: len(images)}
	done := make(map[int]bool)

	for _, img := range images {
		report.References += len(img.containers)

		if img.ref != nil && done[img.key.ObjectNumber] {
			continue
		}

		replacement, ok, err := recompressImage(xrt, img.stream, p)
		if err != nil {
			return report, fmt.Errorf("image %s: %w", img.key, err)
		}
		if !ok {
			report.Skipped++
			continue
		}

		if img.ref != nil {
			entry, found := xrt.Table[img.key.ObjectNumber]
			if !found || entry == nil {
				return report, fmt.Errorf("image %s: object not in xref table", img.key)
			}
			entry.Object = *replacement
			done[img.key.ObjectNumber] = true
		} else {
			ref, err := xrt.IndRefForNewObject(*replacement)
			if err != nil {
				return report, fmt.Errorf("image %s: %w", img.key, err)
			}
			for _, container := range img.containers {
				container[img.key.Name] = *ref
			}
		}
		report.Transformed++
	}
	return report, nil
}

// recompressImage decodes an image stream, fits it within p and encodes it as
// DCT. It reports false for images it cannot or need not rewrite.
func recompressImage(xrt *model.XRefTable, sd *types.StreamDict, p Parameters) (*types.StreamDict, bool, error) {
	for _, key := range []string{"ImageMask", "Mask", "Decode"} {
		if _, found := sd.Dict.Find(key); found {
			return nil, false, nil
		}
	}

	img, err := decodeImage(xrt, sd)
	if err != nil || img == nil {
		return nil, false, err
	}

	b := img.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), p.MaxWidth, p.MaxHeight)
	resized := w != b.Dx() || h != b.Dy()
	if !resized && p.Quality < 0 {
		return nil, false, nil
	}

	out := Resize(img, p)
	colorSpace := "DeviceRGB"
	if _, gray := img.(*image.Gray); gray {
		out = toGray(out)
		colorSpace = "DeviceGray"
	}

	var buf bytes.Buffer
	if err := encodeJPEG(&buf, out, p.Quality); err != nil {
		return nil, false, fmt.Errorf("encode: %w", err)
	}
	if !resized && buf.Len() >= len(sd.Raw) {
		return nil, false, nil
	}

	d := types.Dict{}
	for k, v := range sd.Dict {
		d[k] = v
	}
	delete(d, "DecodeParms")
	delete(d, "DL")
	ob := out.Bounds()
	d["Width"] = types.Integer(ob.Dx())
	d["Height"] = types.Integer(ob.Dy())
	d["BitsPerComponent"] = types.Integer(8)
	d["ColorSpace"] = types.Name(colorSpace)
	d["Filter"] = types.Name("DCTDecode")
	d["Length"] = types.Integer(buf.Len())

	length := int64(buf.Len())
	return &types.StreamDict{
		Dict:           d,
		StreamLength:   &length,
		FilterPipeline: []types.PDFFilter{{Name: "DCTDecode"}},
		Raw:            buf.Bytes(),
	}, true, nil
}

// decodeImage returns nil without error for encodings it does not handle.
func decodeImage(xrt *model.XRefTable, sd *types.StreamDict) (image.Image, error) {
	components, ok := colorComponents(xrt, sd.Dict)
	if !ok {
		return nil, nil
	}

	filters := sd.FilterPipeline
	switch {
	case len(filters) == 0:
		return rawImage(sd.Dict, sd.Raw, components)

	case len(filters) == 1 && filters[0].Name == "DCTDecode":
		img, err := jpeg.Decode(bytes.NewReader(sd.Raw))
		if err != nil {
			return nil, fmt.Errorf("decode dct: %w", err)
		}
		return img, nil

	case len(filters) == 1 && filters[0].Name == "FlateDecode" && !hasPredictor(filters[0].DecodeParms):
		zr, err := zlib.NewReader(bytes.NewReader(sd.Raw))
		if err != nil {
			return nil, fmt.Errorf("decode flate: %w", err)
		}
		defer zr.Close()
		pix, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decode flate: %w", err)
		}
		return rawImage(sd.Dict, pix, components)
	}
	return nil, nil
}

// colorComponents supports the device color spaces and ICC-based spaces
// with one, three or four components.
func colorComponents(xrt *model.XRefTable, d types.Dict) (int, bool) {
	o, found := d.Find("ColorSpace")
	if !found {
		return 0, false
	}
	o, err := xrt.Dereference(o)
	if err != nil {
		return 0, false
	}

	switch cs := o.(type) {
	case types.Name:
		switch cs {
		case "DeviceGray":
			return 1, true
		case "DeviceRGB":
			return 3, true
		case "DeviceCMYK":
			return 4, true
		}
	case types.Array:
		if len(cs) != 2 {
			return 0, false
		}
		if name, ok := cs[0].(types.Name); !ok || name != "ICCBased" {
			return 0, false
		}
		profile, _, err := xrt.DereferenceStreamDict(cs[1])
		if err != nil || profile == nil {
			return 0, false
		}
		if n := profile.Dict.IntEntry("N"); n != nil && (*n == 1 || *n == 3 || *n == 4) {
			return *n, true
		}
	}
	return 0, false
}

func hasPredictor(parms types.Dict) bool {
	if parms == nil {
		return false
	}
	p := parms.IntEntry("Predictor")
	return p != nil && *p > 1
}

// rawImage wraps 8-bit unfiltered samples.
func rawImage(d types.Dict, pix []byte, components int) (image.Image, error) {
	w, h, bpc := d.IntEntry("Width"), d.IntEntry("Height"), d.IntEntry("BitsPerComponent")
	if w == nil || h == nil || bpc == nil || *bpc != 8 || *w <= 0 || *h <= 0 {
		return nil, nil
	}

	need := *w * *h * components
	if len(pix) < need {
		return nil, fmt.Errorf("image data too short: %d bytes, want %d", len(pix), need)
	}
	rect := image.Rect(0, 0, *w, *h)

	switch components {
	case 1:
		return &image.Gray{Pix: pix[:need], Stride: *w, Rect: rect}, nil
	case 3:
		img := image.NewRGBA(rect)
		for i, j := 0, 0; i < need; i, j = i+3, j+4 {
			copy(img.Pix[j:j+3], pix[i:i+3])
			img.Pix[j+3] = 0xff
		}
		return img, nil
	case 4:
		return &image.CMYK{Pix: pix[:need], Stride: *w * 4, Rect: rect}, nil
	}
	return nil, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}
