package imagecompress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gobeaver/ingestkit/mediatype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

func init() {
	// pdfcpu would otherwise create a configuration directory on first use.
	api.DisableConfigDir()
}

// PDFCompressor re-encodes the raster images embedded in a PDF. Documents it
// cannot process are returned unchanged.
type PDFCompressor struct {
	base
}

// NewPDFCompressor returns a compressor for PDF documents.
func NewPDFCompressor(opts ...CompressorOption) *PDFCompressor {
	return &PDFCompressor{
		base: base{
			settings:  newSettings(opts),
			supported: []mediatype.MediaType{mediatype.PDF},
		},
	}
}

// Compress shrinks every distinct embedded image once. Parse and processing
// failures are logged and the original bytes are returned; only a failure to
// read r is reported as an error.
func (c *PDFCompressor) Compress(filename string, r io.Reader, opts ...Option) (io.Reader, error) {
	p := c.defaults.Resolve(opts...)
	if p.IsIdentity() {
		return r, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &CompressionError{Filename: filename, Op: "read", Err: err}
	}

	out, report, err := c.compressDocument(data, p)
	if err != nil {
		c.logger.Warn("pdf image compression failed, keeping original",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return bytes.NewReader(data), nil
	}

	c.logger.Debug("pdf images compressed",
		zap.String("filename", filename),
		zap.Int("images", report.Images),
		zap.Int("references", report.References),
		zap.Int("transformed", report.Transformed),
		zap.Int("skipped", report.Skipped),
		zap.Int("size_before", len(data)),
		zap.Int("size_after", len(out)),
	)
	return bytes.NewReader(out), nil
}

// pdfReport summarises one document pass.
type pdfReport struct {
	Images      int // distinct image keys
	References  int // containers referencing them
	Transformed int // image objects re-encoded
	Skipped     int // keys left untouched
}

func (c *PDFCompressor) compressDocument(data []byte, p Parameters) (out []byte, report pdfReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf processing panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, report, fmt.Errorf("read: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, report, fmt.Errorf("validate: %w", err)
	}
	if err := api.OptimizeContext(ctx); err != nil {
		return nil, report, fmt.Errorf("optimize: %w", err)
	}

	images, err := collectImages(ctx.XRefTable)
	if err != nil {
		return nil, report, err
	}

	report, err = replaceImages(ctx.XRefTable, images, p)
	if err != nil {
		return nil, report, err
	}
	if report.Transformed == 0 {
		return data, report, nil
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, report, fmt.Errorf("write: %w", err)
	}
	return buf.Bytes(), report, nil
}
