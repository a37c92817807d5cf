package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gobeaver/ingestkit"
	"github.com/gobeaver/ingestkit/imagecompress"
	"github.com/gobeaver/ingestkit/mediatype"
	"github.com/gobeaver/ingestkit/stream"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var errNoFiles = errors.New("no files given")

func detectFiles(c *cli.Context) error {
	if c.NArg() == 0 {
		return errNoFiles
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	detector := mediatype.NewSignedEnvelopeDetector(
		mediatype.NewMagicDetector(),
		mediatype.WithHeaderSize(cfg.EnvelopeHeaderSize),
	)

	for _, path := range c.Args().Slice() {
		mt, err := detectFile(detector, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", path, mt)
	}
	return nil
}

func detectFile(detector mediatype.Detector, path string) (mediatype.MediaType, error) {
	f, err := os.Open(path)
	if err != nil {
		return mediatype.MediaType{}, err
	}
	defer f.Close()
	return detector.Detect(stream.NewMarkableReader(f, 0), filepath.Base(path))
}

func digestFiles(c *cli.Context) error {
	if c.NArg() == 0 {
		return errNoFiles
	}
	algorithm := ingestkit.ChecksumAlgorithm(c.String("algorithm"))

	for _, path := range c.Args().Slice() {
		sum, err := digestFile(path, algorithm)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s  %s\n", sum, path)
	}
	return nil
}

func digestFile(path string, algorithm ingestkit.ChecksumAlgorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ingestkit.CalculateChecksum(f, algorithm)
}

func compressFile(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file, got %d", c.NArg())
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// An explicit request compresses files of any size
	cfg.MinCompressibleFileSize = 0

	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	opts, err := compressionOptions(c)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	r := stream.NewMarkableReader(f, 0)
	name := filepath.Base(path)

	var compressor imagecompress.Compressor
	for _, n := range cfg.CompressorNames() {
		candidate, err := ingestkit.CreateCompressor(n, cfg, logger)
		if err != nil {
			return err
		}
		ok, err := candidate.CanCompress(name, info.Size(), r)
		if err != nil {
			return err
		}
		if ok {
			compressor = candidate
			break
		}
	}
	if compressor == nil {
		return fmt.Errorf("%s: %w: no compressor accepts this file", path, ingestkit.ErrNotSupported)
	}

	out, err := compressor.Compress(name, r, opts...)
	if err != nil {
		return err
	}

	dst, err := os.Create(c.Path("output"))
	if err != nil {
		return err
	}
	written, err := io.Copy(dst, out)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logger.Info("file compressed",
		zap.String("input", path),
		zap.String("output", c.Path("output")),
		zap.Int64("size_before", info.Size()),
		zap.Int64("size_after", written),
	)
	return nil
}

func ingestFiles(c *cli.Context) error {
	if c.NArg() == 0 {
		return errNoFiles
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	options := []ingestkit.Option{ingestkit.WithLogger(logger)}
	if out := c.Path("out"); out != "" {
		options = append(options, ingestkit.WithStore(ingestkit.NewDirStore(out, ingestkit.WithOverwrite(c.Bool("overwrite")))))
	}

	in, err := ingestkit.New(cfg, options...)
	if err != nil {
		return err
	}

	var accepted []mediatype.MediaType
	for _, s := range c.StringSlice("accept") {
		mt, err := mediatype.Parse(s)
		if err != nil {
			return err
		}
		accepted = append(accepted, mt)
	}

	for _, path := range c.Args().Slice() {
		res, err := ingestFile(c.Context, in, path, accepted)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s:%s\t%d -> %d\n",
			res.Name, res.MediaType, res.Algorithm, res.Digest, res.SourceSize, res.Size)
	}
	return nil
}

func ingestFile(ctx context.Context, in *ingestkit.Ingester, path string, accepted []mediatype.MediaType) (*ingestkit.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var opts []ingestkit.IngestOption
	if len(accepted) > 0 {
		opts = append(opts, ingestkit.WithAcceptedTypes(accepted...))
	}
	if info, err := f.Stat(); err == nil {
		opts = append(opts, ingestkit.WithDeclaredSize(info.Size()))
	}
	return in.Ingest(ctx, filepath.Base(path), f, opts...)
}
