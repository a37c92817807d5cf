package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/gobeaver/ingestkit/imagecompress"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// decodeParams reads compression overrides from YAML. Keys that are absent
// keep the configured defaults.
func decodeParams(r io.Reader) (imagecompress.Overrides, error) {
	var ov imagecompress.Overrides
	data, err := io.ReadAll(r)
	if err != nil {
		return ov, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ov, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ov); err != nil {
		return ov, fmt.Errorf("invalid parameters: %w", err)
	}
	return ov, nil
}

func loadParams(path string) (imagecompress.Overrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return imagecompress.Overrides{}, err
	}
	defer f.Close()
	return decodeParams(f)
}

// compressionOptions combines the parameter file with flags set on the
// command line. Flags win.
func compressionOptions(c *cli.Context) ([]imagecompress.Option, error) {
	var opts []imagecompress.Option

	if path := c.Path("params"); path != "" {
		ov, err := loadParams(path)
		if err != nil {
			return nil, fmt.Errorf("params %s: %w", path, err)
		}
		opts = append(opts, imagecompress.WithOverrides(ov))
	}
	if c.IsSet("max-width") {
		opts = append(opts, imagecompress.WithMaxWidth(c.Int("max-width")))
	}
	if c.IsSet("max-height") {
		opts = append(opts, imagecompress.WithMaxHeight(c.Int("max-height")))
	}
	if c.IsSet("quality") {
		opts = append(opts, imagecompress.WithQuality(c.Int("quality")))
	}
	return opts, nil
}
