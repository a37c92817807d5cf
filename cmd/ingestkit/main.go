package main

import (
	"log"
	"os"

	"github.com/gobeaver/ingestkit"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "ingestkit",
		Usage: "Inspect, digest and compress documents the way the ingest pipeline does",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log every pipeline stage",
			},
			&cli.StringFlag{
				Name:  "env-prefix",
				Usage: "environment variable prefix for configuration",
				Value: "BEAVER_",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "Print the media type of each file, unwrapping signed envelopes",
				ArgsUsage: "FILE...",
				Action:    detectFiles,
			},
			{
				Name:      "digest",
				Usage:     "Print the digest of each file",
				ArgsUsage: "FILE...",
				Action:    digestFiles,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "algorithm",
						Aliases: []string{"a"},
						Usage:   "checksum algorithm (md5, sha1, sha256, sha512, crc32, xxhash, blake3)",
						Value:   string(ingestkit.ChecksumSHA256),
					},
				},
			},
			{
				Name:      "compress",
				Usage:     "Shrink an image or the images embedded in a PDF",
				ArgsUsage: "FILE",
				Action:    compressFile,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-width", Usage: "maximum width in pixels, 0 for unbounded"},
					&cli.IntFlag{Name: "max-height", Usage: "maximum height in pixels, 0 for unbounded"},
					&cli.IntFlag{Name: "quality", Usage: "output quality 0-100, negative for unspecified"},
					&cli.PathFlag{Name: "params", Usage: "YAML file with max_width, max_height and quality"},
					&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file", Required: true},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Run files through the full ingest pipeline",
				ArgsUsage: "FILE...",
				Action:    ingestFiles,
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "out", Usage: "directory store for ingested documents"},
					&cli.BoolFlag{Name: "overwrite", Usage: "replace documents already in the store"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

// loadConfig reads the configuration using the prefix selected on the
// command line.
func loadConfig(c *cli.Context) (*ingestkit.Config, error) {
	prefix := c.String("env-prefix")
	if prefix == "" || prefix == "BEAVER_" {
		return ingestkit.GetConfig()
	}
	return ingestkit.WithPrefix(prefix).Config()
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	if c.Bool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
