// Package ingestkit prepares uploaded documents for storage. It checks their
// size while they stream in, computes an integrity digest, determines their
// real media type even when they are wrapped in a signature envelope, and
// shrinks raster images, standalone or embedded in PDF documents.
//
// The building blocks live in subpackages and can be used on their own:
//
//   - [github.com/gobeaver/ingestkit/stream]: mark/reset readers, the
//     length guard and the digest reader
//   - [github.com/gobeaver/ingestkit/mediatype]: media types, the extension
//     registry, the magic-byte detector and the signed-envelope detector
//   - [github.com/gobeaver/ingestkit/imagecompress]: resize and re-encode
//     strategies for images and PDF documents
//
// # Basic Usage
//
//	in, err := ingestkit.New(&ingestkit.Config{
//	    ImageMaxWidth:      1920,
//	    CompressionQuality: 80,
//	    MaxUploadSize:      50 << 20,
//	    ChecksumAlgorithm:  "sha256",
//	    EnvelopeHeaderSize: 1024,
//	}, ingestkit.WithStore(ingestkit.NewDirStore("./storage")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := in.Ingest(ctx, "scan.pdf", r)
//	if ingestkit.IsSizeLimit(err) {
//	    // reject the upload
//	}
//	fmt.Println(res.MediaType, res.Digest, res.Size)
//
// # Configuration
//
// [GetConfig] reads the configuration from BEAVER_INGESTKIT_* environment
// variables. [WithPrefix] selects another prefix:
//
//	in, err := ingestkit.WithPrefix("MYAPP_").New()
//
// # Compressors
//
// Compressors are created by name through [RegisterCompressor] and
// [CreateCompressor]. The built-in "image" and "pdf" compressors are routed by
// filename globs ([Config.ImagePatterns], [Config.PDFPatterns]) and only
// compress documents whose content they recognise. Signed documents are
// never compressed, because that would break their signature.
//
// Per-document parameters override the configured defaults:
//
//	res, err := in.Ingest(ctx, "photo.jpg", r,
//	    ingestkit.WithCompression(imagecompress.WithMaxWidth(800)))
//
// # Accepted Types
//
// [WithAcceptedTypes] and [Config.AcceptedTypes] restrict what may be
// ingested. A plain zip passes for ASiC-E only when its name ends in .asice:
//
//	res, err := in.Ingest(ctx, "bundle.asice", r,
//	    ingestkit.WithAcceptedTypes(mediatype.ASiCE))
//	if errors.Is(err, ingestkit.ErrNotAllowed) {
//	    // refuse the upload
//	}
//
// # Error Handling
//
// Stage failures are returned as [*PathError] naming the stage. Use
// [IsSizeLimit] and [IsCompression] to classify them.
package ingestkit
