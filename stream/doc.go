// Package stream provides transparent io.Reader decorators used while an upload
// is being consumed: a length guard that enforces a size ceiling read by read, and
// a digest reader that hashes bytes as they pass through.
//
// Both decorators observe the bytes they deliver and never alter them. They also
// take part in mark/reset, the capability that lets a content sniffer look ahead
// and rewind:
//
//	src := stream.NewMarkableReader(body, 4096)
//	guard := stream.NewLengthGuard(src, stream.MaxSize(10*stream.MB))
//	digest := stream.NewDigestReader(guard)
//
//	digest.Mark(512)
//	header := make([]byte, 512)
//	io.ReadFull(digest, header)
//	digest.Reset() // counter and hash state rewind with the source
//
//	io.Copy(dst, digest)
//	sum := digest.Digest()
//
// A reader advertises mark support through [MarkReader.MarkSupported]. Decorators
// only report support when everything beneath them does, and Reset fails with
// [ErrMarkNotSupported] instead of silently producing a wrong count or digest.
package stream
