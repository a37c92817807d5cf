package ingestkit_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobeaver/ingestkit"
)

func exampleConfig() *ingestkit.Config {
	return &ingestkit.Config{
		ImageMaxWidth:           1920,
		ImageMaxHeight:          1920,
		CompressionQuality:      80,
		MinCompressibleFileSize: 100 << 10,
		MaxUploadSize:           32,
		ChecksumAlgorithm:       "sha256",
		EnvelopeHeaderSize:      1024,
	}
}

func ExampleIngester_Ingest() {
	ctx := context.Background()
	store := ingestkit.NewMemoryStore()

	in, err := ingestkit.New(exampleConfig(), ingestkit.WithStore(store))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	res, err := in.Ingest(ctx, "hello.txt", strings.NewReader("Hello, World!"))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(res.MediaType)
	fmt.Println(res.Size, res.Compressed)
	fmt.Println(res.Digest)
	fmt.Println(store.Names())
	// Output:
	// text/plain
	// 13 false
	// dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f
	// [hello.txt]
}

func ExampleIsSizeLimit() {
	in, err := ingestkit.New(exampleConfig())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	_, err = in.Ingest(context.Background(), "big.txt", strings.NewReader(strings.Repeat("x", 64)))
	fmt.Println(ingestkit.IsSizeLimit(err))
	// Output:
	// true
}

func ExampleCalculateChecksum() {
	sum, err := ingestkit.CalculateChecksum(strings.NewReader("hello"), ingestkit.ChecksumSHA256)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(sum)
	// Output:
	// 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824
}

func ExampleAnd() {
	// Thumbnails that are JPEG images
	sel := ingestkit.And(
		ingestkit.MustGlob("*.{jpg,jpeg}"),
		ingestkit.MustGlob("thumb_*"),
	)

	fmt.Println(sel.Match("uploads/thumb_01.JPG"))
	fmt.Println(sel.Match("uploads/photo_01.jpg"))
	// Output:
	// true
	// false
}

func ExampleNot() {
	sel := ingestkit.Not(ingestkit.MustGlob("*.tmp"))

	fmt.Println(sel.Match("draft.tmp"))
	fmt.Println(sel.Match("draft.pdf"))
	// Output:
	// false
	// true
}
