// Command ndsextract lists or extracts the contents of a NitroROM image.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/meigma/nds"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ndsextract: ")

	list := flag.Bool("list", false, "list overlays and files instead of extracting")
	verify := flag.Bool("verify", false, "verify the header checksum before decoding")
	workers := flag.Int("workers", 0, "extraction workers (0 = one per CPU, <0 = serial)")
	out := flag.String("o", "", "output directory (default: image name without extension)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: ndsextract [flags] image.nds\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	imagePath := flag.Arg(0)

	var opts []nds.Option
	if *verify {
		opts = append(opts, nds.WithVerifyChecksum())
	}

	rom, err := nds.Open(imagePath, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer rom.Close()

	if *list {
		if err := listImage(rom.ROM); err != nil {
			log.Fatal(err)
		}
		return
	}

	dest := *out
	if dest == "" {
		base := filepath.Base(imagePath)
		dest = strings.TrimSuffix(base, filepath.Ext(base))
	}

	err = rom.Extract(dest, nds.ExtractWithWorkers(*workers))

	var extractErr *nds.ExtractError
	if errors.As(err, &extractErr) {
		for _, f := range extractErr.Failures {
			log.Printf("failed: %v", f)
		}
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func listImage(rom *nds.ROM) error {
	h := rom.Header()
	fmt.Printf("%s %s rev %d (header %#x bytes)\n", h.Title, h.GameCode, h.GameRevision, h.HeaderSize)

	fsys, err := rom.Filesystem()
	if err != nil {
		return err
	}

	for _, f := range fsys.Overlays() {
		fmt.Printf("%5d %10d  overlay/%s\n", f.ID, f.Alloc.Len(), f.Path)
	}

	files := fsys.Files()
	slices.SortFunc(files, func(a, b nds.FileEntry) int {
		return int(a.ID) - int(b.ID)
	})
	for _, f := range files {
		fmt.Printf("%5d %10d  data/%s\n", f.ID, f.Alloc.Len(), f.Path)
	}
	return nil
}
