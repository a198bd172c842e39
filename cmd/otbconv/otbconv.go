// Binary otbconv decodes an items.otb file, optionally validates and
// cross-references it against an items.xml, and re-encodes it to a new file.
//
// The write is atomic: the output is staged next to the target and renamed
// into place only after a full re-decode of the staged bytes succeeds, so a
// bad run never clobbers an existing database.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"

	itemsotb "github.com/karolak6612/itemedit/otb/items"
)

var (
	inPath      = flag.String("in", "", "items.otb file to read")
	outPath     = flag.String("out", "", "items.otb file to write; empty means decode only")
	xmlPath     = flag.String("xml", "", "optional items.xml to cross-reference names from")
	validate    = flag.Bool("validate", true, "whether to check list invariants after decoding")
	bump        = flag.Bool("bump_build", false, "whether to increment the build number before encoding")
	description = flag.String("description", "", "new CSD description to stamp into the version attribute; empty keeps the old one")
	progress    = flag.Bool("progress", false, "whether to log decode/encode progress")
)

func main() {
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	if *inPath == "" {
		glog.Exit("missing -in path")
	}

	items, err := load(*inPath)
	if err != nil {
		glog.Exitf("decoding %s: %v", *inPath, err)
	}
	fmt.Printf("%s: %d items, server IDs %d..%d, client IDs %d..%d\n",
		*inPath, len(items.Items),
		items.MinServerID, items.MaxServerID,
		items.MinClientID, items.MaxClientID)
	fmt.Printf("version %d.%d build %d, description %q\n",
		items.Version.MajorVersion, items.Version.MinorVersion,
		items.Version.BuildNumber, items.Version.CSDVersionAsString())

	if *xmlPath != "" {
		f, err := os.Open(*xmlPath)
		if err != nil {
			glog.Exitf("opening %s: %v", *xmlPath, err)
		}
		err = items.AddXMLInfo(f)
		f.Close()
		if err != nil {
			glog.Exitf("parsing %s: %v", *xmlPath, err)
		}
	}

	if *validate {
		errs := items.Validate()
		for _, err := range errs {
			glog.Errorf("validate: %v", err)
		}
		if len(errs) > 0 {
			glog.Exitf("%d validation errors", len(errs))
		}
		fmt.Println("validation passed")
	}

	if *outPath == "" {
		return
	}

	if *bump {
		items.Version.BuildNumber++
	}
	if *description != "" {
		items.Version.SetCSDVersion(*description)
	}

	if err := save(*outPath, items); err != nil {
		glog.Exitf("encoding %s: %v", *outPath, err)
	}
	fmt.Printf("wrote %s\n", *outPath)
}

func load(path string) (*itemsotb.Items, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return itemsotb.NewWithProgress(f, nil, progressSink("decode"))
}

// save re-encodes the list and round-trips the staged bytes before the
// rename, so the output is known decodable.
func save(path string, items *itemsotb.Items) error {
	var buf bytes.Buffer
	if err := itemsotb.EncodeWithProgress(&buf, items, nil, progressSink("encode")); err != nil {
		return err
	}

	reread, err := itemsotb.New(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		return fmt.Errorf("staged bytes do not decode: %w", err)
	}
	if len(reread.Items) != len(items.Items) {
		return fmt.Errorf("staged bytes decode to %d items, want %d", len(reread.Items), len(items.Items))
	}

	return itemsotb.EncodeFile(path, items, nil)
}

func progressSink(phase string) itemsotb.Progress {
	if !*progress {
		return nil
	}
	return func(done, total int) {
		if done%1000 == 0 || done == total {
			glog.Infof("%s: %d/%d items", phase, done, total)
		}
	}
}
