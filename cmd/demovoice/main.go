/*

demovoice walks a single demo file's VoiceData messages and writes
each speaker slot's still-Opus-encoded payload to its own out.raw file
(out-0.raw, out-1.raw, ...); no Opus/WAV decode is attempted (out of
scope per spec §1). Flag handling and exit-code convention mirror
demojson's, per icza-screp/cmd/screp's CLI.

*/
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/icza/demorec/demo/parser"
	"github.com/icza/demorec/democodec"
)

const exitFailedToParse = 1

var outDir string

func run(cmd *cobra.Command, args []string) error {
	demo, err := democodec.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer demo.Close()

	writer := newVoiceWriter(outDir)
	defer writer.Close()

	hdr, _, err := parser.Parse[struct{}](demo.Stream(), writer)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	fmt.Fprintf(os.Stderr, "%s: wrote %d speaker slot(s) from map %s\n", args[0], writer.slotCount(), hdr.MapName)
	return nil
}

func main() {
	root := &cobra.Command{
		Use:   "demovoice [flags] <path.dem>",
		Short: "Extract per-speaker voice payloads from a Source-engine demo file",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().StringVar(&outDir, "out-dir", ".", "directory to write out-<slot>.raw files into")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailedToParse)
	}
}

func outPath(dir string, slot byte) string {
	return filepath.Join(dir, fmt.Sprintf("out-%d.raw", slot))
}
