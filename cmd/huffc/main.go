package main

import (
	"github.com/nmerrill/huffc"

	"rsc.io/getopt"

	"golang.org/x/term"

	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// Flags

	decompress = flag.Bool("decompress", false, "specify to decompress")
	adaptive   = flag.Bool("adaptive", false, "use the one-pass adaptive coder instead of the static two-pass coder")
	info       = flag.Bool("info", false, "specify to print info on compressed file")
	keep       = flag.Bool("keep", false, "keep (don't delete) input file")
	toStdout   = flag.Bool("stdout", false, "write to stdout; implies -k")
	force      = flag.Bool("force", false, "overwrite output")
	verbose    = flag.Bool("verbose", false, "write periodic progress reports to a side file")

	bytesPerSymbol = flag.Int("bytes", 1, "bytes per symbol, 1..8")
	chunkSizeMB    = flag.Int("chunk", 0, "adaptive coder: MB of input between weight shrinks, 0 disables shrinking")
	shrinkFactor   = flag.Int("alpha", 2, "adaptive coder: weight divisor applied at each shrink, 2..255")

	// State
	inPath  string
	inFile  *os.File
	outPath string
	outFile *os.File
)

const extension = ".huff"
const progressExtension = ".progress"

func mode() huffc.Mode {
	if *adaptive {
		return huffc.ModeAdaptive
	}
	return huffc.ModeStatic
}

func config() huffc.Config {
	return huffc.Config{
		BytesPerSymbol: *bytesPerSymbol,
		Mode:           mode(),
		ChunkSizeMB:    *chunkSizeMB,
		ShrinkFactor:   *shrinkFactor,
	}
}

func openProgressWriter() (io.Writer, func()) {
	if !*verbose || inPath == "-" {
		return nil, func() {}
	}
	path := inPath + progressExtension
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return nil, func() {}
	}
	return f, func() { f.Close() }
}

func printStats(l io.Writer, stats huffc.Stats) {
	var avgLen float64
	if stats.Symbols > 0 {
		avgLen = 8 * float64(stats.OutputBytes) / float64(stats.Symbols)
	}
	fmt.Fprintf(l, "Mode                  %s\n", stats.Mode)
	fmt.Fprintf(l, "Symbols               %d\n", stats.Symbols)
	fmt.Fprintf(l, "Distinct symbols      %d\n", stats.DistinctSymbols)
	fmt.Fprintf(l, "Input bytes           %d\n", stats.InputBytes)
	fmt.Fprintf(l, "Output bytes          %d\n", stats.OutputBytes)
	fmt.Fprintf(l, "Average codeword bits %.2f\n", avgLen)
	if stats.Shrinks > 0 {
		fmt.Fprintf(l, "Shrinks               %d\n", stats.Shrinks)
	}
}

func doCompress() int {
	enc, err := huffc.NewEncoder(config())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", inPath, err)
		return 5
	}

	progress, closeProgress := openProgressWriter()
	defer closeProgress()
	if progress != nil {
		enc.SetProgressWriter(progress, 1<<20)
	}

	r := bufio.NewReader(inFile)
	w := bufio.NewWriter(outFile)

	if err := enc.Encode(r, w); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", inPath, err)
		return 7
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: write: %v\n", outPath, err)
		return 7
	}

	if *info {
		printStats(os.Stdout, enc.Stats())
	}

	return 0
}

func doDecompress() int {
	dec := huffc.NewDecoder(mode())

	progress, closeProgress := openProgressWriter()
	defer closeProgress()
	if progress != nil {
		dec.SetProgressWriter(progress, 1<<20)
	}

	var w *bufio.Writer
	if outFile == nil {
		w = bufio.NewWriter(io.Discard)
	} else {
		w = bufio.NewWriter(outFile)
	}

	r := bufio.NewReader(inFile)
	if err := dec.Decode(r, w); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", inPath, err)
		return 9
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: write: %v\n", outPath, err)
		return 10
	}

	if *info {
		printStats(os.Stdout, dec.Stats())
	}

	return 0
}

func do() int {
	var (
		err  error
		code int
	)

	if len(flag.Args()) > 1 {
		fmt.Fprintf(os.Stderr, "too many arguments\n")
		return 2
	}

	if len(flag.Args()) == 0 {
		inPath = "-"
	} else {
		inPath = flag.Args()[0]
	}

	closeInput := false
	closeOutput := false

	defer func() {
		if closeInput {
			inFile.Close()
		}

		if closeOutput {
			outFile.Close()

			if code != 0 {
				os.Remove(outPath)
			}
		}
	}()

	if inPath == "-" {
		inFile = os.Stdin
		closeInput = false
	} else {
		if _, err := os.Stat(inPath); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", inPath, err)
			return 1
		}

		inFile, err = os.Open(inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", inPath, err)
			return 3
		}
		closeInput = true
	}

	if inPath == "-" {
		outPath = "-"
	} else {
		if *toStdout {
			outPath = "-"
		} else if *decompress {
			if strings.HasSuffix(inPath, extension) {
				outPath = inPath[:len(inPath)-len(extension)]
			} else {
				outPath = inPath + ".out"
				fmt.Fprintf(
					os.Stderr,
					"%s: unknown extension, writing to %s\n",
					inPath,
					outPath,
				)
			}
		} else if !*info {
			outPath = inPath + extension
		}
	}

	if *info && !*decompress {
		outFile = nil
	} else if outPath == "-" {
		outFile = os.Stdout

		if term.IsTerminal(int(os.Stdout.Fd())) && !*decompress && !*info {
			fmt.Fprintf(os.Stderr, "huffc: I'm not writing compressed data to stdout\n")
			return 13
		}
	} else if !*info {
		if _, err := os.Stat(outPath); !*force && err == nil {
			fmt.Fprintf(os.Stderr, "%s: already exists\n", outPath)
			return 11
		}

		outFile, err = os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: create: %v\n", outPath, err)
			return 4
		}

		closeOutput = true
	}

	if *decompress || *info {
		code = doDecompress()
	} else {
		code = doCompress()
	}

	if closeInput {
		closeInput = false
		inFile.Close()

		if !*keep && !*toStdout && code == 0 && !*info {
			err = os.Remove(inPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: unlink: %v\n", inPath, err)
				return 2
			}
		}
	}

	return code
}

func main() {
	getopt.Alias("d", "decompress")
	getopt.Alias("a", "adaptive")
	getopt.Alias("k", "keep")
	getopt.Alias("c", "stdout")
	getopt.Alias("f", "force")
	getopt.Alias("i", "info")
	getopt.Alias("v", "verbose")
	getopt.Alias("b", "bytes")
	getopt.Alias("K", "chunk")

	// Work around https://github.com/rsc/getopt/issues/3
	err := getopt.CommandLine.Parse(os.Args[1:])
	if err != nil {
		os.Exit(12)
	}

	ret := do()
	os.Exit(ret)
}
