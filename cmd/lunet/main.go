// Lunet CLI - compiles and runs Lunet scripts.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/lunet-lang/lunet/cache"
	"github.com/lunet-lang/lunet/manifest"
	"github.com/lunet-lang/lunet/pkg/bytecode"
)

func main() {
	dump := flag.Bool("d", false, "Dump disassembled bytecode to stderr")
	trace := flag.Bool("trace", false, "Trace instruction execution (requires -v 2)")
	noCache := flag.Bool("no-cache", false, "Bypass the compiled-chunk cache")
	out := flag.String("o", "", "Compile only; write the chunk to this .lnc path")
	verbosity := flag.Int("v", 0, "Log verbosity (0-2)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lunet [options] [script]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles and runs a Lunet script (.ln), or loads a compiled chunk (.lnc).\n")
		fmt.Fprintf(os.Stderr, "With no script argument, the entry from the nearest lunet.toml is used.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lunet hello.ln             # Compile and run\n")
		fmt.Fprintf(os.Stderr, "  lunet -d hello.ln          # Also dump the bytecode listing\n")
		fmt.Fprintf(os.Stderr, "  lunet -o hello.lnc hello.ln  # Compile to a chunk file\n")
		fmt.Fprintf(os.Stderr, "  lunet hello.lnc            # Run a compiled chunk\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	script := flag.Arg(0)

	// A lunet.toml fills in the script path and diagnostics defaults.
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m != nil {
		if script == "" {
			script = m.EntryPath()
		}
		if m.Diagnostics.DumpBytecode {
			*dump = true
		}
		if m.Diagnostics.Trace {
			*trace = true
		}
	}

	if script == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(script, m, *dump, *trace, *noCache, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(script string, m *manifest.Manifest, dump, trace, noCache bool, out string) error {
	source, err := os.ReadFile(script)
	if err != nil {
		return err
	}

	var chunk *bytecode.Chunk
	switch {
	case bytes.HasPrefix(source, bytecode.BytecodeMagic):
		chunk, err = bytecode.Deserialize(source)
		if err != nil {
			return err
		}
	case strings.EqualFold(filepath.Ext(script), ".lnc"):
		chunk, err = bytecode.UnmarshalChunk(source)
		if err != nil {
			return err
		}
	default:
		chunk, err = compile(source, m, noCache)
		if err != nil {
			return err
		}
	}

	if dump {
		fmt.Fprint(os.Stderr, chunk.DisassembleWithName(filepath.Base(script)))
	}

	if out != "" {
		data, err := bytecode.MarshalChunk(chunk)
		if err != nil {
			return err
		}
		return os.WriteFile(out, data, 0o644)
	}

	state := bytecode.NewExeState()
	state.Trace = trace
	return state.Execute(chunk)
}

// compile translates source to a chunk, going through the chunk cache
// when one is configured.
func compile(source []byte, m *manifest.Manifest, noCache bool) (*bytecode.Chunk, error) {
	useCache := !noCache && m != nil && m.Cache.Enabled
	if !useCache {
		return bytecode.Compile(string(source))
	}

	store, err := cache.Open(m.CachePath())
	if err != nil {
		// A broken cache should not stop the script from running.
		commonlog.GetLogger("lunet").Warningf("chunk cache unavailable: %v", err)
		return bytecode.Compile(string(source))
	}
	defer store.Close()

	if chunk, ok, err := store.Get(source); err == nil && ok {
		return chunk, nil
	}

	chunk, err := bytecode.Compile(string(source))
	if err != nil {
		return nil, err
	}
	if err := store.Put(source, chunk); err != nil {
		commonlog.GetLogger("lunet").Warningf("caching chunk: %v", err)
	}
	return chunk, nil
}
