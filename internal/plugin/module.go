package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/hslog/hslog-go/internal/safefile"
)

const (
	// MaxFileSize caps the wasm file read from disk.
	MaxFileSize = 10 * 1024 * 1024

	// ABIVersion is the only plugin ABI this host speaks.
	ABIVersion = 1

	// InputRegion is the fixed offset where the host writes input JSON.
	InputRegion = 0x10000

	// InputRegionSize bounds the input JSON.
	InputRegionSize = 8192
)

var requiredExports = []string{"abi_version", "alloc", "free", "parse_line"}

// module is a compiled plugin with its runtime.
type module struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	cache    wazero.CompilationCache
	host     *host
}

// close releases the cache, the compiled module and the runtime, in that order.
func (m *module) close(ctx context.Context) error {
	var errs []error
	if m.cache != nil {
		errs = append(errs, m.cache.Close(ctx))
		m.cache = nil
	}
	if m.compiled != nil {
		errs = append(errs, m.compiled.Close(ctx))
		m.compiled = nil
	}
	if m.runtime != nil {
		errs = append(errs, m.runtime.Close(ctx))
		m.runtime = nil
	}
	return errors.Join(errs...)
}

// compile reads path and compiles it against the host module.
func compile(ctx context.Context, path string, logger *slog.Logger) (*module, error) {
	wasmBytes, err := readWasm(path)
	if err != nil {
		return nil, err
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	m := &module{host: newHost(logger)}
	if dir, err := cacheDir(); err == nil {
		if cache, err := wazero.NewCompilationCacheWithDir(dir); err == nil {
			m.cache = cache
			rtConfig = rtConfig.WithCompilationCache(cache)
			logger.Debug("using wasm compilation cache", "dir", dir)
		} else {
			logger.Warn("compilation cache unavailable", "error", err)
		}
	}

	m.runtime = wazero.NewRuntimeWithConfig(ctx, rtConfig)

	fail := func(op string, err error) (*module, error) {
		_ = m.close(context.Background())
		if op == "" {
			return nil, err
		}
		return nil, &RuntimeError{Op: op, Err: err}
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, m.runtime); err != nil {
		return fail("wasi instantiation", err)
	}
	if err := m.host.register(ctx, m.runtime); err != nil {
		return fail("host module registration", err)
	}

	m.compiled, err = m.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fail("compilation", err)
	}
	if err := validateExports(m.compiled.ExportedFunctions()); err != nil {
		return fail("", err)
	}
	return m, nil
}

// readWasm opens path as a regular file and reads at most MaxFileSize bytes.
func readWasm(path string) ([]byte, error) {
	f, info, err := safefile.OpenRegular(path)
	if err != nil {
		if errors.Is(err, safefile.ErrNotRegularFile) {
			return nil, fmt.Errorf("wasm path is not a regular file: %w", err)
		}
		return nil, fmt.Errorf("failed to open wasm file: %w", err)
	}
	defer f.Close()

	if info.Size() > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	// The file may grow between Stat and Read.
	b, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm file: %w", err)
	}
	if len(b) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return b, nil
}

func validateExports(exports map[string]api.FunctionDefinition) error {
	for _, name := range requiredExports {
		if _, ok := exports[name]; !ok {
			return &ABIError{Function: name, Reason: "missing required export"}
		}
	}
	return nil
}

// cacheDir returns $XDG_CACHE_HOME/hslog/wasm, creating it user-only.
func cacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "hslog", "wasm")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
