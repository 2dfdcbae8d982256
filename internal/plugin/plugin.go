package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"

	"github.com/hslog/hslog-go/pkg/hslog"
	"github.com/hslog/hslog-go/pkg/hslog/event"
)

const (
	// DefaultTimeout bounds one parse_line call.
	DefaultTimeout = 50 * time.Millisecond

	// MaxOutputSize bounds the JSON a plugin may return.
	MaxOutputSize = 1 * 1024 * 1024
)

// Plugin is an hslog.Parser backed by a wasm module.
// Each ParseLine call runs in a fresh module instance, so Plugin is
// safe for concurrent use.
type Plugin struct {
	name    string
	logger  *slog.Logger
	timeout atomic.Int64
	counter atomic.Uint64

	mu  sync.RWMutex
	mod *module
}

var _ hslog.Parser = (*Plugin)(nil)

// Load compiles the plugin at path and checks its ABI version.
// A nil logger discards plugin log output.
func Load(ctx context.Context, path string, logger *slog.Logger) (*Plugin, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	logger = logger.With("component", "plugin", "plugin", name)

	mod, err := compile(ctx, path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin %s: %w", name, err)
	}
	if err := checkABIVersion(ctx, mod); err != nil {
		_ = mod.close(context.Background())
		return nil, fmt.Errorf("failed to load plugin %s: %w", name, err)
	}

	p := &Plugin{name: name, logger: logger, mod: mod}
	p.timeout.Store(int64(DefaultTimeout))
	logger.Debug("plugin loaded", "path", path)
	return p, nil
}

func checkABIVersion(ctx context.Context, mod *module) error {
	inst, err := mod.runtime.InstantiateModule(ctx, mod.compiled, wazero.NewModuleConfig().WithName("plugin-init"))
	if err != nil {
		return &RuntimeError{Op: "initial instantiation", Err: err}
	}
	defer inst.Close(context.Background())

	results, err := inst.ExportedFunction("abi_version").Call(ctx)
	if err != nil {
		return &RuntimeError{Op: "abi_version call", Err: err}
	}
	if len(results) == 0 {
		return &ABIError{Function: "abi_version", Reason: "no return value"}
	}
	if v := uint32(results[0]); v != ABIVersion {
		return fmt.Errorf("%w: plugin %d, host %d", ErrABIVersionMismatch, v, ABIVersion)
	}
	return nil
}

// Name is the plugin file name without extension.
func (p *Plugin) Name() string {
	return p.name
}

// SetTimeout changes the parse_line timeout.
func (p *Plugin) SetTimeout(d time.Duration) {
	p.timeout.Store(int64(d))
}

// ParseLine runs parse_line on line. Plugin events become event.Custom
// values named after the plugin's "name" field.
func (p *Plugin) ParseLine(ctx context.Context, line string) (hslog.ParseResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.mod == nil {
		return hslog.ParseResult{}, ErrClosed
	}

	input, err := json.Marshal(struct {
		Line string `json:"line"`
	}{Line: line})
	if err != nil {
		return hslog.ParseResult{}, fmt.Errorf("failed to marshal input: %w", err)
	}
	if len(input) > InputRegionSize {
		return hslog.ParseResult{}, fmt.Errorf("input too large: %d bytes (max %d)", len(input), InputRegionSize)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.timeout.Load()))
	defer cancel()

	out, err := p.call(ctx, input)
	if err != nil {
		return hslog.ParseResult{}, err
	}
	return decodeOutput(out)
}

// call instantiates the module, runs parse_line and returns a copy of its output.
func (p *Plugin) call(ctx context.Context, input []byte) ([]byte, error) {
	name := fmt.Sprintf("plugin-%d", p.counter.Add(1))
	inst, err := p.mod.runtime.InstantiateModule(ctx, p.mod.compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, &RuntimeError{Op: "instantiation", Err: err}
	}
	defer inst.Close(context.Background())

	mem := inst.Memory()
	if mem == nil {
		return nil, &ABIError{Function: "memory", Reason: "not exported"}
	}
	if need := uint32(InputRegion + len(input)); need > mem.Size() {
		return nil, fmt.Errorf("input region 0x%x + %d bytes exceeds wasm memory (%d bytes)", InputRegion, len(input), mem.Size())
	}
	if !mem.Write(InputRegion, input) {
		return nil, errors.New("failed to write input to wasm memory")
	}

	results, err := inst.ExportedFunction("parse_line").Call(ctx, uint64(InputRegion), uint64(len(input)))
	if err != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			return nil, ErrTimeout
		case context.Canceled:
			return nil, ctx.Err()
		}
		return nil, &RuntimeError{Op: "parse_line call", Err: err}
	}
	if len(results) == 0 {
		return nil, &ABIError{Function: "parse_line", Reason: "no return value"}
	}

	outPtr, outLen := unpack(results[0])
	if outLen > MaxOutputSize {
		return nil, fmt.Errorf("plugin output too large: %d bytes (max %d)", outLen, MaxOutputSize)
	}
	view, ok := mem.Read(outPtr, outLen)
	if !ok {
		return nil, errors.New("failed to read output from wasm memory")
	}
	// Read returns a view; free may reuse it.
	out := make([]byte, len(view))
	copy(out, view)

	_, _ = inst.ExportedFunction("free").Call(ctx, uint64(outPtr), uint64(outLen))
	return out, nil
}

// unpack splits parse_line's (len << 32) | ptr return value.
func unpack(v uint64) (ptr, n uint32) {
	return uint32(v), uint32(v >> 32)
}

type output struct {
	Ok     bool          `json:"ok"`
	Events []outputEvent `json:"events"`
	Error  *string       `json:"error,omitempty"`
	Code   *string       `json:"code,omitempty"`
}

type outputEvent struct {
	Name string            `json:"name"`
	Data map[string]string `json:"data,omitempty"`
}

// decodeOutput converts plugin output JSON to a parse result.
func decodeOutput(b []byte) (hslog.ParseResult, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return hslog.ParseResult{}, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	if !out.Ok {
		perr := &PluginError{Message: "unknown error"}
		if out.Error != nil {
			perr.Message = *out.Error
		}
		if out.Code != nil {
			perr.Code = *out.Code
		}
		return hslog.ParseResult{}, perr
	}
	if len(out.Events) == 0 {
		return hslog.ParseResult{}, nil
	}

	events := make([]event.Event, 0, len(out.Events))
	for i, ev := range out.Events {
		if ev.Name == "" {
			return hslog.ParseResult{}, &ABIError{Function: "parse_line", Reason: fmt.Sprintf("event %d has no name", i)}
		}
		events = append(events, event.Custom{Name: ev.Name, Data: ev.Data})
	}
	return hslog.ParseResult{Events: events, Matched: true}, nil
}

// Close releases the runtime. Safe to call more than once.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mod == nil {
		return nil
	}
	err := p.mod.close(context.Background())
	p.mod = nil
	return err
}
