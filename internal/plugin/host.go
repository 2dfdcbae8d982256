package plugin

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/time/rate"
)

const (
	// MaxLogSize truncates plugin log messages.
	MaxLogSize = 256

	// LogRateLimit is the number of plugin log calls allowed per second.
	LogRateLimit = 10

	// RegexTimeout bounds a single host regex evaluation.
	RegexTimeout = 5 * time.Millisecond

	// MaxPatternLength bounds regex patterns passed by plugins.
	MaxPatternLength = 512

	// RegexCacheSize is the number of compiled patterns kept per plugin.
	RegexCacheSize = 100

	// bufferTooSmall is returned by regex_find_submatch when the output does not fit.
	bufferTooSmall = 0xFFFFFFFF
)

// host implements the "env" functions plugins may import.
type host struct {
	logger  *slog.Logger
	limiter *rate.Limiter
	regexes *regexCache
}

func newHost(logger *slog.Logger) *host {
	return &host{
		logger:  logger,
		limiter: rate.NewLimiter(LogRateLimit, LogRateLimit),
		regexes: newRegexCache(RegexCacheSize),
	}
}

func (h *host) register(ctx context.Context, rt wazero.Runtime) error {
	_, err := rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, level, ptr, n uint32) {
			h.log(m, level, ptr, n)
		}).
		Export("log").
		NewFunctionBuilder().
		WithFunc(func() int64 { return time.Now().UnixMilli() }).
		Export("now_ms").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
			return h.regexMatch(ctx, m, strPtr, strLen, rePtr, reLen)
		}).
		Export("regex_match").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen, outPtr, outLen uint32) uint32 {
			return h.regexFindSubmatch(ctx, m, strPtr, strLen, rePtr, reLen, outPtr, outLen)
		}).
		Export("regex_find_submatch").
		Instantiate(ctx)
	return err
}

// log forwards a plugin message. Levels: 0 debug, 1 info, 2 warn, 3 error.
// Messages over the rate limit are dropped.
func (h *host) log(m api.Module, level, ptr, n uint32) {
	if !h.limiter.Allow() {
		return
	}
	truncated := n > MaxLogSize
	if truncated {
		n = MaxLogSize
	}
	b, ok := m.Memory().Read(ptr, n)
	if !ok {
		return
	}
	h.emit(level, string(b), truncated)
}

func (h *host) emit(level uint32, msg string, truncated bool) {
	msg = strings.ToValidUTF8(msg, "�")
	if truncated {
		msg += " [truncated]"
	}
	switch level {
	case 0:
		h.logger.Debug("[plugin] " + msg)
	case 1:
		h.logger.Info("[plugin] " + msg)
	case 2:
		h.logger.Warn("[plugin] " + msg)
	case 3:
		h.logger.Error("[plugin] " + msg)
	default:
		h.logger.Info(fmt.Sprintf("[plugin] (level=%d) %s", level, msg))
	}
}

// readPair reads the subject string and the pattern from plugin memory.
func readPair(m api.Module, strPtr, strLen, rePtr, reLen uint32) (string, string, bool) {
	s, ok := m.Memory().Read(strPtr, strLen)
	if !ok {
		return "", "", false
	}
	re, ok := m.Memory().Read(rePtr, reLen)
	if !ok {
		return "", "", false
	}
	return string(s), string(re), true
}

// regexMatch returns 1 on match and 0 on no match or any failure.
func (h *host) regexMatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
	s, pattern, ok := readPair(m, strPtr, strLen, rePtr, reLen)
	if !ok {
		return 0
	}
	matched, ok := withRegex(ctx, h, pattern, func(re *regexp.Regexp) bool {
		return re.MatchString(s)
	})
	if !ok || !matched {
		return 0
	}
	return 1
}

// regexFindSubmatch writes the submatches as a JSON array to the output buffer
// and returns its length, 0 on no match or failure, or bufferTooSmall.
func (h *host) regexFindSubmatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen, outPtr, outLen uint32) uint32 {
	s, pattern, ok := readPair(m, strPtr, strLen, rePtr, reLen)
	if !ok {
		return 0
	}
	matches, ok := withRegex(ctx, h, pattern, func(re *regexp.Regexp) []string {
		return re.FindStringSubmatch(s)
	})
	if !ok || matches == nil {
		return 0
	}
	b, err := json.Marshal(matches)
	if err != nil {
		return 0
	}
	if uint32(len(b)) > outLen {
		return bufferTooSmall
	}
	if !m.Memory().Write(outPtr, b) {
		return 0
	}
	return uint32(len(b))
}

// withRegex compiles pattern through the cache and runs fn under RegexTimeout.
// RE2 runs in linear time, so a timed-out goroutine finishes on its own.
func withRegex[T any](ctx context.Context, h *host, pattern string, fn func(*regexp.Regexp) T) (T, bool) {
	var zero T
	re, err := h.regexes.get(pattern)
	if err != nil {
		h.logger.Warn("regex compilation failed", "pattern", pattern, "error", err)
		return zero, false
	}

	ctx, cancel := context.WithTimeout(ctx, RegexTimeout)
	defer cancel()

	done := make(chan T, 1)
	go func() { done <- fn(re) }()

	select {
	case v := <-done:
		return v, true
	case <-ctx.Done():
		h.logger.Warn("regex timeout", "pattern", pattern)
		return zero, false
	}
}

// regexCache is a goroutine-safe LRU of compiled patterns.
type regexCache struct {
	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
	max   int
}

type cachedRegex struct {
	pattern string
	re      *regexp.Regexp
}

func newRegexCache(max int) *regexCache {
	return &regexCache{
		items: make(map[string]*list.Element),
		order: list.New(),
		max:   max,
	}
}

func (c *regexCache) get(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > MaxPatternLength {
		return nil, fmt.Errorf("pattern exceeds %d bytes", MaxPatternLength)
	}

	c.mu.Lock()
	if el, ok := c.items[pattern]; ok {
		c.order.MoveToFront(el)
		re := el.Value.(*cachedRegex).re
		c.mu.Unlock()
		return re, nil
	}
	c.mu.Unlock()

	// Compile outside the lock; a concurrent compile of the same pattern is harmless.
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[pattern]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cachedRegex).re, nil
	}
	c.items[pattern] = c.order.PushFront(&cachedRegex{pattern: pattern, re: re})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cachedRegex).pattern)
	}
	return re, nil
}

func (c *regexCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
