package substringengine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coregx/coregex"
)

// EmbeddedEngine runs the Substring Engine in-process against coregx/coregex,
// avoiding a subprocess per stage. This is the SE's performance floor
// implementation (spec.md §4.2: "all native-stage layers compile to SE
// invocations").
type EmbeddedEngine struct{}

// NewEmbeddedEngine returns the in-process Engine implementation.
func NewEmbeddedEngine() *EmbeddedEngine {
	return &EmbeddedEngine{}
}

// lineMatcher abstracts over a compiled regex and a multi-literal matcher so
// embeddedFileStream/embeddedChainStream don't care which one backs a query.
type lineMatcher interface {
	MatchString(s string) bool
}

func compileMatcher(pattern string, flags Flags) (lineMatcher, error) {
	if len(flags.Literals) > 0 {
		m, err := NewMultiLiteralMatcher(flags.Literals, flags.IgnoreCase, flags.WholeWord)
		if err != nil {
			return nil, fmt.Errorf("build literal automaton: %w", err)
		}
		return m, nil
	}
	re, err := coregex.Compile(compilePattern(pattern, flags))
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re, nil
}

// FindAllIndex returns every match span of pattern/flags within content,
// for callers building search-highlight decorations outside a Stream
// (spec.md §4.8 step 5: "re-scan the post-transform content with the same
// engine parameters and append highlight spans marked is_search = true").
// The Literals fast path never applies here — it can't report match
// positions — so this always compiles a regex.
func FindAllIndex(pattern string, flags Flags, content string) ([][2]int, error) {
	re, err := coregex.Compile(compilePattern(pattern, flags))
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	idxs := re.FindAllStringIndex(content, -1)
	if len(idxs) == 0 {
		return nil, nil
	}
	out := make([][2]int, len(idxs))
	for i, pair := range idxs {
		out[i] = [2]int{pair[0], pair[1]}
	}
	return out, nil
}

func (e *EmbeddedEngine) Open(ctx context.Context, path, pattern string, flags Flags) (Stream, error) {
	m, err := compileMatcher(pattern, flags)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &embeddedFileStream{
		ctx:    ctx,
		re:     m,
		invert: flags.Invert,
		f:      f,
		r:      bufio.NewReaderSize(f, 64*1024),
	}, nil
}

func (e *EmbeddedEngine) Chain(ctx context.Context, upstream Stream, pattern string, flags Flags) (Stream, error) {
	m, err := compileMatcher(pattern, flags)
	if err != nil {
		upstream.Close()
		return nil, err
	}
	return &embeddedChainStream{ctx: ctx, re: m, invert: flags.Invert, upstream: upstream}, nil
}

// embeddedFileStream scans a file line by line, matching against content
// only and numbering from 1 — the Open/"stage 0" case.
type embeddedFileStream struct {
	ctx    context.Context
	re     lineMatcher
	invert bool
	f      *os.File
	r      *bufio.Reader
	lineNo int
	closed bool
}

func (s *embeddedFileStream) Next() (Line, bool, error) {
	for {
		select {
		case <-s.ctx.Done():
			return Line{}, false, s.ctx.Err()
		default:
		}

		raw, err := s.r.ReadString('\n')
		if len(raw) == 0 && err != nil {
			if err == io.EOF {
				return Line{}, false, nil
			}
			return Line{}, false, fmt.Errorf("read line: %w", err)
		}
		s.lineNo++
		content := stripEOL(raw)

		matched := s.re.MatchString(content)
		if matched != s.invert {
			return Line{Number: s.lineNo, Content: content}, true, nil
		}
		if err == io.EOF {
			return Line{}, false, nil
		}
	}
}

func (s *embeddedFileStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// embeddedChainStream filters an upstream Stream's Content, leaving Number
// untouched — the realization of the "anchored wrapper pattern" Design Note:
// downstream layers never see or reconstruct a literal "N:" prefix, they
// just get Lines whose Number already survived the chain.
type embeddedChainStream struct {
	ctx      context.Context
	re       lineMatcher
	invert   bool
	upstream Stream
}

func (s *embeddedChainStream) Next() (Line, bool, error) {
	for {
		select {
		case <-s.ctx.Done():
			return Line{}, false, s.ctx.Err()
		default:
		}

		line, ok, err := s.upstream.Next()
		if err != nil || !ok {
			return Line{}, false, err
		}
		matched := s.re.MatchString(line.Content)
		if matched != s.invert {
			return line, true, nil
		}
	}
}

func (s *embeddedChainStream) Close() error {
	return s.upstream.Close()
}

// stripEOL removes a trailing "\r\n" or "\n" from a line read by
// bufio.Reader.ReadString('\n').
func stripEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}
