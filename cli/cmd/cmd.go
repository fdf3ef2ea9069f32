package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

// output is where commands write their results.
//
//nolint:gochecknoglobals
var output io.Writer = os.Stdout

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type interpOptionsKey struct{}

// WithInterpOptions returns a new context.Context carrying the options used
// by every interpreter a command creates.
func WithInterpOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, interpOptionsKey{}, opts)
}

func interpOptionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(interpOptionsKey{}).([]lang.Option)

	return opts
}

// newInterp returns an interpreter configured from ctx that writes to out.
// Every source file stored in ctx is evaluated silently before it returns.
// The sources are read once, so later calls, such as a REPL reset, preload
// the same content even when it came from stdin.
func newInterp(ctx context.Context, out io.Writer) (*lang.Interp, error) {
	opts := append(slices.Clone(interpOptionsFrom(ctx)), lang.WithOutput(out))
	in := lang.New(opts...)

	src := sourceFilesFrom(ctx)
	if src == nil {
		return in, nil
	}

	data, err := src.Bytes()
	if err != nil {
		return nil, ErrLoadSource.Wrap(err)
	}

	if err := in.Load(ctx, bytes.NewReader(data)); err != nil {
		return nil, ErrLoadSource.Wrap(err)
	}

	log.DebugContext(ctx, "source files loaded",
		slog.Int("bindings", in.Root().Len()))

	return in, nil
}

type (
	sourceFilesKey struct{}
	sourceFiles    struct {
		files    []io.Reader
		hasStdin bool
		once     sync.Once
		data     []byte
		err      error
		reader   io.Reader
	}

	// SourceFiles is the concatenation of the files named by --source.
	SourceFiles interface {
		IsZero() bool
		Stdin() io.Reader
		Bytes() ([]byte, error)
		io.Reader
		io.WriterTo
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.files) == 0 && !s.hasStdin }

// Stdin returns os.Stdin if stdin was included as a source, or nil otherwise.
func (s *sourceFiles) Stdin() io.Reader {
	if s.hasStdin {
		return os.Stdin
	}

	return nil
}

// Bytes returns the content of all source files in order, with stdin last if
// present. The files are read and closed on the first call; every call
// returns the same content.
func (s *sourceFiles) Bytes() ([]byte, error) {
	s.once.Do(func() {
		readers := slices.Clone(s.files)
		if s.hasStdin {
			readers = append(readers, os.Stdin)
		}

		s.data, s.err = io.ReadAll(io.MultiReader(readers...))

		for _, f := range s.files {
			if c, ok := f.(io.Closer); ok {
				_ = c.Close()
			}
		}
	})

	return s.data, s.err
}

func (s *sourceFiles) concat() io.Reader {
	if s.reader == nil {
		data, err := s.Bytes()
		if err != nil {
			s.reader = failedReader{err}
		} else {
			s.reader = bytes.NewReader(data)
		}
	}

	return s.reader
}

// failedReader reports err from every Read.
type failedReader struct{ err error }

func (r failedReader) Read([]byte) (int, error) { return 0, r.err }

// Read implements io.Reader by reading from all source files in order,
// with stdin last if present.
func (s *sourceFiles) Read(p []byte) (n int, err error) {
	return s.concat().Read(p)
}

// WriteTo implements io.WriterTo by writing all source files to w in order,
// with stdin last if present.
func (s *sourceFiles) WriteTo(w io.Writer) (n int64, err error) {
	return io.Copy(w, s.concat())
}

// fileKey uniquely identifies a file by its device and inode numbers.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSourceFiles returns a new context.Context containing a [SourceFiles]
// that reads the given sources in order.
//
// Sources are deduplicated by resolving symlinks and comparing device/inode
// pairs, so a file is read once however it is named. Every "-" is replaced
// with a single stdin reader placed after all regular files. Files that
// cannot be opened are skipped.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, buildSourceFiles(sources))
}

func buildSourceFiles(sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	srcs := sourceFiles{files: make([]io.Reader, 0, len(sources))}
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, _ := makeFileKey(stdinInfo)

	for _, src := range sources {
		if src == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		if f, ok := openUniqueFile(src, seen); ok {
			srcs.files = append(srcs.files, f)
		}
	}

	// Stdin may have been named by "-" or by its device path; both are
	// recorded under stdinKey.
	_, srcs.hasStdin = seen[stdinKey]

	if srcs.IsZero() {
		return nil
	}

	return &srcs
}

// openUniqueFile opens the file at path unless a file with the same identity
// has been seen already.
func openUniqueFile(path string, seen map[fileKey]struct{}) (io.Reader, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return nil, false
	}

	if _, exists := seen[key]; exists {
		return nil, false
	}

	seen[key] = struct{}{}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, false
	}

	return file, true
}

func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// sourceFilesFrom retrieves the SourceFiles stored in ctx by WithSourceFiles.
// Returns nil if none was stored.
func sourceFilesFrom(ctx context.Context) SourceFiles {
	r, _ := ctx.Value(sourceFilesKey{}).(SourceFiles)

	return r
}

// openSource opens the named input, where "-" is stdin. The returned close
// function is always safe to call.
func openSource(name string) (io.Reader, func(), error) {
	if name == stdinSource {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, func() {}, ErrReadSource.
			With(slog.String("file", name)).
			Wrap(err)
	}

	return f, func() { _ = f.Close() }, nil
}
