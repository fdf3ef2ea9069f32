package host

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ardnew/mung"

	"github.com/ardnew/tlisp/lang"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

// prefixList prepends prefix to the PATH-like list, keeping only the items
// accepted by keep when it is non-nil.
func prefixList(list string, keep func(string) bool, prefix ...string) string {
	if keep == nil {
		return mung.Make(
			mung.WithSubjectItems(list),
			mung.WithDelim(string(os.PathListSeparator)),
			mung.WithPrefixItems(prefix...),
		).String()
	}

	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(keep),
	).String()
}

func builtinPathAbs(_ context.Context, _ *lang.Interp, args []lang.Value) (lang.Value, error) {
	p, err := textArg("path-abs", args[0])
	if err != nil {
		return nil, err
	}

	return lang.Text(pathAbs(p)), nil
}

func builtinPathCat(_ context.Context, _ *lang.Interp, args []lang.Value) (lang.Value, error) {
	elems, err := textArgs("path-cat", args)
	if err != nil {
		return nil, err
	}

	return lang.Text(filepath.Join(elems...)), nil
}

func builtinPathRel(_ context.Context, _ *lang.Interp, args []lang.Value) (lang.Value, error) {
	p, err := textArgs("path-rel", args)
	if err != nil {
		return nil, err
	}

	return lang.Text(pathRel(p[0], p[1])), nil
}

func builtinPathPrefix(_ context.Context, _ *lang.Interp, args []lang.Value) (lang.Value, error) {
	p, err := textArgs("path-prefix", args)
	if err != nil {
		return nil, err
	}

	return lang.Text(prefixList(p[0], nil, p[1:]...)), nil
}

func builtinPathPrefixIf(ctx context.Context, in *lang.Interp, args []lang.Value) (lang.Value, error) {
	p, err := textArgs("path-prefix-if", args[1:])
	if err != nil {
		return nil, err
	}

	// The filter cannot return an error, so the first failure is kept and
	// every later item is rejected.
	var failed error

	keep := func(item string) bool {
		if failed != nil {
			return false
		}

		v, err := in.Apply(ctx, args[0], []lang.Value{lang.Text(item)})
		if err != nil {
			failed = err

			return false
		}

		return lang.Truthy(v)
	}

	out := prefixList(p[0], keep, p[1:]...)
	if failed != nil {
		return nil, failed
	}

	return lang.Text(out), nil
}
