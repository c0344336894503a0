package exporter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/spf13/afero"

	"github.com/mzeryck/widgetsched/pkg/logger"
)

// runtime is a single-use JS environment for one widget invocation.
type runtime struct {
	*goja.Runtime
	req *require.RequireModule
	l   logger.Logger

	name      string
	widget    goja.Value
	completed bool
}

type runtimeOptions struct {
	name     string
	artifact []byte
	// sources resolves require() calls for sibling modules.
	sources  *DirSources
	out      io.Writer
	inWidget bool
	l        logger.Logger
}

func artifactPath(name string) string {
	return "/" + name + ArtifactExt
}

func newRuntime(opts runtimeOptions) (*runtime, error) {
	vm := goja.New()

	registry := require.NewRegistry(require.WithLoader(loader(opts)))
	r := &runtime{
		Runtime: vm,
		req:     registry.Enable(vm),
		l:       opts.l,
		name:    opts.name,
	}
	if err := vm.Set("print", r.print(opts.out)); err != nil {
		return nil, err
	}

	script := vm.NewObject()
	if err := script.Set("name", func() string { return r.name }); err != nil {
		return nil, err
	}
	if err := script.Set("setWidget", func(v goja.Value) { r.widget = v }); err != nil {
		return nil, err
	}
	if err := script.Set("complete", func() { r.completed = true }); err != nil {
		return nil, err
	}
	if err := vm.Set("Script", script); err != nil {
		return nil, err
	}

	config := vm.NewObject()
	if err := config.Set("runsInWidget", opts.inWidget); err != nil {
		return nil, err
	}
	if err := vm.Set("config", config); err != nil {
		return nil, err
	}
	return r, nil
}

// loader serves the artifact under its virtual path and every other
// module from the documents directory.
func loader(opts runtimeOptions) require.SourceLoader {
	self := artifactPath(opts.name)
	return func(p string) ([]byte, error) {
		if p == self {
			return opts.artifact, nil
		}
		if opts.sources == nil {
			return nil, require.ModuleFileDoesNotExistError
		}
		rel := strings.TrimPrefix(path.Clean("/"+p), "/")
		b, err := afero.ReadFile(opts.sources.Fs(), path.Join(opts.sources.Dir(), rel))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, require.ModuleFileDoesNotExistError
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

func (r *runtime) print(out io.Writer) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, v := range call.Arguments {
			parts = append(parts, fmt.Sprint(v.Export()))
		}
		line := strings.Join(parts, " ")
		if out != nil {
			fmt.Fprintln(out, line)
		} else {
			r.l.Info("%s: %s", r.name, line)
		}
		return goja.Undefined()
	}
}

// entryPoint loads the artifact and returns its exported function.
func (r *runtime) entryPoint() (goja.Callable, error) {
	v, err := r.req.Require(artifactPath(r.name))
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, ErrEntryPointMissing
	}
	return fn, nil
}

// settle unwraps a promise returned by the entry point. Promise jobs run
// when the outermost call returns, so anything still pending here has
// nothing left that could resolve it.
func settle(v goja.Value) (goja.Value, error) {
	if v == nil {
		return goja.Undefined(), nil
	}
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return v, nil
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result(), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("%w: %v", ErrWidgetRejected, p.Result())
	default:
		return nil, ErrWidgetPending
	}
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}
