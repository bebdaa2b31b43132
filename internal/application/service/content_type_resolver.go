package service

import (
	"mime"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultInterpreters maps a content type to the command that runs it
var DefaultInterpreters = map[string]string{
	"text/x-python":       "python3",
	"text/x-shellscript":  "bash",
	"text/x-perl":         "perl",
	"text/x-ruby":         "ruby",
	"text/javascript":     "node",
	"application/x-php":   "php",
	"text/x-csrc":         "gcc",
	"text/x-c++src":       "g++",
	"text/x-java":         "java",
	"text/x-csharp":       "csc",
	"text/x-fortran":      "gfortran",
	"text/x-go":           "go",
	"text/x-rustsrc":      "rustc",
	"text/x-scala":        "scala",
	"text/x-swift":        "swift",
	"text/x-d":            "dmd",
	"text/x-dylan":        "dylan-compiler",
	"text/x-erlang":       "erlc",
	"text/x-haskell":      "ghc",
	"text/x-lisp":         "sbcl",
	"text/x-lua":          "lua",
	"text/x-objectivec":   "clang",
	"text/x-objectivec++": "clang++",
	"text/x-pascal":       "fpc",
	"text/x-prolog":       "swipl",
	"text/x-r":            "Rscript",
	"text/x-scheme":       "guile",
	"text/x-tcl":          "tclsh",
	"text/x-vb":           "vbc",
	"text/x-ada":          "gnatmake",
	"text/x-asm":          "nasm",
	"text/x-cobol":        "cobc",
	"text/x-diff":         "diff",
	"text/x-dockerfile":   "docker",
	"text/x-elixir":       "elixir",
	"text/x-elm":          "elm",
	"text/x-fsharp":       "fsharpc",
	"text/x-ini":          "ini",
	"text/x-julia":        "julia",
	"text/x-kotlin":       "kotlinc",
	"text/x-matlab":       "matlab",
	"text/x-ocaml":        "ocaml",
	"text/x-powershell":   "pwsh",
	"text/x-sass":         "sass",
	"text/x-scss":         "sass",
	"text/x-sql":          "sqlite3",
	"text/x-toml":         "toml",
	"text/x-yaml":         "yml",
}

// DefaultContentTypes maps file extensions (lowercase, with dot) to content types.
// Names without an extension are looked up by base name.
var DefaultContentTypes = map[string]string{
	".py":        "text/x-python",
	".sh":        "text/x-shellscript",
	".bash":      "text/x-shellscript",
	".pl":        "text/x-perl",
	".pm":        "text/x-perl",
	".rb":        "text/x-ruby",
	".js":        "text/javascript",
	".mjs":       "text/javascript",
	".cjs":       "text/javascript",
	".php":       "application/x-php",
	".c":         "text/x-csrc",
	".cc":        "text/x-c++src",
	".cpp":       "text/x-c++src",
	".cxx":       "text/x-c++src",
	".java":      "text/x-java",
	".cs":        "text/x-csharp",
	".f":         "text/x-fortran",
	".f90":       "text/x-fortran",
	".go":        "text/x-go",
	".rs":        "text/x-rustsrc",
	".scala":     "text/x-scala",
	".swift":     "text/x-swift",
	".d":         "text/x-d",
	".dylan":     "text/x-dylan",
	".erl":       "text/x-erlang",
	".hs":        "text/x-haskell",
	".lisp":      "text/x-lisp",
	".lua":       "text/x-lua",
	".m":         "text/x-objectivec",
	".mm":        "text/x-objectivec++",
	".pas":       "text/x-pascal",
	".pro":       "text/x-prolog",
	".r":         "text/x-r",
	".scm":       "text/x-scheme",
	".tcl":       "text/x-tcl",
	".vb":        "text/x-vb",
	".adb":       "text/x-ada",
	".ads":       "text/x-ada",
	".asm":       "text/x-asm",
	".cob":       "text/x-cobol",
	".cbl":       "text/x-cobol",
	".diff":      "text/x-diff",
	".patch":     "text/x-diff",
	"dockerfile": "text/x-dockerfile",
	".ex":        "text/x-elixir",
	".exs":       "text/x-elixir",
	".elm":       "text/x-elm",
	".fs":        "text/x-fsharp",
	".fsx":       "text/x-fsharp",
	".ini":       "text/x-ini",
	".jl":        "text/x-julia",
	".kt":        "text/x-kotlin",
	".kts":       "text/x-kotlin",
	".ml":        "text/x-ocaml",
	".ps1":       "text/x-powershell",
	".sass":      "text/x-sass",
	".scss":      "text/x-scss",
	".sql":       "text/x-sql",
	".toml":      "text/x-toml",
	".yaml":      "text/x-yaml",
	".yml":       "text/x-yaml",
}

// ContentTypeResolver maps a script path to its interpreter.
// The tables are copied at construction and never change afterwards.
type ContentTypeResolver struct {
	contentTypes map[string]string
	interpreters map[string]string
	lookPath     func(string) (string, error)
}

// ResolverOption customizes a ContentTypeResolver
type ResolverOption func(*ContentTypeResolver)

// WithTables replaces the default lookup tables
func WithTables(contentTypes, interpreters map[string]string) ResolverOption {
	return func(r *ContentTypeResolver) {
		r.contentTypes = copyTable(contentTypes)
		r.interpreters = copyTable(interpreters)
	}
}

// WithLookPath only reports interpreters that lookPath can find.
// Pass exec.LookPath to require the interpreter on PATH.
func WithLookPath(lookPath func(string) (string, error)) ResolverOption {
	return func(r *ContentTypeResolver) {
		r.lookPath = lookPath
	}
}

// RequireInterpreterOnPath is WithLookPath(exec.LookPath)
func RequireInterpreterOnPath() ResolverOption {
	return WithLookPath(exec.LookPath)
}

// NewContentTypeResolver creates a resolver over the default tables
func NewContentTypeResolver(opts ...ResolverOption) *ContentTypeResolver {
	r := &ContentTypeResolver{
		contentTypes: copyTable(DefaultContentTypes),
		interpreters: copyTable(DefaultInterpreters),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentType returns the detected content type, or "" when unknown
func (r *ContentTypeResolver) ContentType(path string) string {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return r.contentTypes[strings.ToLower(base)]
	}
	if ct, ok := r.contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		if media, _, err := mime.ParseMediaType(ct); err == nil {
			return media
		}
	}
	return ""
}

// Interpreter returns the interpreter registered for the path's content type
func (r *ContentTypeResolver) Interpreter(path string) (string, bool) {
	interpreter, ok := r.interpreters[r.ContentType(path)]
	if !ok || interpreter == "" {
		return "", false
	}
	if r.lookPath != nil {
		if _, err := r.lookPath(interpreter); err != nil {
			return "", false
		}
	}
	return interpreter, true
}

// Shebang returns the interpreter directive for the path, if any
func (r *ContentTypeResolver) Shebang(path string) (string, bool) {
	interpreter, ok := r.Interpreter(path)
	if !ok {
		return "", false
	}
	return "#!/usr/bin/env " + interpreter, true
}

func copyTable(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
