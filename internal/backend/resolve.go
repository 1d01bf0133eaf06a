package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/lrstanley/go-ytdlp"
)

// Resolver is one strategy for locating a backend. Resolve returns
// (nil, nil) when the strategy simply found nothing.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context) (*Handle, error)
}

// Chain tries resolvers in order and returns the first handle found.
type Chain []Resolver

// Resolve walks the chain. When every resolver fails, the returned error
// wraps ErrUnavailable and carries each resolver's diagnostic.
func (c Chain) Resolve(ctx context.Context) (*Handle, error) {
	var errs []error
	for _, r := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := r.Resolve(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			continue
		}
		if h != nil {
			h.Source = r.Name()
			return h, nil
		}
		errs = append(errs, fmt.Errorf("%s: not found", r.Name()))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no resolvers configured", ErrUnavailable)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// Env carries the process environment the resolvers depend on, so tests can
// substitute their own.
type Env struct {
	Home       string
	VirtualEnv string // Active Python virtual environment, if any
	GOOS       string
	LookPath   func(file string) (string, error)
}

// SystemEnv captures the current process environment.
func SystemEnv() Env {
	home, _ := os.UserHomeDir()
	return Env{
		Home:       home,
		VirtualEnv: os.Getenv("VIRTUAL_ENV"),
		GOOS:       runtime.GOOS,
		LookPath:   exec.LookPath,
	}
}

func (e Env) binaryName() string {
	if e.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// PathResolver finds yt-dlp on the search path.
type PathResolver struct {
	Env Env
}

func (r PathResolver) Name() string { return "PATH" }

func (r PathResolver) Resolve(ctx context.Context) (*Handle, error) {
	lookPath := r.Env.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(r.Env.binaryName())
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	return &Handle{Executable: abs}, nil
}

// KnownPathsResolver checks a fixed list of installation locations.
type KnownPathsResolver struct {
	Paths []string
}

func (r KnownPathsResolver) Name() string { return "known paths" }

func (r KnownPathsResolver) Resolve(ctx context.Context) (*Handle, error) {
	for _, p := range r.Paths {
		if isExecutable(p) {
			return &Handle{Executable: p}, nil
		}
	}
	return nil, nil
}

// KnownPaths lists the usual install locations of a pip, pipx, Homebrew or
// virtualenv yt-dlp, followed by extra.
func KnownPaths(env Env, extra ...string) []string {
	bin := env.binaryName()
	var paths []string

	if env.VirtualEnv != "" {
		if env.GOOS == "windows" {
			paths = append(paths, filepath.Join(env.VirtualEnv, "Scripts", bin))
		} else {
			paths = append(paths, filepath.Join(env.VirtualEnv, "bin", bin))
		}
	}

	if env.Home != "" {
		paths = append(paths, filepath.Join(env.Home, ".local", "bin", bin))
	}

	switch env.GOOS {
	case "windows":
		if env.Home != "" {
			for _, v := range []string{"Python313", "Python312", "Python311", "Python310", "Python39"} {
				paths = append(paths, filepath.Join(env.Home, "AppData", "Roaming", "Python", v, "Scripts", bin))
			}
			paths = append(paths, filepath.Join(env.Home, "scoop", "shims", bin))
		}
	case "darwin":
		paths = append(paths, "/opt/homebrew/bin/"+bin, "/usr/local/bin/"+bin)
	default:
		paths = append(paths, "/usr/local/bin/"+bin, "/usr/bin/"+bin, "/snap/bin/"+bin)
	}

	return append(paths, extra...)
}

// isExecutable reports whether path is a regular file the current user may run.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}

// installFunc matches ytdlp.Install.
type installFunc func(ctx context.Context, opts *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error)

// CacheResolver looks for a yt-dlp previously installed by go-ytdlp into its
// own cache directory. It never downloads.
type CacheResolver struct {
	install installFunc
}

func (r CacheResolver) Name() string { return "go-ytdlp cache" }

func (r CacheResolver) Resolve(ctx context.Context) (*Handle, error) {
	install := r.install
	if install == nil {
		install = ytdlp.Install
	}
	resolved, err := install(ctx, &ytdlp.InstallOptions{
		DisableDownload: true,
		DisableSystem:   true,
	})
	if err != nil {
		// A cache miss is reported as an error by go-ytdlp; treat it as "not here".
		return nil, nil
	}
	return &Handle{Executable: resolved.Executable, Version: resolved.Version}, nil
}

// InstallResolver downloads yt-dlp into the go-ytdlp cache.
type InstallResolver struct {
	install installFunc
}

func (r InstallResolver) Name() string { return "auto-install" }

func (r InstallResolver) Resolve(ctx context.Context) (*Handle, error) {
	install := r.install
	if install == nil {
		install = ytdlp.Install
	}
	resolved, err := install(ctx, &ytdlp.InstallOptions{DisableSystem: true})
	if err != nil {
		return nil, fmt.Errorf("installing yt-dlp: %w", err)
	}
	return &Handle{Executable: resolved.Executable, Version: resolved.Version}, nil
}

// DefaultChain builds the resolver order used by the download commands:
// PATH, known paths, the go-ytdlp cache and, when allowed, auto-install.
func DefaultChain(env Env, extraPaths []string, autoInstall bool) Chain {
	chain := Chain{
		PathResolver{Env: env},
		KnownPathsResolver{Paths: KnownPaths(env, extraPaths...)},
		CacheResolver{},
	}
	if autoInstall {
		chain = append(chain, InstallResolver{})
	}
	return chain
}
