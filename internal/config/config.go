// Package config handles the ambient environment configuration the CLI
// driver layers under its own flags (spec.md §6 "Environment variables":
// include-search-path augmentation and a cache directory override are the
// only recognized variables; every other knob goes through CLI options).
//
// A `.safeccenv` file, if present in the current directory, is loaded with
// github.com/joho/godotenv before the environment is read, the same way
// the teacher's own tooling optionally layers a dotenv file under
// os.Getenv rather than requiring variables to already be exported.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envIncludePath = "SAFECC_INCLUDE_PATH"
	envCacheDir    = "SAFECC_CACHE_DIR"
)

// Env is the environment-sourced configuration, loaded once per process
// before CLI flags are parsed.
type Env struct {
	// IncludePaths augments the CLI's `-I` search path list; entries here
	// are searched after every `-I` path.
	IncludePaths []string
	// CacheDir overrides the default incremental-build cache directory;
	// the CLI's `--cache-dir` flag, when given, wins over this.
	CacheDir string
}

// LoadEnv loads `.safeccenv` (if present) into the process environment and
// returns the two recognized variables. Errors loading the dotenv file are
// ignored, matching the pack's own "optional file, missing is not an
// error" convention for dotenv loading.
func LoadEnv() Env {
	_ = godotenv.Load(".safeccenv")

	var env Env
	if raw := os.Getenv(envIncludePath); raw != "" {
		for _, p := range strings.Split(raw, string(os.PathListSeparator)) {
			if p = strings.TrimSpace(p); p != "" {
				env.IncludePaths = append(env.IncludePaths, p)
			}
		}
	}
	env.CacheDir = os.Getenv(envCacheDir)
	return env
}

// Merge combines the environment defaults with CLI-supplied values.
// CLI include paths are searched first, then the environment's; an
// explicit CLI cache dir always wins over the environment's.
func (e Env) Merge(cliIncludePaths []string, cliCacheDir string) (includePaths []string, cacheDir string) {
	includePaths = append(append([]string{}, cliIncludePaths...), e.IncludePaths...)
	cacheDir = cliCacheDir
	if cacheDir == "" {
		cacheDir = e.CacheDir
	}
	return includePaths, cacheDir
}
