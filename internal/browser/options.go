// internal/browser/options.go
package browser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagecap/internal/config"
)

const (
	defaultWindowWidth  = 1280
	defaultWindowHeight = 720
)

// launchFlags computes the command line flags for the browser process. Extra
// arguments from configuration are applied first so the stability flags below
// always win.
func launchFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := make(map[string]interface{})

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags[name] = parts[1]
		} else {
			flags[name] = true
		}
	}

	// Stability flags for constrained sandboxes (no setuid sandbox, no GPU, small /dev/shm).
	flags["no-sandbox"] = true
	flags["disable-gpu"] = true
	flags["disable-dev-shm-usage"] = true
	if cfg.Headless {
		flags["headless"] = "new"
	} else {
		flags["headless"] = false
	}

	width, height := cfg.WindowWidth, cfg.WindowHeight
	if width <= 0 || height <= 0 {
		width, height = defaultWindowWidth, defaultWindowHeight
	}
	flags["window-size"] = fmt.Sprintf("%d,%d", width, height)

	return flags
}

// launchEnv points the browser's profile and cache directories at a writable
// location. It is handed to the child process only.
func launchEnv(cfg config.BrowserConfig) []string {
	if cfg.HomeDir == "" {
		return nil
	}
	return []string{
		"HOME=" + cfg.HomeDir,
		"XDG_CONFIG_HOME=" + filepath.Join(cfg.HomeDir, ".config"),
		"XDG_CACHE_HOME=" + filepath.Join(cfg.HomeDir, ".cache"),
	}
}

// AllocatorOptions assembles the exec allocator options for one browser process.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := launchFlags(cfg)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if env := launchEnv(cfg); len(env) > 0 {
		opts = append(opts, chromedp.Env(env...))
	}
	return opts
}
