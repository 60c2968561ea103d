//go:build onnx

package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Environment variables consulted when locating the ONNX Runtime library.
const (
	envORTLibPath = "VOICEGUARD_ORT_LIB_PATH"
	envDevMode    = "VOICEGUARD_DEV_MODE"
)

// resolveORTLibPath returns the path to the ONNX Runtime shared library.
// Search order:
//  1. VOICEGUARD_ORT_LIB_PATH
//  2. lib/<goos>-<goarch>/ and ../lib/<goos>-<goarch>/ next to the executable
//  3. the same two paths under the working directory, only with VOICEGUARD_DEV_MODE=1
//
// The working directory is never searched outside dev mode so a library
// dropped next to a user's files cannot be loaded.
func resolveORTLibPath() (string, error) {
	if p := os.Getenv(envORTLibPath); p != "" {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("ort: %s=%q does not exist", envORTLibPath, p)
		}
		if info.IsDir() {
			return "", fmt.Errorf("ort: %s=%q is a directory, expected a file", envORTLibPath, p)
		}
		return p, nil
	}

	name := ortLibFilename()
	platform := runtime.GOOS + "-" + runtime.GOARCH
	candidates := []string{
		filepath.Join("lib", platform, name),
		filepath.Join("..", "lib", platform, name),
	}

	var roots []string
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	if os.Getenv(envDevMode) == "1" {
		if wd, err := os.Getwd(); err == nil {
			roots = append(roots, wd)
		}
	}

	for _, root := range roots {
		for _, rel := range candidates {
			p := filepath.Join(root, rel)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("ort: %s not found under lib/%s next to the executable (set %s, or %s=1 for working-directory lookup)",
		name, platform, envORTLibPath, envDevMode)
}

func ortLibFilename() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
