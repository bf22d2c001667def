package dagbok

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime initializes the shared ONNX Runtime environment once per
// process. An explicit libraryPath wins over the ONNXRUNTIME_SHARED_LIBRARY_PATH
// environment variable, which wins over a search of conventional locations.
func initRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		runtimeErr = doInitRuntime(libraryPath)
	})
	return runtimeErr
}

func doInitRuntime(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}

	path := libraryPath
	if path == "" {
		path = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if path == "" {
		path = findRuntimeLibrary()
	}
	if path == "" {
		return errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}

	ort.SetSharedLibraryPath(path)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "initialize onnxruntime")
	}
	return nil
}

func findRuntimeLibrary() string {
	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	dirs = append(dirs, runtimeLibraryDirs...)

	for _, dir := range dirs {
		for _, name := range runtimeLibraryNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}
