//go:build windows

package dagbok

var runtimeLibraryNames = []string{
	"onnxruntime.dll",
}

var runtimeLibraryDirs []string
