//go:build !windows

package dagbok

var runtimeLibraryNames = []string{
	"libonnxruntime.so",
	"libonnxruntime.so.1",
	"libonnxruntime.dylib",
}

var runtimeLibraryDirs = []string{
	"/usr/local/lib",
	"/usr/lib",
	"/opt/homebrew/lib",
}
