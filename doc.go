// Package dagbok provides on-device emotion analysis and short-text
// generation for journal entries, running pre-trained transformer models
// through a local ONNX Runtime. No network, no Python, no containers.
package dagbok
