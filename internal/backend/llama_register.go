package backend

// LlamaBackendName is both the registry key and the reported backend name
// of the llama.cpp runtime.
const LlamaBackendName = "llama.cpp"

// LlamaBuilt reports whether the binary carries real llama.cpp support.
func LlamaBuilt() bool { return llamaBuilt }

func init() {
	Register(LlamaBackendName, newLlamaRuntime)
}
