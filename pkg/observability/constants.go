package observability

const (
	AttrToolName     = "tool.name"
	AttrToolCategory = "tool.category"
	AttrToolStatus   = "tool.status"
	AttrBackendKind  = "backend.kind"
	AttrBackendName  = "backend.name"
	AttrErrorKind    = "error.kind"

	SpanToolInvocation = "tool.invoke"
	SpanBackendConnect = "backend.connect"

	DefaultServiceName = "quiver"
)
