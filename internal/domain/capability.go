package domain

// Operation is the single action a capability grants on a resource path.
type Operation string

const (
	OperationUpload   Operation = "upload"
	OperationDownload Operation = "download"
)

// ParseOperation validates the wire form of an operation.
func ParseOperation(raw string) (Operation, bool) {
	switch Operation(raw) {
	case OperationUpload:
		return OperationUpload, true
	case OperationDownload:
		return OperationDownload, true
	default:
		return "", false
	}
}

// CapabilityPayload is the exact field set bound by the capability signature.
// Field order is fixed here and must stay identical on the issue and verify
// sides. Exp is epoch milliseconds and always numeric; signing a string-typed
// expiry would silently break every capability.
type CapabilityPayload struct {
	Path      string    `json:"path"`
	Operation Operation `json:"op"`
	Exp       int64     `json:"exp"`
	SubjectID string    `json:"uid"`
	Secret    string    `json:"api_secret_hash"`
}
