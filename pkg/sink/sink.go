package sink

// Supported output format names.
const (
	FormatJSON = "json"
	FormatOBJ  = "obj"
)

// Formats lists every supported format name.
var Formats = []string{FormatJSON, FormatOBJ}

// ContentType returns the MIME type for a format name.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatOBJ:
		return "model/obj"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension, with dot, for a format name.
func Extension(format string) string {
	return "." + format
}
