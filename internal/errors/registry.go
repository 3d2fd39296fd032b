package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Internal consistency (R001-R009)
	// ============================================

	"R001": {
		Category: CategoryInternal,
		Message:  "Unknown token",
		Detail:   "A string token was resolved that the interner never issued. The token tables are append-only, so this indicates state corruption or tokens shared between engines.",
		DocURL:   "https://vmirror.dev/docs/errors/R001",
	},
	"R002": {
		Category: CategoryInternal,
		Message:  "Unregistered class set token",
		Detail:   "A class set token was used that the class registry never produced.",
		DocURL:   "https://vmirror.dev/docs/errors/R002",
	},
	"R003": {
		Category: CategoryRuntime,
		Message:  "Element not found",
		Detail:   "The external target has no live element for a committed node id. The target was probably mutated outside the engine.",
		DocURL:   "https://vmirror.dev/docs/errors/R003",
	},
	"R004": {
		Category: CategoryRuntime,
		Message:  "Node not mounted",
		Detail:   "The operation needs a committed counterpart, but the tree was never flushed to the external target.",
		DocURL:   "https://vmirror.dev/docs/errors/R004",
	},
	"R005": {
		Category: CategoryInput,
		Message:  "Reserved attribute",
		Detail:   "The \"id\" and \"class\" attributes are managed by the engine. Use node keys for identity and class lists for classes.",
		DocURL:   "https://vmirror.dev/docs/errors/R005",
	},
	"R006": {
		Category: CategoryInternal,
		Message:  "Token space exhausted",
		Detail:   "More than 32767 distinct values were registered in a single token tier.",
		DocURL:   "https://vmirror.dev/docs/errors/R006",
	},
	"R007": {
		Category: CategoryRuntime,
		Message:  "External target failure",
		Detail:   "The external target rejected a mutation. The target may be partially synchronized.",
		DocURL:   "https://vmirror.dev/docs/errors/R007",
	},

	"R008": {
		Category: CategoryInput,
		Message:  "Invalid node",
		Detail:   "A node could not be constructed. Tags must be non-empty and a node can only be attached to one parent.",
		DocURL:   "https://vmirror.dev/docs/errors/R008",
	},

	// ============================================
	// Input and protocol (R010-R019)
	// ============================================

	"R010": {
		Category: CategoryInput,
		Message:  "Invalid tree description",
		Detail:   "The tree description file could not be converted into nodes.",
		DocURL:   "https://vmirror.dev/docs/errors/R010",
	},
	"R011": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A wire frame could not be decoded.",
		DocURL:   "https://vmirror.dev/docs/errors/R011",
	},
	"R012": {
		Category: CategoryProtocol,
		Message:  "Unknown event listener",
		Detail:   "An event was delegated for a (type, selector) pair with no registered listener.",
		DocURL:   "https://vmirror.dev/docs/errors/R012",
	},

	// ============================================
	// Configuration Errors (C120-C139)
	// ============================================

	"C120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "vmirror.json could not be read or parsed.",
		DocURL:   "https://vmirror.dev/docs/errors/C120",
	},
	"C122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
		DocURL:   "https://vmirror.dev/docs/errors/C122",
	},
	"C123": {
		Category: CategoryConfig,
		Message:  "Snapshots not configured",
		Detail:   "Set snapshot.bucket or snapshot.dir in vmirror.json to store snapshots.",
		DocURL:   "https://vmirror.dev/docs/errors/C123",
	},

	// ============================================
	// CLI Errors (C140-C159)
	// ============================================

	"C141": {
		Category: CategoryCLI,
		Message:  "Config file not found",
		Detail:   "No vmirror.json was found.",
		DocURL:   "https://vmirror.dev/docs/errors/C141",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
