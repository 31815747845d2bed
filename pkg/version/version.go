package version

// Version is the release version, overridable at link time.
var Version = "0.3.0"

// ProtocolVersion is the MCP protocol revision the server speaks by default.
const ProtocolVersion = "2024-11-05"

// SupportedProtocolVersions lists every revision the server accepts during
// initialize negotiation.
var SupportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
}
