// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Wire types for the MCP lifecycle handshake, progress, cancellation, and
// logging capability gating. Business-level methods (tools, resources,
// prompts, sampling) are out of this core's scope; see DESIGN.md.
package mcp

import "maps"

// Implementation describes the name and version of an MCP client or server.
type Implementation struct {
	// Intended for programmatic or logical use, but used as a display name in
	// past specs or fallback (if title isn't present).
	Name string `json:"name"`
	// Intended for UI and end-user contexts.
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
	// WebsiteURL for the server, if any.
	WebsiteURL string `json:"websiteUrl,omitempty"`
	// Icons for the implementation, if any.
	Icons []Icon `json:"icons,omitempty"`
}

// IconTheme specifies the theme an icon is designed for.
type IconTheme string

const (
	IconThemeLight IconTheme = "light"
	IconThemeDark  IconTheme = "dark"
)

// Icon provides a visual identifier for an implementation.
type Icon struct {
	// Source is a URI pointing to the icon resource: an http(s) URL or a
	// data URI with base64-encoded image data.
	Source string `json:"src"`
	// MIMEType is an optional MIME type if the source's type is missing or
	// generic.
	MIMEType string `json:"mimeType,omitempty"`
	// Sizes optionally specifies the icon's dimensions, e.g. "48x48" or
	// "any" for scalable formats.
	Sizes []string `json:"sizes,omitempty"`
	// Theme is an optional theme specifier.
	Theme IconTheme `json:"theme,omitempty"`
}

// RootCapabilities describes a client's support for the roots/list method.
type RootCapabilities struct {
	// ListChanged reports whether the client supports notifications for
	// changes to the roots list.
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapabilities describes a client's support for sampling.
type SamplingCapabilities struct{}

// ElicitationCapabilities describes a client's support for elicitation.
type ElicitationCapabilities struct{}

// ClientCapabilities describes the capabilities a client advertises during
// initialization. This is not a closed set: any client can define its own
// additional experimental capabilities.
type ClientCapabilities struct {
	// NOTE: any addition here must also be reflected in clone and names.

	// Experimental reports non-standard capabilities that the client
	// supports. The caller should not modify the map after assigning it.
	Experimental map[string]any `json:"experimental,omitempty"`
	// Extensions reports extensions the client supports, keyed by
	// "{vendor-prefix}/{extension-name}". Use AddExtension to ensure nil
	// settings are normalized to empty objects.
	Extensions map[string]any `json:"extensions,omitempty"`
	// Roots is present if the client supports roots.
	Roots *RootCapabilities `json:"roots,omitempty"`
	// Sampling is present if the client supports sampling from an LLM.
	Sampling *SamplingCapabilities `json:"sampling,omitempty"`
	// Elicitation is present if the client supports elicitation.
	Elicitation *ElicitationCapabilities `json:"elicitation,omitempty"`
}

// AddExtension adds an extension with the given name and settings. If
// settings is nil, an empty map is used, since the wire format requires an
// object rather than null.
func (c *ClientCapabilities) AddExtension(name string, settings map[string]any) {
	if c.Extensions == nil {
		c.Extensions = make(map[string]any)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	c.Extensions[name] = settings
}

func (c *ClientCapabilities) clone() *ClientCapabilities {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Experimental = maps.Clone(c.Experimental)
	cp.Extensions = maps.Clone(c.Extensions)
	cp.Roots = shallowClone(c.Roots)
	cp.Sampling = shallowClone(c.Sampling)
	cp.Elicitation = shallowClone(c.Elicitation)
	return &cp
}

// names returns the set of capability names c advertises, used by the
// Protocol Engine's capability gating.
func (c *ClientCapabilities) names() map[string]bool {
	names := make(map[string]bool)
	if c == nil {
		return names
	}
	if c.Roots != nil {
		names["roots"] = true
	}
	if c.Sampling != nil {
		names["sampling"] = true
	}
	if c.Elicitation != nil {
		names["elicitation"] = true
	}
	for k := range c.Extensions {
		names[k] = true
	}
	for k := range c.Experimental {
		names[k] = true
	}
	return names
}

// LoggingCapabilities describes a server's support for logging.
type LoggingCapabilities struct{}

// ServerCapabilities describes the capabilities a server advertises during
// initialization.
type ServerCapabilities struct {
	// NOTE: any addition here must also be reflected in clone and names.

	// Experimental reports non-standard capabilities that the server
	// supports. The caller should not modify the map after assigning it.
	Experimental map[string]any `json:"experimental,omitempty"`
	// Extensions reports extensions the server supports, keyed the same way
	// as ClientCapabilities.Extensions.
	Extensions map[string]any `json:"extensions,omitempty"`
	// Logging is present if the server supports log messages.
	Logging *LoggingCapabilities `json:"logging,omitempty"`
}

// AddExtension adds an extension with the given name and settings, as
// ClientCapabilities.AddExtension.
func (c *ServerCapabilities) AddExtension(name string, settings map[string]any) {
	if c.Extensions == nil {
		c.Extensions = make(map[string]any)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	c.Extensions[name] = settings
}

func (c *ServerCapabilities) clone() *ServerCapabilities {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Experimental = maps.Clone(c.Experimental)
	cp.Extensions = maps.Clone(c.Extensions)
	cp.Logging = shallowClone(c.Logging)
	return &cp
}

func (c *ServerCapabilities) names() map[string]bool {
	names := make(map[string]bool)
	if c == nil {
		return names
	}
	if c.Logging != nil {
		names["logging"] = true
	}
	for k := range c.Extensions {
		names[k] = true
	}
	for k := range c.Experimental {
		names[k] = true
	}
	return names
}

func shallowClone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	x := *p
	return &x
}

// InitializeParams are the parameters to an initialize request, sent by the
// client to open a session.
type InitializeParams struct {
	Meta `json:"_meta,omitempty"`
	// Capabilities describes the client's capabilities.
	Capabilities *ClientCapabilities `json:"capabilities"`
	// ClientInfo identifies the client.
	ClientInfo *Implementation `json:"clientInfo"`
	// ProtocolVersion is the latest MCP version the client supports.
	ProtocolVersion string `json:"protocolVersion"`
}

func (x *InitializeParams) isParams()              {}
func (x *InitializeParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *InitializeParams) SetProgressToken(t any) { setProgressToken(x, t) }

// InitializeResult is the server's reply to an initialize request.
type InitializeResult struct {
	Meta `json:"_meta,omitempty"`
	// Capabilities describes the server's capabilities.
	Capabilities *ServerCapabilities `json:"capabilities"`
	// Instructions is a free-form hint for how to use the server.
	Instructions string `json:"instructions,omitempty"`
	// ProtocolVersion is the version the server has chosen to use for the
	// remainder of the session; it may differ from what the client
	// requested. If the client cannot support this version, it must
	// disconnect.
	ProtocolVersion string          `json:"protocolVersion"`
	ServerInfo      *Implementation `json:"serverInfo"`
}

func (*InitializeResult) isResult() {}

// InitializedParams are the parameters to the initialized notification that
// finalizes the handshake.
type InitializedParams struct {
	Meta `json:"_meta,omitempty"`
}

func (x *InitializedParams) isParams()              {}
func (x *InitializedParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *InitializedParams) SetProgressToken(t any) { setProgressToken(x, t) }

// PingParams are the (empty) parameters to a ping request.
type PingParams struct {
	Meta `json:"_meta,omitempty"`
}

func (x *PingParams) isParams()              {}
func (x *PingParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *PingParams) SetProgressToken(t any) { setProgressToken(x, t) }

// PingResult is the (empty) result of a ping request.
type PingResult struct {
	Meta `json:"_meta,omitempty"`
}

func (*PingResult) isResult() {}

// CancelledParams are the parameters to a notifications/cancelled
// notification.
type CancelledParams struct {
	Meta `json:"_meta,omitempty"`
	// Reason is an optional human-readable explanation, which may be logged
	// or presented to the user.
	Reason string `json:"reason,omitempty"`
	// RequestID is the ID of the request to cancel. It must correspond to a
	// request previously issued in the same direction.
	RequestID any `json:"requestId"`
}

func (x *CancelledParams) isParams()              {}
func (x *CancelledParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *CancelledParams) SetProgressToken(t any) { setProgressToken(x, t) }

// ProgressNotificationParams are the parameters to a
// notifications/progress notification.
type ProgressNotificationParams struct {
	Meta `json:"_meta,omitempty"`
	// ProgressToken echoes the token given in the initial request, used to
	// associate this notification with the request that is proceeding.
	ProgressToken any `json:"progressToken"`
	// Message is an optional description of current progress.
	Message string `json:"message,omitempty"`
	// Progress is the amount of work done so far. It should increase every
	// time progress is made, even if the total is unknown.
	Progress float64 `json:"progress"`
	// Total is the total amount of work required, if known. Zero means
	// unknown.
	Total float64 `json:"total,omitempty"`
}

func (x *ProgressNotificationParams) isParams()              {}
func (x *ProgressNotificationParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *ProgressNotificationParams) SetProgressToken(t any) { setProgressToken(x, t) }

// LoggingLevel is the severity of a log message. These map to syslog
// message severities, as specified in RFC-5424 §6.2.1.
type LoggingLevel string

const (
	LoggingLevelDebug     LoggingLevel = "debug"
	LoggingLevelInfo      LoggingLevel = "info"
	LoggingLevelNotice    LoggingLevel = "notice"
	LoggingLevelWarning   LoggingLevel = "warning"
	LoggingLevelError     LoggingLevel = "error"
	LoggingLevelCritical  LoggingLevel = "critical"
	LoggingLevelAlert     LoggingLevel = "alert"
	LoggingLevelEmergency LoggingLevel = "emergency"
)

// SetLoggingLevelParams are the parameters to a logging/setLevel request.
type SetLoggingLevelParams struct {
	Meta `json:"_meta,omitempty"`
	// Level is the minimum severity the client wants to receive; the server
	// should send all logs at this level and higher (more severe) as
	// notifications/message.
	Level LoggingLevel `json:"level"`
}

func (x *SetLoggingLevelParams) isParams()              {}
func (x *SetLoggingLevelParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *SetLoggingLevelParams) SetProgressToken(t any) { setProgressToken(x, t) }

// SetLoggingLevelResult is the (empty) result of logging/setLevel.
type SetLoggingLevelResult struct {
	Meta `json:"_meta,omitempty"`
}

func (*SetLoggingLevelResult) isResult() {}

// LoggingMessageParams are the parameters to a notifications/message
// notification.
type LoggingMessageParams struct {
	Meta `json:"_meta,omitempty"`
	// Data is the log payload; any JSON-serializable value is allowed.
	Data any `json:"data"`
	// Level is the severity of this message.
	Level LoggingLevel `json:"level"`
	// Logger optionally names the logger that issued this message.
	Logger string `json:"logger,omitempty"`
}

func (x *LoggingMessageParams) isParams()              {}
func (x *LoggingMessageParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *LoggingMessageParams) SetProgressToken(t any) { setProgressToken(x, t) }

// Reserved JSON-RPC and MCP error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeServerNotInitialized is MCP's generic protocol error code, used
	// for "Server not initialized" among other conditions.
	CodeServerNotInitialized = -32000
	// CodeSessionNotFound signals that the session named by mcp-session-id
	// no longer exists on the server.
	CodeSessionNotFound = -32001

	// CodeConnectionClosed is a client-local, non-wire code assigned to
	// requests whose waiter resolves because the transport closed.
	CodeConnectionClosed = -1

	// CodeRequestTimeout is a client-local, non-wire code assigned to
	// requests whose configured timeout elapsed before a response arrived.
	// It shares the generic protocol error bucket (-32000); the message
	// distinguishes the condition.
	CodeRequestTimeout = -32000

	// CodeRateLimitExceeded is returned by [RateLimit] middleware when a
	// request arrives after its token bucket is exhausted. It too shares
	// the generic protocol error bucket.
	CodeRateLimitExceeded = -32000
)

// SupportedProtocolVersions are the protocol versions this core
// understands, ordered oldest to newest.
var SupportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
	"2025-06-18",
}

// LatestProtocolVersion is the newest version this core speaks.
const LatestProtocolVersion = "2025-06-18"

func isSupportedProtocolVersion(v string) bool {
	for _, s := range SupportedProtocolVersions {
		if s == v {
			return true
		}
	}
	return false
}

// negotiateProtocolVersion implements the server's version-negotiation
// policy: echo the client's version if supported, else offer the latest
// version this server understands. A client that cannot support the
// returned version must disconnect.
func negotiateProtocolVersion(requested string) string {
	if isSupportedProtocolVersion(requested) {
		return requested
	}
	return LatestProtocolVersion
}

const (
	methodInitialize         = "initialize"
	notificationInitialized  = "notifications/initialized"
	methodPing               = "ping"
	notificationCancelled    = "notifications/cancelled"
	notificationProgress     = "notifications/progress"
	methodSetLevel           = "logging/setLevel"
	notificationLoggingMessage = "notifications/message"
)
