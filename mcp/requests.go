// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the request types.

package mcp

// Requests the client sends and the server handles.
type (
	InitializeRequest                  = ServerRequest[*InitializeParams]
	InitializedRequest                 = ServerRequest[*InitializedParams]
	PingServerRequest                  = ServerRequest[*PingParams]
	CancelledServerRequest             = ServerRequest[*CancelledParams]
	ProgressNotificationServerRequest  = ServerRequest[*ProgressNotificationParams]
	SetLoggingLevelRequest             = ServerRequest[*SetLoggingLevelParams]
)

// Requests the server sends and the client handles.
type (
	PingClientRequest                 = ClientRequest[*PingParams]
	CancelledClientRequest            = ClientRequest[*CancelledParams]
	ProgressNotificationClientRequest = ClientRequest[*ProgressNotificationParams]
	LoggingMessageRequest             = ClientRequest[*LoggingMessageParams]
)
