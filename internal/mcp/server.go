package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/webchat/internal/bots"
	"github.com/ziadkadry99/webchat/internal/chat"
	"github.com/ziadkadry99/webchat/internal/transcript"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Path is where the streamable HTTP transport is mounted.
const Path = "/mcp"

// Sessions is the view of the live session hub the tools need.
type Sessions interface {
	List(endpointID string) []chat.LiveSession
	bots.Pusher
}

// Server wraps an MCP server that lets agents watch and take part in
// live widget conversations.
type Server struct {
	sessions    Sessions
	transcripts *transcript.Store
	mcp         *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(sessions Sessions, transcripts *transcript.Store) *Server {
	s := &Server{
		sessions:    sessions,
		transcripts: transcripts,
	}

	s.mcp = server.NewMCPServer(
		"webchat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listLiveSessionsTool, s.handleListLiveSessions)
	s.mcp.AddTool(sendBotMessageTool, s.handleSendBotMessage)
	s.mcp.AddTool(getTranscriptTool, s.handleGetTranscript)
}

// Handler returns the streamable HTTP transport, to be mounted at Path.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp, server.WithEndpointPath(Path))
}
