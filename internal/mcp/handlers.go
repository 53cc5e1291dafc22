package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/webchat/internal/bots"
	"github.com/ziadkadry99/webchat/internal/chat"
	"github.com/ziadkadry99/webchat/internal/transcript"
)

// handleListLiveSessions lists connected sessions.
func (s *Server) handleListLiveSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions := s.sessions.List(request.GetString("endpoint_id", ""))
	if len(sessions) == 0 {
		return mcp.NewToolResultText("No live sessions."), nil
	}
	return mcp.NewToolResultText(formatSessions(sessions)), nil
}

// handleSendBotMessage pushes one bot message into a live session.
func (s *Server) handleSendBotMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	text, err := request.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	reply := bots.Reply{Text: text, QuickReplies: request.GetStringSlice("quick_replies", nil)}
	if err := s.sessions.Push(sessionID, []bots.Reply{reply}); err != nil {
		if errors.Is(err, bots.ErrUnknownSession) {
			return mcp.NewToolResultError(fmt.Sprintf("session %q is not live", sessionID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("push failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Message queued for session %s.", sessionID)), nil
}

// handleGetTranscript returns a session transcript as Markdown.
func (s *Server) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	t, err := s.transcripts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, transcript.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no transcript for session %q", sessionID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load transcript: %v", err)), nil
	}
	return mcp.NewToolResultText(transcript.Markdown(t)), nil
}

func formatSessions(sessions []chat.LiveSession) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d live session(s):\n", len(sessions)))
	for _, ls := range sessions {
		sb.WriteString(fmt.Sprintf("\n- %s (endpoint %s, started %s, %s, %d queued)",
			ls.ID, ls.EndpointID, ls.StartedAt.Format("2006-01-02 15:04:05"), ls.State, ls.Pending))
	}
	sb.WriteString("\n")
	return sb.String()
}
