package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listLiveSessionsTool defines the list_live_sessions MCP tool.
var listLiveSessionsTool = mcp.NewTool("list_live_sessions",
	mcp.WithDescription("List widget chat sessions that are connected right now, oldest first."),
	mcp.WithString("endpoint_id",
		mcp.Description("Only list sessions opened through this widget endpoint"),
	),
)

// sendBotMessageTool defines the send_bot_message MCP tool.
var sendBotMessageTool = mcp.NewTool("send_bot_message",
	mcp.WithDescription("Send a message as the bot into a live session. It is typed out in the widget after any message already rendering."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("ID of a live session"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Message text"),
	),
	mcp.WithArray("quick_replies",
		mcp.Description("Suggested replies shown as buttons under the message"),
		mcp.WithStringItems(),
	),
)

// getTranscriptTool defines the get_transcript MCP tool.
var getTranscriptTool = mcp.NewTool("get_transcript",
	mcp.WithDescription("Get the Markdown transcript of a chat session, live or ended."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session ID"),
	),
)
