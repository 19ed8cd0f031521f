package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidchat/internal/middleware"
	"vidchat/internal/session"
)

// Sessions is the subset of session.Manager the tools need.
type Sessions interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
}

type Handler struct {
	sessions    Sessions
	streams     map[string]chan string // stream id -> serialized JSON-RPC responses
	streamsLock sync.RWMutex
}

func NewHandler(s Sessions) *Handler {
	return &Handler{
		sessions: s,
		streams:  make(map[string]chan string),
	}
}

// JSON-RPC Request types
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ProcessVideoArgs struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type AskArgs struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type HistoryArgs struct {
	SessionID string `json:"session_id"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// JSON-RPC Response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
)

func stringProp(desc string) map[string]string {
	return map[string]string{"type": "string", "description": desc}
}

var tools = []Tool{
	{
		Name: "vidchat_open_session",
		Description: `Creates a chat session. Every other tool needs the returned session id.

USAGE EXAMPLE:
vidchat_open_session()`,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	},
	{
		Name: "vidchat_process_video",
		Description: `Fetches a YouTube video's transcript and indexes it for the session. Replaces any previously processed video and clears the session's history.

USAGE EXAMPLE:
vidchat_process_video(session_id="...", url="https://www.youtube.com/watch?v=dQw4w9WgXcQ")`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_id": stringProp("The session id"),
				"url":        stringProp("A youtube.com or youtu.be video URL"),
			},
			"required": []string{"session_id", "url"},
		},
	},
	{
		Name: "vidchat_ask",
		Description: `Answers a question about the session's video. Answers come from the transcript when it covers the question, otherwise from general knowledge with a disclaimer.

USAGE EXAMPLE:
vidchat_ask(session_id="...", question="What is the main argument?")`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_id": stringProp("The session id"),
				"question":   stringProp("The question to answer"),
			},
			"required": []string{"session_id", "question"},
		},
	},
	{
		Name: "vidchat_history",
		Description: `Lists the session's questions and answers for the current video.

USAGE EXAMPLE:
vidchat_history(session_id="...")`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_id": stringProp("The session id"),
			},
			"required": []string{"session_id"},
		},
	},
}

// processRequest processes the JSON-RPC request and returns a response.
// Returns nil if no response should be sent (e.g. for notifications).
func (h *Handler) processRequest(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	if req.JSONRPC != "2.0" || req.Method == "" {
		slog.WarnContext(ctx, "invalid jsonrpc request", "jsonrpc", req.JSONRPC, "method", req.Method)
		resp := makeErrorResponse(req.ID, ErrInvalidRequest, "Invalid Request")
		return &resp
	}

	switch req.Method {
	case "initialize":
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
				"serverInfo": map[string]interface{}{
					"name":    "vidchat-mcp",
					"version": "1.0.0",
				},
			},
		}
	case "notifications/initialized":
		return nil
	case "tools/list":
		return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: ListToolsResult{Tools: tools}}
	case "tools/call":
		var params CallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			slog.WarnContext(ctx, "invalid params structure", "error", err)
			resp := makeErrorResponse(req.ID, ErrInvalidParams, "Invalid params")
			return &resp
		}
		return h.callTool(ctx, req.ID, params)
	}

	slog.WarnContext(ctx, "unknown jsonrpc method", "method", req.Method)
	resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found")
	return &resp
}

func (h *Handler) callTool(ctx context.Context, id interface{}, params CallParams) *JSONRPCResponse {
	switch params.Name {
	case "vidchat_open_session":
		s := h.sessions.Create()
		return textResult(id, "Session opened.\nsession_id: "+s.ID)

	case "vidchat_process_video":
		var args ProcessVideoArgs
		if err := unmarshalArgs(params.Arguments, &args); err != nil || args.SessionID == "" || strings.TrimSpace(args.URL) == "" {
			resp := makeErrorResponse(id, ErrInvalidParams, "session_id and url are required")
			return &resp
		}
		s, errResp := h.session(ctx, id, args.SessionID)
		if errResp != nil {
			return errResp
		}
		res, err := s.ProcessVideo(middleware.WithSessionID(ctx, s.ID), strings.TrimSpace(args.URL))
		if err != nil {
			return toolError(ctx, id, err)
		}
		slog.InfoContext(ctx, "tool execution completed", "tool", params.Name, "video_id", res.VideoID, "chunks", res.Chunks)
		return textResult(id, fmt.Sprintf("Video processed.\nvideo_id: %s\nchunks: %d", res.VideoID, res.Chunks))

	case "vidchat_ask":
		var args AskArgs
		if err := unmarshalArgs(params.Arguments, &args); err != nil || args.SessionID == "" {
			resp := makeErrorResponse(id, ErrInvalidParams, "session_id and question are required")
			return &resp
		}
		s, errResp := h.session(ctx, id, args.SessionID)
		if errResp != nil {
			return errResp
		}
		reply, err := s.Ask(middleware.WithSessionID(ctx, s.ID), args.Question)
		if err != nil {
			return toolError(ctx, id, err)
		}
		slog.InfoContext(ctx, "tool execution completed", "tool", params.Name, "mode", reply.Mode)
		return textResult(id, reply.Text)

	case "vidchat_history":
		var args HistoryArgs
		if err := unmarshalArgs(params.Arguments, &args); err != nil || args.SessionID == "" {
			resp := makeErrorResponse(id, ErrInvalidParams, "session_id is required")
			return &resp
		}
		s, errResp := h.session(ctx, id, args.SessionID)
		if errResp != nil {
			return errResp
		}
		videoID, _, turns := s.Snapshot()
		if videoID == "" && len(turns) == 0 {
			return textResult(id, "No video processed yet.")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Video: %s\n", videoID)
		if len(turns) == 0 {
			b.WriteString("No questions asked yet.\n")
		}
		for i, t := range turns {
			fmt.Fprintf(&b, "\n%d. Q: %s\n   A: %s\n", i+1, t.Question, t.Answer)
		}
		return textResult(id, b.String())
	}

	slog.WarnContext(ctx, "method not found", "method", params.Name)
	resp := makeErrorResponse(id, ErrMethodNotFound, "Method not found: "+params.Name)
	return &resp
}

func (h *Handler) session(ctx context.Context, id interface{}, sessionID string) (*session.Session, *JSONRPCResponse) {
	s, err := h.sessions.Get(sessionID)
	if err != nil {
		return nil, toolError(ctx, id, err)
	}
	return s, nil
}

func unmarshalArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(raw, v)
}

func textResult(id interface{}, text string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  ToolResult{Content: []ToolContent{{Type: "text", Text: text}}},
	}
}

// toolError reports domain failures inside the tool result so the calling
// agent can read them.
func toolError(ctx context.Context, id interface{}, err error) *JSONRPCResponse {
	var msg string
	switch {
	case errors.Is(err, session.ErrNotFound):
		msg = "Session not found. Open one with vidchat_open_session."
	case errors.Is(err, session.ErrInvalidURL):
		msg = "Invalid YouTube URL"
	case errors.Is(err, session.ErrUnavailable):
		msg = "Transcript not available for this video"
	case errors.Is(err, session.ErrNoVideo):
		msg = "No video processed yet. Call vidchat_process_video first."
	case errors.Is(err, session.ErrEmptyQuestion):
		msg = "Question is required"
	default:
		slog.ErrorContext(ctx, "tool execution failed", "error", err)
		msg = "Error: " + err.Error()
	}
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolResult{
			Content: []ToolContent{{Type: "text", Text: msg}},
			IsError: true,
		},
	}
}

func makeErrorResponse(id interface{}, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, nil, ErrParse, "Parse error")
		return
	}

	resp := h.processRequest(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// HandleSSE opens an event stream and announces the endpoint its messages
// should be posted to.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.WarnContext(r.Context(), "failed to clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	streamID := uuid.New().String()
	msgChan := make(chan string, 100)

	h.streamsLock.Lock()
	h.streams[streamID] = msgChan
	h.streamsLock.Unlock()

	defer func() {
		h.streamsLock.Lock()
		delete(h.streams, streamID)
		close(msgChan)
		h.streamsLock.Unlock()
		slog.Info("sse stream ended", "stream_id", streamID)
	}()

	slog.Info("sse stream started", "stream_id", streamID)

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s/mcp/messages?sessionId=%s", scheme, r.Host, streamID)

	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", html.EscapeString(endpoint))
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-msgChan:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// HandleMessage accepts a JSON-RPC message for an open stream and answers
// on that stream.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	streamID := r.URL.Query().Get("sessionId")
	if streamID == "" {
		h.writeHttpError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing sessionId", correlationID)
		return
	}

	h.streamsLock.RLock()
	_, exists := h.streams[streamID]
	h.streamsLock.RUnlock()

	if !exists {
		slog.Warn("stream not found", "stream_id", streamID, "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", correlationID)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeHttpError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON", correlationID)
		return
	}

	w.WriteHeader(http.StatusAccepted)

	// Keep context values (correlation id) but not the request's cancellation.
	bgCtx := context.WithoutCancel(r.Context())

	go func() {
		resp := h.processRequest(bgCtx, req)
		if resp == nil {
			return
		}

		respBytes, err := json.Marshal(resp)
		if err != nil {
			slog.Error("failed to marshal response", "error", err, "correlation_id", correlationID)
			return
		}

		// The read lock keeps the stream from being closed mid-send.
		h.streamsLock.RLock()
		defer h.streamsLock.RUnlock()

		msgChan, ok := h.streams[streamID]
		if !ok {
			slog.Warn("stream closed before response", "stream_id", streamID, "correlation_id", correlationID)
			return
		}
		select {
		case msgChan <- string(respBytes):
		default:
			slog.Warn("stream channel full, dropping message", "stream_id", streamID, "correlation_id", correlationID)
		}
	}()
}

func (h *Handler) writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	// JSON-RPC errors travel with HTTP 200.
	w.WriteHeader(http.StatusOK)

	resp := makeErrorResponse(id, code, message)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeHttpError(w http.ResponseWriter, status int, code string, message string, correlationID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"status": "error",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"correlationId": correlationID,
	}
	json.NewEncoder(w).Encode(resp)
}
