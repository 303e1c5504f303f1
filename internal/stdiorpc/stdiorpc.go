// Package stdiorpc is a thin newline-delimited JSON request/response framer
// for the tool-call surface. It has no opinion on tool semantics: callers
// register handlers by name and stdiorpc only owns the wire framing.
package stdiorpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Request is one decoded tool invocation.
type Request struct {
	ID     string          `json:"id"`
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
}

// Response is the framed reply for one Request.
type Response struct {
	ID     string `json:"id"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Handler executes one tool call and returns its result text or an error.
type Handler func(params json.RawMessage) (string, error)

// Server dispatches newline-delimited JSON requests read from in to
// registered handlers, writing newline-delimited JSON responses to out.
type Server struct {
	handlers map[string]Handler
}

// NewServer returns an empty Server.
func NewServer() *Server {
	return &Server{handlers: map[string]Handler{}}
}

// Register associates tool with a handler.
func (s *Server) Register(tool string, h Handler) {
	s.handlers[tool] = h
}

// Serve reads one request per line from in until EOF, dispatching each to
// its registered handler and writing the framed response to out.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(Response{Error: fmt.Sprintf("malformed request: %v", err)})
			continue
		}

		resp := s.dispatch(req)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	return scanner.Err()
}

func (s *Server) dispatch(req Request) Response {
	handler, ok := s.handlers[req.Tool]
	if !ok {
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown tool %q", req.Tool)}
	}

	result, err := handler(req.Params)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}
