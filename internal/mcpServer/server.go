package mcpServer

import (
	"context"
	"errors"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/rag"
	"github.com/akolanti/docgenie/internal/rag/ingest"
	"github.com/akolanti/docgenie/internal/session"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultSessionId is used by tool calls that do not name a session.
const DefaultSessionId = "default"

type Server struct {
	manager *session.Manager
	server  *mcp.Server
	logger  *logger_i.Logger
}

type IndexInput struct {
	SessionId string   `json:"session_id,omitempty" jsonschema:"conversation to index into, defaults to the shared one"`
	Paths     []string `json:"paths" jsonschema:"pdf or docx files to index, replacing the current index"`
}

type IndexOutput struct {
	SessionId   string   `json:"session_id"`
	Documents   int      `json:"documents"`
	Supported   int      `json:"supported"`
	Chunks      int      `json:"chunks"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

type AskInput struct {
	SessionId string `json:"session_id,omitempty" jsonschema:"conversation to ask in, defaults to the shared one"`
	Question  string `json:"question" jsonschema:"the question about the indexed documents"`
}

type AskOutput struct {
	SessionId string   `json:"session_id"`
	Status    string   `json:"status"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources,omitempty"`
	Turns     int      `json:"turns"`
}

type SessionInput struct {
	SessionId string `json:"session_id,omitempty" jsonschema:"conversation, defaults to the shared one"`
}

type HistoryOutput struct {
	SessionId string                 `json:"session_id"`
	Messages  []commonModels.Message `json:"messages"`
}

type ResetOutput struct {
	SessionId string `json:"session_id"`
	State     string `json:"state"`
}

func New(manager *session.Manager, version string) *Server {
	s := &Server{
		manager: manager,
		server:  mcp.NewServer(&mcp.Implementation{Name: "docgenie", Version: version}, nil),
		logger:  logger_i.NewLogger("mcp"),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_documents",
		Description: "Index pdf and docx files for question answering. Other formats are skipped and reported.",
	}, s.indexDocuments)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about the indexed documents. The conversation so far is taken into account.",
	}, s.ask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "history",
		Description: "Return the conversation as alternating user and assistant messages.",
	}, s.history)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset",
		Description: "Drop the index and the conversation history.",
	}, s.reset)
	return s
}

// Run serves the tools over stdin and stdout until ctx ends or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one client over t; tests use in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) session(id string) (*session.Session, error) {
	if id == "" {
		id = DefaultSessionId
	}
	return s.manager.CreateWithId(id)
}

func (s *Server) indexDocuments(ctx context.Context, _ *mcp.CallToolRequest, in IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	if len(in.Paths) == 0 {
		return nil, IndexOutput{}, errors.New("paths is required")
	}
	sess, err := s.session(in.SessionId)
	if err != nil {
		return nil, IndexOutput{}, err
	}

	docs := make([]commonModels.Document, 0, len(in.Paths))
	var unreadable []string
	for _, p := range in.Paths {
		doc, err := ingest.LoadDocument(p, "", "")
		if err != nil {
			unreadable = append(unreadable, err.Error())
			continue
		}
		docs = append(docs, doc)
	}

	report, err := sess.Build(ctx, docs)
	out := IndexOutput{
		SessionId:   sess.Id,
		Documents:   len(in.Paths),
		Supported:   report.Supported,
		Chunks:      report.Chunks,
		Diagnostics: append(unreadable, report.Diagnostics...),
	}
	if err != nil {
		s.logger.WithContext(ctx).Warn("index_documents failed", "sessionId", sess.Id, "error", err)
		return nil, out, err
	}
	return nil, out, nil
}

func (s *Server) ask(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if in.Question == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}
	sess, err := s.session(in.SessionId)
	if err != nil {
		return nil, AskOutput{}, err
	}
	res, err := sess.Ask(ctx, in.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	out := AskOutput{SessionId: sess.Id, Status: string(res.Status), Answer: res.Answer, Turns: len(res.History)}
	if res.Status == rag.Answered {
		out.Sources = commonModels.Sources(res.Turn.Retrieved)
	}
	return nil, out, nil
}

func (s *Server) history(ctx context.Context, _ *mcp.CallToolRequest, in SessionInput) (*mcp.CallToolResult, HistoryOutput, error) {
	sess, err := s.session(in.SessionId)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	messages, err := sess.Transcript(ctx)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	return nil, HistoryOutput{SessionId: sess.Id, Messages: messages}, nil
}

func (s *Server) reset(ctx context.Context, _ *mcp.CallToolRequest, in SessionInput) (*mcp.CallToolResult, ResetOutput, error) {
	sess, err := s.session(in.SessionId)
	if err != nil {
		return nil, ResetOutput{}, err
	}
	if err := sess.Reset(ctx); err != nil {
		return nil, ResetOutput{}, err
	}
	return nil, ResetOutput{SessionId: sess.Id, State: string(sess.Info().State)}, nil
}
