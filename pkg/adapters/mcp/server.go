package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/scout"
	presentation "github.com/aretw0/scout/internal/presentation/graph"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resources exposing the workflow wiring.
const (
	GraphURI     = "scout://graph"
	GraphJSONURI = "scout://graph.json"
)

// Engine defines what the MCP server needs from scout.Engine.
type Engine interface {
	Sites() []string
	CareerPage(site string) (string, error)
	Run(ctx context.Context, site string) (*domain.State, error)
	Graph() *graph.Graph
}

// SiteEntry is one registry entry.
type SiteEntry struct {
	Name       string `json:"name" jsonschema_description:"Site identifier accepted by scout_site"`
	CareerPage string `json:"career_page" jsonschema_description:"Career page URL scouted for the site"`
}

// SitesResponse is the structured result of list_sites.
type SitesResponse struct {
	Sites []SiteEntry `json:"sites" jsonschema_description:"Registered sites"`
}

// ScoutArgs are the arguments of scout_site.
type ScoutArgs struct {
	Site string `json:"site"`
}

// Server wraps the scout Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer("scout-mcp", strings.TrimSpace(scout.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sites",
		mcp.WithDescription("List the sites scout knows, with their career page URLs."),
		mcp.WithOutputSchema[SitesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListSites))

	s.mcpServer.AddTool(mcp.NewTool("scout_site",
		mcp.WithDescription("Run the scouting workflow for one site and return the job postings found."),
		mcp.WithString("site", mcp.Required(), mcp.Description("Site identifier from list_sites")),
		mcp.WithOutputSchema[domain.RunSummary](),
	), mcp.NewStructuredToolHandler(s.handleScoutSite))
}

func (s *Server) handleListSites(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (SitesResponse, error) {
	resp := SitesResponse{Sites: []SiteEntry{}}
	for _, name := range s.engine.Sites() {
		url, err := s.engine.CareerPage(name)
		if err != nil {
			continue
		}
		resp.Sites = append(resp.Sites, SiteEntry{Name: name, CareerPage: url})
	}
	return resp, nil
}

func (s *Server) handleScoutSite(ctx context.Context, request mcp.CallToolRequest, args ScoutArgs) (domain.RunSummary, error) {
	if args.Site == "" {
		return domain.RunSummary{}, errors.New("site is required")
	}
	final, err := s.engine.Run(ctx, args.Site)
	if err != nil && final == nil {
		return domain.RunSummary{}, fmt.Errorf("scout %s: %w", args.Site, err)
	}
	if err != nil {
		s.logger.Error("MCP scout_site: run aborted", "site", args.Site, "run_id", final.RunID, "error", err)
	}
	return domain.Summarize(*final), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Scouting workflow",
		mcp.WithResourceDescription("The workflow graph as a Mermaid flowchart"),
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/vnd.mermaid",
				Text:     presentation.GenerateMermaid(s.engine.Graph().Describe(), nil),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(GraphJSONURI, "Scouting workflow (raw)",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(s.engine.Graph().Describe())
		if err != nil {
			return nil, fmt.Errorf("failed to describe graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphJSONURI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}
