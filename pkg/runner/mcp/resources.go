package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/diary/pkg/window"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerChaptersResource(srv, svc)
	registerDiaryTemplate(srv, svc)
	registerReportTemplate(srv, svc)
}

func registerChaptersResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"diary://chapters",
		"Chapters",
		mcp.WithResourceDescription("Chapters of the signed in user, in display order."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		chapters, err := svc.Chapters(ctx)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"chapters": chapters,
			"count":    len(chapters),
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerDiaryTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"diary://diaries/{id}",
		"Diary",
		mcp.WithTemplateDescription("A single diary with its detail fields."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := argument(request, "id")
		if id == "" {
			return nil, fmt.Errorf("diary id is required")
		}

		payload := map[string]any{
			"diary": svc.Detail(ctx, id),
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerReportTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"diary://reports/{month}",
		"Monthly Report",
		mcp.WithTemplateDescription("Monthly report for a YYYY-MM month."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		month, err := window.ParseMonth(argument(request, "month"), time.Local)
		if err != nil {
			return nil, err
		}

		result, err := svc.Report(ctx, month)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, result)
	})
}

// argument reads a template variable, which arrives as a string or a single
// element list depending on the client.
func argument(request mcp.ReadResourceRequest, name string) string {
	switch v := request.Params.Arguments[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
