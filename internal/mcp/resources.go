package mcp

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/civil"
	"github.com/mark3labs/mcp-go/mcp"
)

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
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

func (h *handlers) stats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.ds.DataStats(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, stats)
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	today := civil.DateOf(h.now())
	workouts, err := h.ds.ListWorkouts(ctx, today.AddDays(-14).String(), today.String())
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, workouts)
}

func (h *handlers) activePrograms(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	programs, err := h.ds.ListPrograms(ctx, true)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, programs)
}
