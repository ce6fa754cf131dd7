package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/diary/pkg/window"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerDayViewTool(srv, svc)
	registerGridViewTool(srv, svc, "week_view", window.Week)
	registerGridViewTool(srv, svc, "month_view", window.Month)
	registerDetailTool(srv, svc)
	registerExploreTool(srv, svc)
	registerReportTool(srv, svc)
}

func withDate() mcp.ToolOption {
	return mcp.WithString("date",
		mcp.Description("Date inside the window as YYYY-MM-DD (default today)."),
	)
}

func withChapter(required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{mcp.Description("Chapter identifier the window belongs to.")}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString("chapter", opts...)
}

func registerDayViewTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"day_view",
		mcp.WithDescription("Show the latest diary written on a day in a chapter, with its picture resolved."),
		withDate(),
		withChapter(true),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chapter, err := request.RequireString("chapter")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		date, err := parseDate(request.GetString("date", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(svc.Day(ctx, date, chapter))
	})
}

func registerGridViewTool(srv *server.MCPServer, svc *Service, name string, kind window.Kind) {
	tool := mcp.NewTool(
		name,
		mcp.WithDescription(fmt.Sprintf("Show the %s calendar of a chapter: one cell per day with the picture of that day's diary.", kind)),
		withDate(),
		withChapter(true),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chapter, err := request.RequireString("chapter")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		date, err := parseDate(request.GetString("date", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.Grid(ctx, kind, date, chapter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerDetailTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"diary_detail",
		mcp.WithDescription("Show one diary with comments, likes and bookmarks, either by id or by date and chapter."),
		mcp.WithString("id",
			mcp.Description("Diary identifier."),
		),
		withDate(),
		withChapter(false),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID      string `json:"id"`
			Date    string `json:"date"`
			Chapter string `json:"chapter"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		if id := strings.TrimSpace(args.ID); id != "" {
			return toJSONResult(svc.Detail(ctx, id))
		}
		if strings.TrimSpace(args.Chapter) == "" {
			return mcp.NewToolResultError("either id or chapter is required"), nil
		}
		date, err := parseDate(args.Date)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(svc.DetailOn(ctx, date, args.Chapter))
	})
}

func registerExploreTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"explore_feed",
		mcp.WithDescription("Page through diaries ordered by creation time, filtered by emotion, chapter, tag, like or bookmark."),
		mcp.WithString("emotions",
			mcp.Description("Comma separated emotions to include."),
		),
		mcp.WithString("chapters",
			mcp.Description("Comma separated chapter identifiers to include."),
		),
		mcp.WithString("tags",
			mcp.Description("Comma separated tags; a diary matches when it has any of them."),
		),
		mcp.WithBoolean("liked",
			mcp.Description("Only liked diaries."),
		),
		mcp.WithBoolean("bookmarked",
			mcp.Description("Only bookmarked diaries."),
		),
		mcp.WithString("sort",
			mcp.Description("Sort order."),
			mcp.Enum("newest", "oldest"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Diaries per page (default 20)."),
			mcp.Min(1),
			mcp.Max(100),
		),
		mcp.WithString("after",
			mcp.Description("The next cursor of the previous page."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		feed, err := svc.Explore(ctx, ExploreOptions{
			Emotions:   splitList(request.GetString("emotions", "")),
			Chapters:   splitList(request.GetString("chapters", "")),
			Tags:       splitList(request.GetString("tags", "")),
			Liked:      request.GetBool("liked", false),
			Bookmarked: request.GetBool("bookmarked", false),
			Sort:       request.GetString("sort", ""),
			PageSize:   request.GetInt("page_size", 0),
			After:      request.GetString("after", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(feed)
	})
}

func registerReportTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"monthly_report",
		mcp.WithDescription("Summarize a month of diaries: moods, tags, chapters, time of day and days written."),
		mcp.WithString("month",
			mcp.Description("Month as YYYY-MM (default this month)."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		month := time.Now()
		if s := strings.TrimSpace(request.GetString("month", "")); s != "" {
			m, err := window.ParseMonth(s, time.Local)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			month = m
		}
		result, err := svc.Report(ctx, month)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(result)
	})
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now(), nil
	}
	return window.ParseDay(s, time.Local)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
