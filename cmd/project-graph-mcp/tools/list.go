package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/client"
	"github.com/lingy-Mg/project-graph/pkg/catalog"
)

func List(ctx context.Context, out io.Writer, c *client.Client, show, tool, format string) error {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}

	switch show {
	case "list":
		if format == "json" {
			return printJSON(out, tools)
		}

		fmt.Fprintln(out, len(tools), "tools:")
		for _, tool := range tools {
			fmt.Fprintln(out, " -", tool.Name, "-", descriptionSummary(tool.Description))
		}
	case "count":
		if format == "json" {
			fmt.Fprintf(out, "{\"count\": %d}\n", len(tools))
		} else {
			fmt.Fprintln(out, len(tools), "tools")
		}
	case "inspect":
		var found *catalog.Tool
		for i := range tools {
			if tools[i].Name == tool {
				found = &tools[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("tool %s not found", tool)
		}

		if format == "json" {
			return printJSON(out, found)
		}

		fmt.Fprintln(out, "Name:", found.Name)
		fmt.Fprintln(out, "Description:", found.Description)
		if found.InputSchema != nil {
			fmt.Fprintln(out, "Arguments:")
			for _, name := range sortedKeys(found.InputSchema.Properties) {
				property := found.InputSchema.Properties[name]
				if property == nil {
					continue
				}
				required := ""
				if contains(found.InputSchema.Required, name) {
					required = " (required)"
				}
				fmt.Fprintf(out, " - %s %s%s: %s\n", name, property.Type, required, property.Description)
			}
		}
	default:
		return fmt.Errorf("unknown listing %q", show)
	}

	return nil
}

func printJSON(out io.Writer, v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling: %w", err)
	}

	fmt.Fprintln(out, string(buf))
	return nil
}

func descriptionSummary(description string) string {
	for line := range strings.SplitSeq(description, "\n") {
		line := strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if before, _, found := strings.Cut(line, ". "); found {
			return before + "."
		}
		return line
	}

	return ""
}
