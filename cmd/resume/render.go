package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/internal/demo"
	"github.com/vango-dev/resume/pkg/server"
)

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [page]",
		Short: "Print the dehydrated HTML of a demo page",
		Long: `Render a demo page, dehydrate it and print the document.

Pages: ` + pageList() + `

Examples:
  resume render
  resume render /counter > counter.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			return renderPage(cmd.Context(), os.Stdout, path)
		},
	}
	return cmd
}

func pageList() string {
	var names []string
	for pattern := range demo.Pages() {
		names = append(names, pattern)
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}

func renderPage(ctx context.Context, w io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	page, ok := demo.Pages()[path]
	if !ok {
		return fmt.Errorf("unknown page %q (have %s)", path, pageList())
	}

	srv := server.New(&server.Config{
		Importer: demo.Symbols(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer srv.Shutdown(ctx)

	res, err := srv.Render(ctx, page, httptest.NewRequest("GET", path, nil))
	if err != nil {
		return err
	}
	_, err = w.Write(res.HTML)
	return err
}
