package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/pkg/codec"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/dom/htmldom"
	"github.com/vango-dev/resume/pkg/server"
	"github.com/vango-dev/resume/pkg/subs"
	"github.com/vango-dev/resume/pkg/vdom"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the state of a dehydrated document",
		Long: `Print the snapshot id, the state block and the subscription table of
every component host in a dehydrated document. Use "-" for stdin.

Examples:
  resume render | resume inspect -
  resume inspect snapshot.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			return inspect(os.Stdout, r)
		},
	}
	return cmd
}

func inspect(w io.Writer, r io.Reader) error {
	doc, err := htmldom.Parse(r)
	if err != nil {
		return err
	}

	if root := doc.DocumentElement(); root != nil {
		if id, ok := root.Attr(server.SnapshotAttr); ok {
			fmt.Fprintf(w, "Snapshot: %s\n\n", id)
		}
	}

	state, ok, err := codec.ReadState(doc)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "State: none")
	} else {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "State (%d objects):\n%s\n", len(state), data)
	}

	fmt.Fprintln(w, "\nHosts:")
	for _, host := range doc.QueryAttr(vdom.HookAttr) {
		hook, _ := host.Attr(vdom.HookAttr)
		table, _ := host.Attr(subs.Attr)
		fmt.Fprintf(w, "  <%s> %s\n", host.Tag(), hook)
		entries, err := subs.Parse(table)
		if err != nil {
			return fmt.Errorf("%s on <%s>: %w", subs.Attr, host.Tag(), err)
		}
		for _, e := range entries {
			fmt.Fprintf(w, "    %s\n", e.Token())
		}
		if props := hostProps(host); props != "" {
			fmt.Fprintf(w, "    props: %s\n", props)
		}
	}
	return nil
}

// hostProps lists the non-runtime attributes of host.
func hostProps(host dom.Node) string {
	var parts []string
	for _, a := range host.Attrs() {
		if a.Name == subs.Attr || a.Name == vdom.HookAttr {
			continue
		}
		parts = append(parts, a.Name+"="+a.Value)
	}
	return strings.Join(parts, " ")
}
