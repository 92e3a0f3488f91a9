package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"snippetmanager/internal/snippet"
)

func newAddCommand(deps commandDeps) *cobra.Command {
	var (
		form        snippet.FormData
		contentFile string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a snippet",
		Example: "  snippetmanager add --title 'list files' --content 'ls -la' --category shell\n" +
			"  git diff | snippetmanager add --title 'pending diff' --content-file -",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentFile != "" {
				content, err := readInput(cmd, contentFile)
				if err != nil {
					return mapCommandError(err)
				}
				form.Content = string(content)
			}
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				sn, err := a.svc.Add(form)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, sn)
				}
				_, err = fmt.Fprintf(deps.out, "added %d %s\n", sn.ID, sn.Title)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "Snippet title")
	cmd.Flags().StringVar(&form.Content, "content", "", "Snippet content")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read content from a file, - for stdin")
	cmd.Flags().StringVar(&form.Category, "category", "", "Snippet category")
	return cmd
}

func newListCommand(deps commandDeps) *cobra.Command {
	var q snippet.Query
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snippets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				list := a.svc.List(q)
				if deps.globals.JSON {
					return printJSON(deps.out, list)
				}
				if len(list) == 0 {
					_, err := fmt.Fprintln(deps.out, snippet.T(a.svc.Language()).Empty.Title)
					return err
				}
				return writeTable(deps.out, list, a.svc.Language(), time.Now())
			})
		},
	}
	cmd.Flags().StringVarP(&q.Search, "search", "q", "", "Only snippets whose title or content contains this text")
	cmd.Flags().StringVar(&q.Category, "category", "", "Only snippets in this category")
	return cmd
}

func writeTable(w io.Writer, list []snippet.Snippet, lang snippet.Language, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tCREATED")
	for _, sn := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", sn.ID, sn.Title, sn.Category, snippet.RelativeDate(sn.CreatedAt, now, lang))
	}
	return tw.Flush()
}

func newShowCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				sn, err := a.svc.Get(id)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, sn)
				}
				lang := a.svc.Language()
				t := snippet.T(lang)
				now := time.Now()
				fmt.Fprintf(deps.out, "%s [%s]\n", sn.Title, sn.Category)
				fmt.Fprintf(deps.out, "%s %s", t.Snippet.Created, snippet.RelativeDate(sn.CreatedAt, now, lang))
				if sn.Edited() {
					fmt.Fprintf(deps.out, " · %s %s", t.Snippet.Edited, snippet.RelativeDate(sn.UpdatedAt, now, lang))
				}
				_, err = fmt.Fprintf(deps.out, "\n\n%s\n", sn.Content)
				return err
			})
		},
	}
}

func newEditCommand(deps commandDeps) *cobra.Command {
	var form snippet.FormData
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a snippet's title, content or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("content") && !flags.Changed("category") {
				return usageErrorf("edit needs at least one of --title, --content or --category")
			}
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				cur, err := a.svc.Get(id)
				if err != nil {
					return err
				}
				next := snippet.FormData{Title: cur.Title, Content: cur.Content, Category: cur.Category}
				if flags.Changed("title") {
					next.Title = form.Title
				}
				if flags.Changed("content") {
					next.Content = form.Content
				}
				if flags.Changed("category") {
					next.Category = form.Category
				}
				sn, err := a.svc.Update(id, next)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, sn)
				}
				_, err = fmt.Fprintf(deps.out, "updated %d %s\n", sn.ID, sn.Title)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "New title")
	cmd.Flags().StringVar(&form.Content, "content", "", "New content")
	cmd.Flags().StringVar(&form.Category, "category", "", "New category, empty for uncategorized")
	return cmd
}

func newDeleteCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				if err := a.svc.Delete(id); err != nil {
					return err
				}
				_, err := fmt.Fprintf(deps.out, "deleted %d\n", id)
				return err
			})
		},
	}
}

func newCategoriesCommand(deps commandDeps) *cobra.Command {
	var suggest string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				var cats []string
				if cmd.Flags().Changed("suggest") {
					cats = a.svc.Suggest(suggest)
				} else {
					cats = snippet.Categories(a.svc.All())
				}
				if cats == nil {
					cats = []string{}
				}
				if deps.globals.JSON {
					return printJSON(deps.out, cats)
				}
				for _, c := range cats {
					if _, err := fmt.Fprintln(deps.out, c); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&suggest, "suggest", "", "Complete a partially typed category")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, usageErrorf("invalid snippet id %q", s)
	}
	return id, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
