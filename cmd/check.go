package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dbdrill/internal/config"
	"github.com/oakwood-commons/dbdrill/pkg/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check <config-file>",
	Short: "Validate a resources file without connecting to a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(args[0])
		if err != nil {
			logger.FromContext(rootCtx).Info("configuration rejected", logger.ConfigKey, args[0], "error", err.Error())
			return err
		}
		printSummary(cmd.OutOrStdout(), args[0], model)
		return nil
	},
}

// printSummary writes the entities of model with their searches and links.
func printSummary(w io.Writer, path string, model *config.Model) {
	entities := model.Entities()
	searches, links := 0, 0
	for _, e := range entities {
		searches += len(e.Searches())
		links += len(e.Links())
	}
	fmt.Fprintf(w, "%s: ok (%s, %s, %s)\n", path,
		plural(len(entities), "entity", "entities"),
		plural(searches, "search", "searches"),
		plural(links, "link", "links"))

	for _, e := range entities {
		fmt.Fprintf(w, "\n%s [%s]\n", e.Name(), e.ID())
		for _, s := range e.Searches() {
			params := make([]string, len(s.Params()))
			for i, p := range s.Params() {
				params[i] = p.Name + " " + p.Type.String()
			}
			fmt.Fprintf(w, "  search %s(%s)\n", s.Name(), strings.Join(params, ", "))
		}
		for _, l := range e.Links() {
			bindings := make([]string, len(l.Bindings()))
			for i, b := range l.Bindings() {
				bindings[i] = b.String()
			}
			var extra string
			if _, ok := l.Condition(); ok {
				extra += " if"
			}
			if l.When() != nil {
				extra += " when"
			}
			fmt.Fprintf(w, "  link %s -> %s.%s(%s)%s\n", l.Name(), l.Target(), l.TargetSearch(), strings.Join(bindings, ", "), extra)
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
