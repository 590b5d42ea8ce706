package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/r9s-ai/cadscribe/internal/shapes"
)

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Faint(true)).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

func newShapesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shapes",
		Short: "List shape keywords in resolution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := shapes.Default().Entries()
			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				rows = append(rows, []string{strconv.Itoa(i + 1), e.Keyword, string(e.Shape.Kind())})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "keyword", "kind"}, rows))
			return err
		},
	}
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <text>",
		Short: "Show which keyword a generated text resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.ToLower(strings.Join(args, " "))
			e, err := shapes.Default().Resolve(text)
			if errors.Is(err, shapes.ErrShapeNotRecognized) {
				return fmt.Errorf("no keyword found in %q", text)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", e.Keyword, e.Shape.Kind())
			return err
		},
	}
}
