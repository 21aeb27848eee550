package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-freight/internal/client"
	"go-freight/internal/common/models"
	"go-freight/internal/features/bulk_operation"
	"go-freight/internal/listview"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// selectionFlags describe how the selection is built before the action runs.
type selectionFlags struct {
	filterFlags
	all             bool
	ids             []string
	exclude         []string
	excludeFiltered []string
	outDir          string
	yes             bool
}

func newBulkCmd(action, short string) *cobra.Command {
	var f selectionFlags
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd.Context(), bulk_operation.BulkAction(action), &f)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.all, "all", false, "select every record matching the filters")
	cmd.Flags().StringSliceVar(&f.ids, "ids", nil, "select these record ids")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "deselect these record ids")
	cmd.Flags().StringArrayVar(&f.excludeFiltered, "exclude-filtered", nil,
		"deselect everything matching key=v1,v2 or search=TEXT (repeatable, combined)")
	if action == string(bulk_operation.BulkActionPrint) {
		cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "directory for the manifest")
	} else {
		cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "do not ask for confirmation")
	}
	return cmd
}

func runBulk(ctx context.Context, action bulk_operation.BulkAction, f *selectionFlags) error {
	if !f.all && len(f.ids) == 0 {
		return errors.New("nothing selected: pass --all or --ids")
	}
	criteria, err := f.criteria(ctx)
	if err != nil {
		return err
	}

	res, err := buildSelection(ctx, criteria, f)
	if err != nil {
		return err
	}
	logger.Debug("selection resolved",
		zap.Stringer("criteria", criteria),
		zap.Int64("count", res.Count),
		zap.Int("exclusions", len(res.ExcludeIDs)))

	if action != bulk_operation.BulkActionPrint && !f.yes {
		if !confirm(fmt.Sprintf("%s %s %s?", action, humanize.Comma(res.Count), resource)) {
			return errors.New("aborted")
		}
	}

	result, err := api.RunBulkAction(ctx, resource, action, res)
	if errors.Is(err, listview.ErrCountMismatch) {
		return fmt.Errorf("records changed since the selection was made, nothing was done: %w", err)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result.Operation)
	}
	if result.File != nil {
		path := filepath.Join(f.outDir, result.FileName)
		if err := os.WriteFile(path, result.File, 0o644); err != nil {
			return err
		}
		fmt.Printf("Printed %s records to %s (%s)\n",
			humanize.Comma(res.Count), path, humanize.Bytes(uint64(len(result.File))))
		return nil
	}

	op := result.Operation
	fmt.Printf("%s: %s of %s %s done", op.Status, humanize.Comma(op.SuccessCount), humanize.Comma(op.ResolvedCount), action)
	if op.ErrorCount > 0 {
		fmt.Printf(", %s failed", humanize.Comma(op.ErrorCount))
	}
	fmt.Println()
	return nil
}

// buildSelection drives a Screen the way a dispatcher would: filter, select,
// then narrow the filter and deselect what it matches.
func buildSelection(ctx context.Context, criteria models.FilterCriteria, f *selectionFlags) (listview.Resolution, error) {
	screen := listview.NewScreen[models.Record](client.NewSearchClient[models.Record](api, resource), models.Record.ID, listview.Config{
		PageSize:    pageSize,
		QuietPeriod: quietPeriod(),
		Logger:      logger,
	})
	defer screen.Close()

	screen.SetFilter(criteria)
	screen.CommitNow()
	if err := screen.Err(); err != nil {
		return listview.Resolution{}, err
	}

	if f.all {
		if err := screen.SelectAllMatching(); err != nil {
			return listview.Resolution{}, err
		}
	}
	for _, id := range f.ids {
		screen.Toggle(id, true)
	}
	for _, id := range f.exclude {
		screen.Toggle(id, false)
	}

	if len(f.excludeFiltered) > 0 {
		narrow, err := narrowCriteria(criteria, f.excludeFiltered)
		if err != nil {
			return listview.Resolution{}, err
		}
		screen.SetFilter(narrow)
		screen.CommitNow()
		n, err := screen.ExcludeByActiveCriteria()
		if err != nil && !listview.IsNotice(err) {
			return listview.Resolution{}, err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Note: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Deselected %s records matching %s\n", humanize.Comma(int64(n)), narrow)
		}
	}

	return screen.Resolve()
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
