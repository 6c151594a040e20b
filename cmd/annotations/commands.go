package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/persist"
)

func newKeysCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List storage keys that hold annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := opts.open()
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			keys, err := backend.Keys(cmd.Context(), persist.NamespacePrefix)
			if err != nil {
				return errors.Wrap(err, "list keys")
			}
			out := cmd.OutOrStdout()
			for _, k := range keys {
				if key, ok := persist.StorageKeyOf(k); ok {
					fmt.Fprintln(out, key)
				}
			}
			return nil
		},
	}
}

// load reads and decodes the collection stored under key.
func load(ctx context.Context, backend persist.Backend, key string) ([]annotation.Shape, annotation.DecodeReport, error) {
	data, err := backend.Get(ctx, persist.Namespace(key))
	if errors.Is(err, persist.ErrNotExist) {
		return nil, annotation.DecodeReport{}, nil
	}
	if err != nil {
		return nil, annotation.DecodeReport{}, errors.Wrapf(err, "read %s", key)
	}
	shapes, report := annotation.Decode(data)
	if report.Corrupt || report.Dropped > 0 {
		log.WithField("key", key).Warnf("dropped %d malformed records (corrupt payload: %v)", report.Dropped, report.Corrupt)
	}
	return shapes, report, nil
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show KEY",
		Short: "Print the annotations stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := opts.open()
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			shapes, report, err := load(cmd.Context(), backend, args[0])
			if err != nil {
				return err
			}
			printShapes(cmd.OutOrStdout(), shapes)
			if report.Dropped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed records skipped\n", report.Dropped)
			}
			return nil
		},
	}
}

func printShapes(out io.Writer, shapes []annotation.Shape) {
	if len(shapes) == 0 {
		fmt.Fprintln(out, "no annotations")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tFROM\tTO\tCOLOR\tWIDTH")
	for _, s := range shapes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%g\n",
			s.ID, s.Kind, point(s.P1), point(s.P2), s.Style.StrokeColor, s.Style.StrokeWidth)
	}
	tw.Flush()
}

func point(p annotation.DataPoint) string {
	return fmt.Sprintf("(%.2f, %.2f)", p.LogicalIndex, p.Price)
}

func newExportCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export KEY",
		Short: "Write the annotations stored under KEY as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := opts.open()
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			shapes, _, err := load(cmd.Context(), backend, args[0])
			if err != nil {
				return err
			}
			data, err := annotation.Encode(shapes)
			if err != nil {
				return errors.Wrap(err, "encode annotations")
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", output)
			}
			log.WithField("file", output).Infof("exported %d annotations", len(shapes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import KEY FILE",
		Short: "Store the annotations in FILE under KEY",
		Long: "Store the annotations in FILE under KEY. Malformed records are skipped.\n" +
			"With --merge, records are added to the existing collection and ids\n" +
			"already present are kept as they are.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, file := args[0], args[1]
			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "read %s", file)
			}
			imported, report := annotation.Decode(data)
			if report.Corrupt {
				return errors.Errorf("%s is not an annotation list", file)
			}

			backend, _, err := opts.open()
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			shapes := imported
			if merge {
				existing, _, err := load(cmd.Context(), backend, key)
				if err != nil {
					return err
				}
				shapes = mergeShapes(existing, imported)
			}

			payload, err := annotation.Encode(shapes)
			if err != nil {
				return errors.Wrap(err, "encode annotations")
			}
			if err := backend.Set(cmd.Context(), persist.Namespace(key), payload); err != nil {
				return errors.Wrapf(err, "write %s", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d annotations into %s (%d skipped)\n", len(imported), key, report.Dropped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "add to the existing collection instead of replacing it")
	return cmd
}

// mergeShapes appends the shapes of b whose ids are not already in a.
func mergeShapes(a, b []annotation.Shape) []annotation.Shape {
	seen := make(map[string]bool, len(a))
	out := append([]annotation.Shape(nil), a...)
	for _, s := range a {
		seen[s.ID] = true
	}
	for _, s := range b {
		if !seen[s.ID] {
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	return out
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear KEY",
		Short: "Delete every annotation stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := opts.open()
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			if err := backend.Delete(cmd.Context(), persist.Namespace(args[0])); err != nil {
				return errors.Wrapf(err, "clear %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", args[0])
			return nil
		},
	}
}
