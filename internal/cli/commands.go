package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vk/modver/pkg/pack"
)

func newRegisterCmd(r *root) *cobra.Command {
	var metaPairs []string

	cmd := &cobra.Command{
		Use:   "register <package> <label> <path>",
		Short: "Register a version of a pack at an explicit path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseMetadata(metaPairs)
			if err != nil {
				return err
			}
			m, err := r.manager(cmd, args[0])
			if err != nil {
				return err
			}
			rec, err := m.Register(cmd.Context(), args[1], args[2], meta)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "registered %s %s -> %s\n", rec.Name, rec.Version, rec.Path)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&metaPairs, "meta", nil, "metadata as key=value (repeatable)")
	return cmd
}

func newUnregisterCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <package> <label>",
		Short: "Remove a registered version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := r.manager(cmd, args[0])
			if err != nil {
				return err
			}
			if !m.Unregister(cmd.Context(), args[1]) {
				return fmt.Errorf("version %s is not registered for %s", args[1], args[0])
			}
			fmt.Fprintf(r.out, "unregistered %s %s\n", args[0], args[1])
			return nil
		},
	}
}

func newListCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "list <package>",
		Short: "List registered versions in registration order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := r.manager(cmd, args[0])
			if err != nil {
				return err
			}
			infos := m.List(cmd.Context())
			if len(infos) == 0 {
				fmt.Fprintf(r.out, "no versions registered for %s\n", args[0])
				return nil
			}

			tw := tabwriter.NewWriter(r.out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tACTIVE\tMAIN\tPATH\tREPORTED")
			for _, info := range infos {
				active := ""
				if info.Active {
					active = "*"
				}
				main := ""
				if info.IsMain {
					main = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					info.Version, active, main, info.Path, info.ActualVersion)
			}
			return tw.Flush()
		},
	}
}

func newUseCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "use <package> <label>",
		Short: "Make a version the active one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := r.manager(cmd, args[0])
			if err != nil {
				return err
			}
			p, err := m.Use(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "now using %s %s (%s)\n", args[0], args[1], p)
			return nil
		},
	}
}

func newInfoCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "info <package> [label]",
		Short: "Show details for a version (the active one by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := r.manager(cmd, args[0])
			if err != nil {
				return err
			}

			label := ""
			if len(args) == 2 {
				label = args[1]
			} else if rec := m.ActiveRecord(); rec != nil {
				label = rec.Version
			}
			if label == "" {
				return fmt.Errorf("no active version set for %s", args[0])
			}

			for _, info := range m.List(cmd.Context()) {
				if info.Version != label {
					continue
				}
				fmt.Fprintf(r.out, "package:  %s\n", info.Name)
				fmt.Fprintf(r.out, "version:  %s\n", info.Version)
				fmt.Fprintf(r.out, "path:     %s\n", info.Path)
				fmt.Fprintf(r.out, "main:     %t\n", info.IsMain)
				fmt.Fprintf(r.out, "active:   %t\n", info.Active)
				if info.ActualVersion != "" {
					fmt.Fprintf(r.out, "reported: %s\n", info.ActualVersion)
				}
				if info.Author != "" {
					fmt.Fprintf(r.out, "author:   %s\n", info.Author)
				}
				if info.Doc != "" {
					fmt.Fprintf(r.out, "doc:      %s\n", info.Doc)
				}
				for key, value := range info.Metadata {
					fmt.Fprintf(r.out, "meta:     %s=%v\n", key, value)
				}
				return nil
			}
			return fmt.Errorf("version %s is not registered for %s", label, args[0])
		},
	}
}

func newPacksCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "packs",
		Short: "List installed packs found in the pack search roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := pack.NewLoader(nil)
			names, err := loader.Installed()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintf(r.out, "no installed packs in %v\n", loader.Roots())
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(r.out, name)
			}
			return nil
		},
	}
}

func newMainCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "main <package>",
		Short: "Register the installed build found in the pack search roots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := r.manager(cmd, args[0])
			if err != nil {
				return err
			}
			rec, err := m.RegisterMain(cmd.Context())
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no installed pack named %s in the search roots", args[0])
			}
			fmt.Fprintf(r.out, "registered installed build as %s %s\n", args[0], rec.Version)
			return nil
		},
	}
}
