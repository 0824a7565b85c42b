package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hunkreview/hunkreview/internal/taxonomy"
)

func patternsCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Short:   "List the trust pattern taxonomy",
		GroupID: groupTrust,
		Long: `List the trust pattern taxonomy.

These are the labels 'classify' assigns and 'trust' matches against.
Custom patterns defined in settings are shown at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			byCategory := map[string][]taxonomy.Pattern{}
			var categories []string
			for _, p := range taxonomy.All() {
				category := taxonomy.Category(p.ID)
				if _, ok := byCategory[category]; !ok {
					categories = append(categories, category)
				}
				byCategory[category] = append(byCategory[category], p)
			}

			titleCaser := cases.Title(language.English)
			fmt.Fprintln(s.out)
			for _, category := range categories {
				fmt.Fprintln(s.out, s.style.bold(titleCaser.String(category)))
				for _, p := range byCategory[category] {
					fmt.Fprintf(s.out, "  %-24s %s\n", s.style.info(p.ID), s.style.dim(p.Description))
				}
				fmt.Fprintln(s.out)
			}

			custom := s.cfg.CustomPatterns()
			if len(custom) > 0 {
				fmt.Fprintln(s.out, s.style.bold("Custom"))
				ids := make([]string, 0, len(custom))
				for id := range custom {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintf(s.out, "  %-24s %s\n", s.style.info(id), s.style.dim(custom[id]))
				}
				fmt.Fprintln(s.out)
			}
			return nil
		},
	}

	cmd.AddCommand(patternsAddCommand(deps))

	return cmd
}

func patternsAddCommand(deps Dependencies) *cobra.Command {
	var projectLevel bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "add ID DESCRIPTION",
		Short: "Define a custom trust pattern in settings",
		Long: `Define a custom trust pattern in settings.

ID is stored under the custom: namespace (the prefix is added when
missing). Custom patterns participate in glob matching like built-ins.

Examples:
  hr patterns add sdk:regen "regenerated API client"
  hr patterns add custom:fixtures "test fixture refresh" --project`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id, description := args[0], args[1]
			if err := s.cfg.AddCustomPattern(id, description, projectLevel); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(s.out, "%s Added custom pattern to %s settings.\n",
					s.style.success("✓"), settingsTier(projectLevel))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&projectLevel, "project", false, "Target the project settings tier")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}
