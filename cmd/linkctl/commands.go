package main

import (
	"fmt"
	"io"
	"strings"

	"recipe-linker/internal/api/handlers"
	"recipe-linker/internal/core/association"
	"recipe-linker/internal/core/recipe"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recipes from the recipe source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if a.Source == nil {
				return errNoRecipeSource
			}
			summaries, err := a.Source.ListRecipes(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, summaries)
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No recipes")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(out, "%-40s %s\n", s.Slug, s.Name)
			}
			return nil
		},
	}
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <slug>",
		Short: "Show the cache status of a recipe's associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, r, key, err := ctx.fetchRecipe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := a.Service.Check(cmd.Context(), key, r.Ingredients, r.Steps)
			if err != nil {
				return err
			}
			return printResult(cmd, ctx, r, key, result)
		},
	}
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate <slug>",
		Short: "Generate associations when the cache is missing or outdated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, r, key, err := ctx.fetchRecipe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !a.Generator.Configured() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: generator has no API key, nothing will be generated")
			}
			result, err := a.Service.Ensure(cmd.Context(), key, r.Ingredients, r.Steps, force)
			if err != nil {
				return err
			}
			return printResult(cmd, ctx, r, key, result)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Regenerate even when the cache is valid")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var byID bool
	cmd := &cobra.Command{
		Use:   "clear <slug>",
		Short: "Remove cached associations for a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if !byID {
				if _, _, key, err = ctx.fetchRecipe(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			if err := a.Service.Clear(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared associations for %s\n", key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "Treat the argument as a recipe id instead of a slug")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Print each step with the ingredients linked to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, r, key, err := ctx.fetchRecipe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := a.Service.Check(cmd.Context(), key, r.Ingredients, r.Steps)
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, handlers.NewAssociationResponse(key, result))
			}
			printSteps(cmd.OutOrStdout(), r, result)
			return nil
		},
	}
}

func printResult(cmd *cobra.Command, ctx *commandContext, r *recipe.Recipe, key string, result *association.Result) error {
	if ctx.json() {
		return writeJSON(cmd, handlers.NewAssociationResponse(key, result))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recipe:       %s (%s)\n", r.Name, key)
	fmt.Fprintf(out, "Status:       %s\n", result.Status)
	fmt.Fprintf(out, "Hash:         %s\n", result.RecipeHash)
	fmt.Fprintf(out, "Associations: %d\n", len(result.Associations))
	fmt.Fprintf(out, "Unresolved:   %d\n", result.Unresolved)
	if len(result.StaleAssociations) > 0 {
		fmt.Fprintf(out, "Stale:        %d (run generate to refresh)\n", len(result.StaleAssociations))
	}
	return nil
}

func printSteps(out io.Writer, r *recipe.Recipe, result *association.Result) {
	names := make(map[string]string, len(r.Ingredients))
	for _, ing := range recipe.EnsureReferenceIDs(r.Ingredients) {
		names[ing.ReferenceID] = ing.Name()
	}

	mapping := result.Mapping()
	fmt.Fprintf(out, "%s [%s]\n", r.Name, result.Status)
	for _, step := range recipe.IndexSteps(r.Steps) {
		fmt.Fprintf(out, "\n%d. %s\n", step.StepNumber(), strings.TrimSpace(step.Text))
		ids := mapping.IngredientsForStep(step.StepNumber())
		if len(ids) == 0 {
			continue
		}
		linked := make([]string, 0, len(ids))
		for _, id := range ids {
			linked = append(linked, names[id])
		}
		fmt.Fprintf(out, "   -> %s\n", strings.Join(linked, ", "))
	}
}
