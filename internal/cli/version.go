package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// versionCommand groups the saved-version subcommands.
func (c *CLI) versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"versions"},
		Short:   "Save, list, and restore flow map versions",
		Long: `Save, list, and restore versions of a flow map.

A version is a named snapshot of a consolidated graph. Versions live in the
configured store (a local directory by default, or Redis or MongoDB) and
can be referenced by ID or by name; with duplicate names the newest wins.`,
	}

	cmd.AddCommand(c.versionSaveCommand())
	cmd.AddCommand(c.versionListCommand())
	cmd.AddCommand(c.versionShowCommand())
	cmd.AddCommand(c.versionDeleteCommand())
	cmd.AddCommand(c.versionPickCommand())

	return cmd
}

// withStore opens the snapshot store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(snapshot.Store) error) error {
	store, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("open version store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) versionSaveCommand() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "save [records|graph.json]",
		Short: "Save a graph as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = fmt.Sprintf("%s %s", appName, time.Now().Format("2006-01-02 15:04"))
			}
			v, err := snapshot.NewVersion(name, description, g)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(s snapshot.Store) error {
				if err := s.Save(cmd.Context(), v); err != nil {
					return fmt.Errorf("save version: %w", err)
				}
				c.Logger.Debug("saved version", "id", v.ID, "store", fmt.Sprintf("%T", s))

				w := cmd.OutOrStdout()
				printSuccess(w, "Saved version %s", StyleValue.Render(v.Name))
				printKeyValue(w, "ID", v.ID)
				printStats(w, v.NodeCount, v.EdgeCount, g.FlowCount(), false)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "version name (default: timestamp)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "version description")

	return cmd
}

func (c *CLI) versionListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved versions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s snapshot.Store) error {
				list, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					if list == nil {
						list = []snapshot.Summary{}
					}
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(list)
				}
				printVersionTable(w, list, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")

	return cmd
}

func printVersionTable(w io.Writer, list []snapshot.Summary, now time.Time) {
	if len(list) == 0 {
		printInfo(w, "No saved versions")
		return
	}
	rows := make([][]string, len(list))
	for i, v := range list {
		rows[i] = []string{
			shortID(v.ID),
			v.Name,
			strconv.Itoa(v.NodeCount),
			strconv.Itoa(v.EdgeCount),
			formatRelativeTime(v.CreatedAt, now),
			v.Description,
		}
	}
	printTable(w, []string{"ID", "Name", "Systems", "Connections", "Saved", "Description"}, rows)
}

func (c *CLI) versionShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "show [id|name]",
		Short:             "Show a version and optionally export its graph",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeVersions(1, false),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s snapshot.Store) error {
				v, err := snapshot.Find(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				return printVersion(cmd.OutOrStdout(), v, output)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the version's graph to this file")

	return cmd
}

// printVersion describes v and writes its graph when output is set.
func printVersion(w io.Writer, v *snapshot.Version, output string) error {
	printHeading(w, v.Name)
	printKeyValue(w, "ID", v.ID)
	printKeyValue(w, "Saved", v.CreatedAt.Local().Format(time.RFC1123))
	if v.Description != "" {
		printKeyValue(w, "Description", v.Description)
	}
	printKeyValue(w, "Content hash", shortID(v.ContentHash))
	printStats(w, v.NodeCount, v.EdgeCount, v.Graph.FlowCount(), true)

	if output == "" {
		return nil
	}
	if err := graph.WriteGraphFile(v.Graph, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	printNewline(w)
	printSuccess(w, "Exported graph")
	printFile(w, output)
	printNextStep(w, "Render", appName+" render "+output)
	return nil
}

func (c *CLI) versionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete [id|name]",
		Aliases:           []string{"rm"},
		Short:             "Delete a saved version",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeVersions(1, false),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s snapshot.Store) error {
				v, err := snapshot.Find(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				if err := s.Delete(cmd.Context(), v.ID); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted version %s (%s)", v.Name, shortID(v.ID))
				return nil
			})
		},
	}
}

func (c *CLI) versionPickCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a version interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s snapshot.Store) error {
				list, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo(cmd.OutOrStdout(), "No saved versions")
					return nil
				}

				p := tea.NewProgram(NewVersionListModel(list),
					tea.WithContext(cmd.Context()),
					tea.WithInput(cmd.InOrStdin()),
					tea.WithOutput(cmd.ErrOrStderr()))
				final, err := p.Run()
				if err != nil {
					return fmt.Errorf("version picker: %w", err)
				}
				m, ok := final.(VersionListModel)
				if !ok || m.Selected == nil {
					return nil
				}

				v, err := s.Get(cmd.Context(), m.Selected.ID)
				if err != nil {
					return err
				}
				return printVersion(cmd.OutOrStdout(), v, output)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the chosen version's graph to this file")

	return cmd
}
