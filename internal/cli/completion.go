package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/filter"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// completionCommand writes the shell script. Dynamic candidates come from
// the complete* functions below.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowmap.

To load completions:

Bash:
  $ source <(flowmap completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ flowmap completion bash > /etc/bash_completion.d/flowmap
  # macOS:
  $ flowmap completion bash > $(brew --prefix)/etc/bash_completion.d/flowmap

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ flowmap completion zsh > "${fpath[1]}/_flowmap"

Fish:
  $ flowmap completion fish | source

  # To load completions for each session, execute once:
  $ flowmap completion fish > ~/.config/fish/completions/flowmap.fish

PowerShell:
  PS> flowmap completion powershell | Out-String | Invoke-Expression

Besides subcommands and flags, completion knows flowmap's own vocabulary:
  --pattern, --frequency   named filter categories (api, batch, daily, ...)
  -f, --format             svg, png, dot, json, also after a comma
  version show|delete      saved version names from the configured store
  diff                     saved version names as well as files
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

func completeCategories(names []string) cobra.CompletionFunc {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return append(append([]string(nil), names...), filter.All), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeFormats completes the last item of a comma-separated format
// list, skipping formats already given.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	given := make(map[string]bool)
	for _, f := range strings.Split(prefix, ",") {
		given[strings.ToLower(strings.TrimSpace(f))] = true
	}

	var out []string
	for _, f := range pipeline.FormatNames {
		if !given[f] && strings.HasPrefix(f, strings.ToLower(last)) {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeVersions offers saved version names for the first maxArgs
// positional arguments. withFiles also lets the shell offer files, for
// commands that accept either.
func (c *CLI) completeVersions(maxArgs int, withFiles bool) cobra.CompletionFunc {
	fileDirective := cobra.ShellCompDirectiveNoFileComp
	if withFiles {
		fileDirective = cobra.ShellCompDirectiveDefault
	}
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if err := c.loadConfig(); err != nil {
			return nil, fileDirective
		}
		var out []string
		err := c.withStore(cmd.Context(), func(s snapshot.Store) error {
			list, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			out = versionCandidates(list, toComplete)
			return nil
		})
		if err != nil {
			return nil, fileDirective
		}
		return out, fileDirective
	}
}

// versionCandidates returns "name\tdescription" entries for versions whose
// name starts with prefix. Names shared by several versions are listed
// once, as Find resolves them to the newest.
func versionCandidates(list []snapshot.Summary, prefix string) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, v := range list {
		if seen[v.Name] || !strings.HasPrefix(v.Name, prefix) {
			continue
		}
		seen[v.Name] = true
		desc := v.CreatedAt.Local().Format("2006-01-02 15:04")
		if v.Description != "" {
			desc += ", " + v.Description
		}
		out = append(out, v.Name+"\t"+desc)
	}
	return out
}
