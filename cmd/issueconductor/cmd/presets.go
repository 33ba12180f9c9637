package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/issueconductor/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List issue filter presets",
	Long: `List the built-in issue filter presets and those defined in the presets
file (presets-file in the config).

A presets file looks like:

  presets:
    - name: my-bugs
      description: Open bugs assigned to me
      state: open
      assignee: octocat
      label: bug

Fields that are left out keep their current value when the preset is applied
with 'issueconductor issues --preset NAME'.`,
	Args: cobra.NoArgs,
	RunE: runPresets,
}

var presetsInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write the built-in presets to a presets file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPresetsInit,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsInitCmd)

	presetsCmd.PersistentFlags().String("file", "", "Presets file")
	_ = viper.BindPFlag("presets-file", presetsCmd.PersistentFlags().Lookup("file"))
}

func runPresets(cmd *cobra.Command, args []string) error {
	set, err := presetSet()
	if err != nil {
		return err
	}

	fmt.Printf("%-20s %-50s %s\n", "NAME", "DESCRIPTION", "FILTERS")
	fmt.Println(strings.Repeat("-", 100))
	for _, p := range set.List() {
		fmt.Printf("%-20s %-50s %s\n", p.Name, p.Description, describePreset(p))
	}
	return nil
}

func describePreset(p preset.Preset) string {
	var parts []string
	if p.State != nil {
		parts = append(parts, "state="+string(*p.State))
	}
	if p.Assignee != nil {
		parts = append(parts, "assignee="+*p.Assignee)
	}
	if p.Label != nil {
		parts = append(parts, "label="+*p.Label)
	}
	if p.Sort != nil {
		parts = append(parts, "sort="+string(*p.Sort))
	}
	if p.Direction != nil {
		parts = append(parts, "direction="+string(*p.Direction))
	}
	if q, ok := p.SearchText(); ok {
		parts = append(parts, fmt.Sprintf("search=%q", q))
	}
	return strings.Join(parts, " ")
}

func runPresetsInit(cmd *cobra.Command, args []string) error {
	path := viper.GetString("presets-file")
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("presets file required (argument or --file)")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := preset.SaveToFile(preset.Builtin(), path); err != nil {
		return err
	}
	fmt.Printf("Wrote %d presets to %s\n", len(preset.Builtin()), path)
	return nil
}
