package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completeGroupNamesForFlag completes --group flag values from the loaded
// configuration.
func completeGroupNamesForFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if appInstance == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, name := range appInstance.Config.GroupNames() {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
