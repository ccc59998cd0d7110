package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// confirm asks a yes/no question on the command's streams. Empty input or
// EOF takes defaultYes; anything unrecognised is asked again, up to three
// times, then treated as no.
func confirm(cmd *cobra.Command, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	for attempt := 0; attempt < 3; attempt++ {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s ", question, hint); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err == io.EOF {
			return false, nil
		}
	}
	return false, nil
}
