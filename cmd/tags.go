package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"playbook/internal/tags"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <caption...>",
	Short: "Print the tags generated from a caption",
	Args:  cobra.MinimumNArgs(1),
	RunE:  tagsRun,
}

func tagsRun(cmd *cobra.Command, args []string) error {
	generated := tags.Generate(strings.Join(args, " "))

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(generated)
	}
	if len(generated) == 0 {
		fmt.Println("No tags found.")
		return nil
	}
	for _, t := range generated {
		fmt.Println(t)
	}
	return nil
}
