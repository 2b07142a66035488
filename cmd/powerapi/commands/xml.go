package commands

import (
	"fmt"
	"os"
	"strings"

	"powerapi-backend/lib/util/serviceutil"
	"powerapi-backend/lib/xmltree"

	"github.com/spf13/cobra"
)

var xmlPath string

func init() {
	xmlCmd.Flags().StringVar(&xmlPath, "path", "", "Print only the element at this slash separated path below the root.")
	rootCmd.AddCommand(xmlCmd)
}

var xmlCmd = &cobra.Command{
	Use:   "xml <file> [--path a/b/c]",
	Short: "Parses an xml file and prints it back out, useful for inspecting dumped responses.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read file", err)
		}
		doc, err := xmltree.ParseDocument(data)
		if err != nil {
			serviceutil.Fatal("failed to parse xml", err)
		}

		if xmlPath == "" {
			fmt.Print(doc.Serialize())
			return
		}

		node := doc.Root().Path(strings.Split(strings.Trim(xmlPath, "/"), "/")...)
		if node.IsError() {
			serviceutil.Fatal("failed to find element", node.Err())
		}
		fmt.Println(node.Serialize())
	},
}
