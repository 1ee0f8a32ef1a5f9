package main

import (
	"os"

	"github.com/spf13/cobra"
)

var mainCMD = &cobra.Command{
	Use:   "pgnstream",
	Short: "Extract chess games from PGN databases",
	Long:  "Streams structured chess-game records out of large PGN text databases, like the open lichess database dumps, without loading a file into memory.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	mainCMD.AddCommand(parseCMD)
	mainCMD.AddCommand(loadCMD)
}

func main() {
	if err := mainCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
