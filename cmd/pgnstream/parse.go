package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/opengs/pgnstream"
)

var parseCMD = &cobra.Command{
	Use:   "parse",
	Short: "Stream games from a PGN file to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		parser, err := pgnstream.New(cfg)
		if err != nil {
			return err
		}
		defer parser.Close()

		games, err := parser.Games(cmd.Context())
		if err != nil {
			return err
		}
		defer games.Close()

		for {
			g, err := games.Next(cmd.Context())
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), g)
		}

		return nil
	},
}

func init() {
	addParserFlags(parseCMD)
}
