package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

type docCommand struct {
	OutDir string

	cmd *cobra.Command
}

func newDocCommand() *cobra.Command {
	cc := &docCommand{}
	cc.cmd = &cobra.Command{
		Use:    "doc",
		Short:  "Generate the markdown documentation of all commands",
		Hidden: true,
		RunE:   cc.Execute,
	}
	cc.cmd.Flags().StringVar(
		&cc.OutDir, "outdir", "./doc", "directory to write the "+
			"markdown files to",
	)

	return cc.cmd
}

func (c *docCommand) Execute(_ *cobra.Command, _ []string) error {
	return doc.GenMarkdownTree(rootCmd, c.OutDir)
}
