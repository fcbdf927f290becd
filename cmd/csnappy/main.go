// Command csnappy compresses and decompresses files in the Snappy block
// format. Use - for stdin/stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/rhnvrm/csnappy"
)

func main() {
	app := cli.NewApp()
	app.Name = "csnappy"
	app.Usage = "Snappy block compression tool"
	app.Commands = []cli.Command{
		{
			Name:      "compress",
			Aliases:   []string{"c"},
			Usage:     "compress INPUT to OUTPUT",
			ArgsUsage: "INPUT OUTPUT",
			Action:    runCompress,
		},
		{
			Name:      "decompress",
			Aliases:   []string{"d"},
			Usage:     "decompress INPUT to OUTPUT",
			ArgsUsage: "INPUT OUTPUT",
			Action:    runDecompress,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "csnappy:", err)
		os.Exit(1)
	}
}

func runCompress(c *cli.Context) error {
	input, err := readArg(c, 0)
	if err != nil {
		return err
	}

	bound := csnappy.MaxCompressedLength(len(input))
	if bound < 0 {
		return fmt.Errorf("input of %d bytes is too large", len(input))
	}
	dst := make([]byte, bound)
	n, err := csnappy.Compress(input, dst)
	if err != nil {
		return err
	}
	return writeArg(c, 1, dst[:n])
}

func runDecompress(c *cli.Context) error {
	input, err := readArg(c, 0)
	if err != nil {
		return err
	}

	length, err := csnappy.GetUncompressedLength(input)
	if err != nil {
		return err
	}
	dst := make([]byte, length)
	n, err := csnappy.Decompress(input, dst)
	if err != nil {
		return err
	}
	return writeArg(c, 1, dst[:n])
}

func readArg(c *cli.Context, i int) ([]byte, error) {
	name := c.Args().Get(i)
	if name == "" {
		return nil, cli.NewExitError("expected INPUT and OUTPUT arguments (use - for stdin/stdout)", 2)
	}
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func writeArg(c *cli.Context, i int, data []byte) error {
	name := c.Args().Get(i)
	if name == "" {
		return cli.NewExitError("expected INPUT and OUTPUT arguments (use - for stdin/stdout)", 2)
	}
	if name == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(name, data, 0o644)
}
