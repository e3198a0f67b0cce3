package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kidylee/incubator-opendal/backends"
	"github.com/kidylee/incubator-opendal/common"
	"github.com/kidylee/incubator-opendal/interfaces"
	"github.com/kidylee/incubator-opendal/operator"
)

var commonFlags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:     "scheme",
		Usage:    "backend scheme to operate on (see 'odctl schemes')",
		Required: true,
	},
	&cli.StringSliceFlag{
		Name:  "conf",
		Usage: "backend configuration as key=value, repeatable",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
}

func parseConf(pairs []string) (interfaces.Config, error) {
	cfg := make(interfaces.Config, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed --conf %q, want key=value", pair)
		}
		cfg[key] = value
	}
	return cfg, nil
}

func withOperator(cCtx *cli.Context, fn func(op *operator.Operator) error) error {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool("log-debug"),
		Service: "odctl",
		Version: common.Version,
	})

	cfg, err := parseConf(cCtx.StringSlice("conf"))
	if err != nil {
		return err
	}

	op, err := operator.New(cCtx.String("scheme"), cfg, logger)
	if err != nil {
		return err
	}
	defer op.Release(cCtx.Context)

	return fn(op)
}

func requirePath(cCtx *cli.Context) (string, error) {
	if cCtx.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one path argument")
	}
	return cCtx.Args().First(), nil
}

func main() {
	app := &cli.App{
		Name:  "odctl",
		Usage: "Read and write storage backends from the command line",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "read a blob and print it to stdout",
				ArgsUsage: "<path>",
				Flags:     commonFlags,
				Action: func(cCtx *cli.Context) error {
					path, err := requirePath(cCtx)
					if err != nil {
						return err
					}
					return withOperator(cCtx, func(op *operator.Operator) error {
						data, err := op.Read(cCtx.Context, path)
						if err != nil {
							return err
						}
						_, err = os.Stdout.Write(data)
						return err
					})
				},
			},
			{
				Name:      "put",
				Usage:     "write stdin (or --data) to a blob",
				ArgsUsage: "<path>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "data",
						Usage: "literal content to write instead of reading stdin",
					},
				}, commonFlags...),
				Action: func(cCtx *cli.Context) error {
					path, err := requirePath(cCtx)
					if err != nil {
						return err
					}
					var data []byte
					if cCtx.IsSet("data") {
						data = []byte(cCtx.String("data"))
					} else {
						data, err = io.ReadAll(os.Stdin)
						if err != nil {
							return fmt.Errorf("reading stdin: %w", err)
						}
					}
					return withOperator(cCtx, func(op *operator.Operator) error {
						return op.Write(cCtx.Context, path, data)
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "delete a blob, succeeds if it is already gone",
				ArgsUsage: "<path>",
				Flags:     commonFlags,
				Action: func(cCtx *cli.Context) error {
					path, err := requirePath(cCtx)
					if err != nil {
						return err
					}
					return withOperator(cCtx, func(op *operator.Operator) error {
						return op.Delete(cCtx.Context, path)
					})
				},
			},
			{
				Name:      "stat",
				Usage:     "print metadata for an entry",
				ArgsUsage: "<path>",
				Flags:     commonFlags,
				Action: func(cCtx *cli.Context) error {
					path, err := requirePath(cCtx)
					if err != nil {
						return err
					}
					return withOperator(cCtx, func(op *operator.Operator) error {
						st, err := op.Stat(cCtx.Context, path)
						if err != nil {
							return err
						}
						fmt.Printf("path:\t%s\n", st.Path)
						fmt.Printf("mode:\t%s\n", st.Mode)
						fmt.Printf("size:\t%d\n", st.Size)
						if !st.LastModified.IsZero() {
							fmt.Printf("modified:\t%s\n", st.LastModified)
						}
						if st.ContentType != "" {
							fmt.Printf("content-type:\t%s\n", st.ContentType)
						}
						return nil
					})
				},
			},
			{
				Name:      "ls",
				Usage:     "list entries under a prefix",
				ArgsUsage: "[prefix]",
				Flags:     commonFlags,
				Action: func(cCtx *cli.Context) error {
					prefix := cCtx.Args().First()
					return withOperator(cCtx, func(op *operator.Operator) error {
						entries, err := op.List(cCtx.Context, prefix)
						if err != nil {
							return err
						}
						for _, entry := range entries {
							fmt.Println(entry)
						}
						return nil
					})
				},
			},
			{
				Name:  "schemes",
				Usage: "list registered backend schemes",
				Action: func(cCtx *cli.Context) error {
					for _, scheme := range backends.Schemes() {
						fmt.Println(scheme)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
