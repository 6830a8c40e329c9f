package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dpeckham/sfs/blockdev"
	"github.com/dpeckham/sfs/disks"
	"github.com/dpeckham/sfs/fs"
	"github.com/dpeckham/sfs/internal/fixture"
)

func main() {
	app := cli.App{
		Usage: "Inspect and manipulate SFS disk images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Value: "standard",
				Usage: "layout preset the image was formatted with",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Create a fresh, empty image",
				ArgsUsage: "IMAGE",
				Action:    cmdInit,
			},
			{
				Name:      "geometries",
				Usage:     "List the known layout presets",
				Action:    cmdGeometries,
			},
			{
				Name:      "stat",
				Usage:     "Print metadata for a file or directory",
				ArgsUsage: "IMAGE PATH",
				Action:    cmdStat,
			},
			{
				Name:      "ls",
				Usage:     "List a directory's contents",
				ArgsUsage: "IMAGE PATH",
				Action:    cmdLs,
			},
			{
				Name:      "cat",
				Usage:     "Write a file's contents to stdout",
				ArgsUsage: "IMAGE PATH",
				Action:    cmdCat,
			},
			{
				Name:      "write",
				Usage:     "Write stdin to a file, creating it if necessary",
				ArgsUsage: "IMAGE PATH",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "offset", Value: 0},
				},
				Action: cmdWrite,
			},
			{
				Name:      "mkdir",
				Usage:     "Create a directory",
				ArgsUsage: "IMAGE PATH",
				Action:    cmdMkdir,
			},
			{
				Name:      "rm",
				Usage:     "Remove a file",
				ArgsUsage: "IMAGE PATH",
				Action:    cmdRm,
			},
			{
				Name:      "rmdir",
				Usage:     "Remove an empty directory",
				ArgsUsage: "IMAGE PATH",
				Action:    cmdRmdir,
			},
			{
				Name:      "truncate",
				Usage:     "Grow or shrink a file",
				ArgsUsage: "IMAGE PATH SIZE",
				Action:    cmdTruncate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func cmdGeometries(context *cli.Context) error {
	for _, name := range disks.Names() {
		preset, err := disks.Get(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %s\n", preset.Slug, preset.Description)
	}
	return nil
}

func cmdInit(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return cli.Exit("expected IMAGE argument", 1)
	}

	preset, err := disks.Get(context.String("preset"))
	if err != nil {
		return err
	}

	buf, err := fixture.Build(preset.Layout())
	if err != nil {
		return err
	}

	return os.WriteFile(context.Args().First(), buf, 0644)
}

func cmdStat(context *cli.Context) error {
	return withMount(context, 2, func(filesystem *fs.FileSystem, args cli.Args) error {
		stat, err := filesystem.GetAttr(args.Get(1))
		if err != nil {
			return err
		}
		fmt.Printf("size:   %d\n", stat.Size)
		fmt.Printf("blocks: %d\n", stat.NumBlocks)
		fmt.Printf("mode:   0%o\n", stat.ModeFlags)
		return nil
	})
}

func cmdLs(context *cli.Context) error {
	return withMount(context, 2, func(filesystem *fs.FileSystem, args cli.Args) error {
		entries, err := filesystem.ReadDir(args.Get(1))
		if err != nil {
			return err
		}
		for _, entry := range entries {
			marker := " "
			if entry.IsDirectory {
				marker = "d"
			}
			fmt.Printf("%s %10d %s\n", marker, entry.Size, entry.Name)
		}
		return nil
	})
}

func cmdCat(context *cli.Context) error {
	return withMount(context, 2, func(filesystem *fs.FileSystem, args cli.Args) error {
		stat, err := filesystem.GetAttr(args.Get(1))
		if err != nil {
			return err
		}
		buf := make([]byte, stat.Size)
		if _, err = filesystem.Read(args.Get(1), buf, 0); err != nil {
			return err
		}
		_, err = os.Stdout.Write(buf)
		return err
	})
}

func cmdWrite(context *cli.Context) error {
	return withMount(context, 2, func(filesystem *fs.FileSystem, args cli.Args) error {
		path := args.Get(1)
		if !filesystem.Exists(path) {
			if err := filesystem.Create(path); err != nil {
				return err
			}
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		_, err = filesystem.Write(path, data, context.Int64("offset"))
		return err
	})
}

func cmdMkdir(context *cli.Context) error {
	return withMount(context, 2, func(filesystem *fs.FileSystem, args cli.Args) error {
		return filesystem.Mkdir(args.Get(1))
	})
}

func cmdRm(context *cli.Context) error {
	return withMount(context, 2, func(filesystem *fs.FileSystem, args cli.Args) error {
		return filesystem.Unlink(args.Get(1))
	})
}

func cmdRmdir(context *cli.Context) error {
	return withMount(context, 2, func(filesystem *fs.FileSystem, args cli.Args) error {
		return filesystem.Rmdir(args.Get(1))
	})
}

func cmdTruncate(context *cli.Context) error {
	return withMount(context, 3, func(filesystem *fs.FileSystem, args cli.Args) error {
		var size int64
		if _, err := fmt.Sscanf(args.Get(2), "%d", &size); err != nil {
			return cli.Exit(fmt.Sprintf("invalid size %q", args.Get(2)), 1)
		}
		return filesystem.Truncate(args.Get(1), size)
	})
}

// withMount opens IMAGE (the command's first positional argument) for
// read-write access, mounts it under the preset named by the --preset
// flag, and hands the result to fn along with the raw argument list so
// each subcommand can pull its own remaining positionals.
func withMount(context *cli.Context, wantArgs int, fn func(*fs.FileSystem, cli.Args) error) error {
	args := context.Args()
	if args.Len() != wantArgs {
		return cli.Exit(fmt.Sprintf("expected %d arguments, got %d", wantArgs, args.Len()), 1)
	}

	preset, err := disks.Get(context.String("preset"))
	if err != nil {
		return err
	}
	layout := preset.Layout()

	file, err := os.OpenFile(args.First(), os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	dev := blockdev.New(file, file, info.Size())
	filesystem, err := fs.Mount(dev, layout)
	if err != nil {
		return err
	}

	return fn(filesystem, args)
}
