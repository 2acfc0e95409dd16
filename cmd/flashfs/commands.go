package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/keks/flashfs/imgdev"
	"github.com/keks/flashfs/pagedir"
)

// openRegion maps the image file and binds a region spanning all of it.
func openRegion(fs afero.Fs) (*pagedir.Region, *imgdev.Device, error) {
	dev, err := imgdev.Open(fs, imagePath, pageSize)
	if err != nil {
		return nil, nil, err
	}

	r, err := pagedir.New(dev, pagedir.Config{
		Length:    uint32(dev.Size()),
		PageSize:  uint32(pageSize),
		NameWidth: nameWidth,
		Log:       log,
	})
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return r, dev, nil
}

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "create (if --size is given) and format an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()

			var (
				dev *imgdev.Device
				err error
			)
			if imageSize > 0 {
				dev, err = imgdev.Create(fs, imagePath, imageSize, pageSize)
			} else {
				dev, err = imgdev.Open(fs, imagePath, pageSize)
			}
			if err != nil {
				return err
			}
			defer dev.Close()

			r, err := pagedir.New(dev, pagedir.Config{
				Length:    uint32(dev.Size()),
				PageSize:  uint32(pageSize),
				NameWidth: nameWidth,
				Log:       log,
			})
			if err != nil {
				return err
			}

			ok, err := r.Format()
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("format did not take")
			}
			fmt.Printf("formatted %s (%d bytes, %d-byte pages)\n", imagePath, dev.Size(), pageSize)
			return nil
		},
	}
	cmd.Flags().Int64Var(&imageSize, "size", 0, "image size in bytes when creating a new image")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "show region state and geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, dev, err := openRegion(afero.NewOsFs())
			if err != nil {
				return err
			}
			defer dev.Close()

			ok, err := r.Check()
			if err != nil {
				return err
			}
			fmt.Printf("image:      %s\n", imagePath)
			fmt.Printf("size:       %d bytes (%d pages of %d)\n", dev.Size(), dev.Size()/pageSize, pageSize)
			fmt.Printf("formatted:  %v\n", ok)
			if !ok {
				return nil
			}

			ents, err := r.List()
			if err != nil {
				return err
			}
			var used int64
			for _, e := range ents {
				used += (int64(e.Size) + pageSize - 1) / pageSize * pageSize
			}
			fmt.Printf("files:      %d\n", len(ents))
			fmt.Printf("content:    %d bytes reserved\n", used)
			return nil
		},
	}
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "list files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, dev, err := openRegion(afero.NewOsFs())
			if err != nil {
				return err
			}
			defer dev.Close()

			ents, err := r.List()
			if err != nil {
				return err
			}
			for _, e := range ents {
				fmt.Printf("%8d  %#08x  %s\n", e.Size, e.Addr, e.Name)
			}
			return nil
		},
	}
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <name> [file]",
		Short: "store a file (stdin if no file is given)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = os.Stdin
			if len(args) == 2 {
				in, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer in.Close()
				src = in
			}

			r, dev, err := openRegion(afero.NewOsFs())
			if err != nil {
				return err
			}
			defer dev.Close()

			f, err := r.OpenFile(args[0], "w")
			if err != nil {
				return err
			}
			n, err := io.Copy(f, src)
			if err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("wrote %q (%d bytes)\n", args[0], n)
			return nil
		},
	}
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <name>",
		Short: "print a file's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, dev, err := openRegion(afero.NewOsFs())
			if err != nil {
				return err
			}
			defer dev.Close()

			f, err := r.OpenFile(args[0], "r")
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = f.Pipe(context.Background(), os.Stdout, 0)
			return err
		},
	}
}
