// Command flashfs manipulates flash file-table images.
//
//	flashfs format --image fs.img --size 65536
//	flashfs put a.txt notes.txt --image fs.img
//	flashfs ls --image fs.img
//	flashfs cat a.txt --image fs.img
package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	imagePath string
	imageSize int64
	pageSize  int64
	nameWidth int
	verbosity int

	log logr.Logger
)

// addRegionFlags registers the flags shared by every subcommand.
func addRegionFlags(fs *pflag.FlagSet) {
	fs.StringVar(&imagePath, "image", "fs.img", "path of the flash image file")
	fs.Int64Var(&pageSize, "page-size", 4096, "erase page size in bytes")
	fs.IntVar(&nameWidth, "name-width", 16, "fixed name field width (16 or 32)")
	fs.CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "flashfs",
		Short:         "inspect and fill flash file-table images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zl, err := newZapLogger(verbosity)
			if err != nil {
				return err
			}
			log = zapr.NewLogger(zl)
			return nil
		},
	}
	addRegionFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newFormatCmd(),
		newInfoCmd(),
		newLsCmd(),
		newPutCmd(),
		newCatCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "flashfs:", err)
		os.Exit(1)
	}
}

func newZapLogger(verbosity int) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	return cfg.Build()
}
