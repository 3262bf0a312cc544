// Command badblockctl is a small operator tool for inspecting and
// exercising a bad-block-managed NAND device. It runs against a
// file-persisted nandsim.Chip rather than real hardware, modeled on
// earentir-mkfat's cobra.Command tree (a root command plus leaf
// RunE subcommands reading shared flag variables).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amlogic/aml-badblock/badblock"
	"github.com/amlogic/aml-badblock/config"
	"github.com/amlogic/aml-badblock/nand"
	"github.com/amlogic/aml-badblock/nandsim"
)

var (
	configPath string
	imagePath  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "badblockctl",
		Short: "Inspect and exercise a bad-block-managed NAND image",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "badblock.yaml", "path to the platform config file")
	root.PersistentFlags().StringVar(&imagePath, "image", "nand.img", "path to the simulated NAND image file")

	root.AddCommand(newInitCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newListBadCmd())
	root.AddCommand(newMarkBadCmd())

	return root
}

// openCore loads the config and image file and builds a badblock.Core
// over a file-backed nandsim.Chip.
func openCore() (*badblock.Core, *nandsim.Chip, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	chip, err := nandsim.LoadFile(imagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("badblockctl: %w", err)
	}

	adapter := nand.NewAdapter(chip)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	core, err := badblock.New(adapter, badblock.Config{
		TableStartBlock: cfg.TableStartBlock,
		TableEndBlock:   cfg.TableEndBlock,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("badblockctl: %w", err)
	}
	return core, chip, nil
}

func newInitCmd() *cobra.Command {
	var pageSize, pagesPerBlock, numBlocks, oobSize uint32
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fresh, fully erased NAND image file",
		RunE: func(_ *cobra.Command, _ []string) error {
			chip := nandsim.New(nand.Info{
				PageSize:      pageSize,
				PagesPerBlock: pagesPerBlock,
				NumBlocks:     numBlocks,
				OOBSize:       oobSize,
			})
			if err := chip.SaveFile(imagePath); err != nil {
				return fmt.Errorf("badblockctl: %w", err)
			}
			fmt.Printf("created %s (%d blocks x %d pages x %d bytes, oob %d)\n",
				imagePath, numBlocks, pagesPerBlock, pageSize, oobSize)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&pageSize, "page-size", 2048, "page size in bytes")
	cmd.Flags().Uint32Var(&pagesPerBlock, "pages-per-block", 64, "pages per erase block")
	cmd.Flags().Uint32Var(&numBlocks, "num-blocks", 1024, "number of erase blocks")
	cmd.Flags().Uint32Var(&oobSize, "oob-size", 64, "out-of-band bytes per page")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether block 0 is reachable and the table's discovery state",
		RunE: func(_ *cobra.Command, _ []string) error {
			core, _, err := openCore()
			if err != nil {
				return err
			}
			bad, err := core.IsBad(0)
			if err != nil {
				return fmt.Errorf("badblockctl: %w", err)
			}
			fmt.Printf("block 0 bad: %v\n", bad)
			return nil
		},
	}
}

func newListBadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-bad <first> <last>",
		Short: "List bad blocks in [first, last)",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			first, err := parseUint32(args[0])
			if err != nil {
				return err
			}
			last, err := parseUint32(args[1])
			if err != nil {
				return err
			}
			core, _, err := openCore()
			if err != nil {
				return err
			}
			bad, err := core.ListBad(first, last)
			if err != nil {
				return fmt.Errorf("badblockctl: %w", err)
			}
			for _, b := range bad {
				fmt.Println(b)
			}
			return nil
		},
	}
}

func newMarkBadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-bad <block>",
		Short: "Mark a block bad and persist an updated table to the image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			block, err := parseUint32(args[0])
			if err != nil {
				return err
			}
			core, chip, err := openCore()
			if err != nil {
				return err
			}
			if err := core.MarkBad(block); err != nil {
				return fmt.Errorf("badblockctl: %w", err)
			}
			if err := chip.SaveFile(imagePath); err != nil {
				return fmt.Errorf("badblockctl: %w", err)
			}
			fmt.Printf("marked block %d bad\n", block)
			return nil
		},
	}
}

func parseUint32(s string) (uint32, error) {
	var v uint32
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, fmt.Errorf("badblockctl: invalid block number %q: %w", s, err)
	}
	return v, nil
}
