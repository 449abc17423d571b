package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/bootstrap"
	"github.com/floorplan-inventory/backend/internal/csvimport"
	"github.com/floorplan-inventory/backend/internal/inventory"
	"github.com/floorplan-inventory/backend/internal/layout"
	"github.com/floorplan-inventory/backend/internal/models"
	"github.com/floorplan-inventory/backend/internal/persistence"
)

func newImportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a building or the items of a floor",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "json FILE",
			Short: "Replace the whole building with an exported JSON document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				building, err := persistence.ImportJSON(data)
				if err != nil {
					return err
				}

				rt, _, err := opts.open(cmd)
				if err != nil {
					return err
				}
				defer rt.Close()

				ctx, report := inventory.WithSaveReport(cmd.Context())
				if _, err := rt.Store.Dispatch(ctx, inventory.ReplaceBuilding{Building: *building}); err != nil {
					return err
				}
				if err := report.Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d floors\n", len(building.Floors))
				return nil
			},
		},
		newRowsImportCmd(opts, "csv", "Replace the items of a floor with the rows of a CSV file",
			func(rt *bootstrap.Runtime, floor models.Floor, data []byte) ([]csvimport.Row, int, int, error) {
				aliases := rt.Aliases[floor.ID]
				if len(aliases) == 0 {
					aliases = csvimport.FromRooms(floor.Rooms)
				}
				res, err := csvimport.Resolver{Aliases: aliases, ExactFirst: rt.Config.AliasExactFirst}.Resolve(data)
				if err != nil {
					return nil, 0, 0, err
				}
				return res.Rows, res.Dropped, res.Skipped, nil
			}),
		newRowsImportCmd(opts, "legacy", "Replace the items of a floor with a legacy per-room item map",
			func(_ *bootstrap.Runtime, _ models.Floor, data []byte) ([]csvimport.Row, int, int, error) {
				rows, err := layout.DecodeLegacyItems(data)
				return rows, 0, 0, err
			}),
	)
	return cmd
}

type rowsDecoder func(rt *bootstrap.Runtime, floor models.Floor, data []byte) (rows []csvimport.Row, dropped, skipped int, err error)

func newRowsImportCmd(opts *options, name, short string, decode rowsDecoder) *cobra.Command {
	var floorID string

	cmd := &cobra.Command{
		Use:   name + " FILE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			rt, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if floorID == "" {
				floorID = rt.Store.CurrentFloorID()
			}
			floor, err := rt.Store.Floor(floorID)
			if err != nil {
				return err
			}

			rows, dropped, skipped, err := decode(rt, floor, data)
			if err != nil {
				return err
			}
			ctx, report := inventory.WithSaveReport(cmd.Context())
			res, err := rt.Store.Dispatch(ctx, inventory.ApplyImport{FloorID: floor.ID, Rows: rows})
			if err != nil {
				return err
			}
			if err := report.Err(); err != nil {
				return err
			}

			summary := res.(models.ImportSummary)
			summary.Dropped += dropped
			summary.Skipped += skipped
			logger.Debug("Import applied", zap.String("floor_id", floor.ID), zap.String("file", args[0]))

			fmt.Fprintf(cmd.OutOrStdout(), "Floor %s: %d imported, %d dropped, %d skipped\n",
				floor.Name, summary.Imported, summary.Dropped, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&floorID, "floor", "", "Target floor id (default: the open floor)")
	return cmd
}

func newFloorsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "floors",
		Short: "List floors with their room and item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			current := rt.Store.CurrentFloorID()
			for _, f := range rt.Store.Building().Floors {
				items := 0
				for _, r := range f.Rooms {
					items += len(r.Items)
				}
				marker := " "
				if f.ID == current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\t%d rooms\t%d items\n", marker, f.ID, f.Name, len(f.Rooms), items)
			}
			return nil
		},
	}
}
