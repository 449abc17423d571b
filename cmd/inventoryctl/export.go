package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/floorplan-inventory/backend/internal/persistence"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		format  string
		floorID string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the inventory as json, csv, xlsx or a floor as svg",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			var data []byte
			building := rt.Store.Building()
			switch format {
			case "json":
				data, err = persistence.ExportJSON(building, opts.now())
			case "csv":
				data = persistence.ExportCSV(building)
			case "xlsx":
				data, err = persistence.ExportXLSX(building)
			case "svg":
				if floorID == "" {
					floorID = rt.Store.CurrentFloorID()
				}
				floor, ferr := rt.Store.Floor(floorID)
				if ferr != nil {
					return ferr
				}
				data = persistence.ExportFloorSVG(floor, rt.Config.Canvas())
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}

			out, err := output(cmd, outPath)
			if err != nil {
				return err
			}
			if _, err := out.Write(data); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json|csv|xlsx|svg")
	cmd.Flags().StringVar(&floorID, "floor", "", "Floor to render for svg (default: the open floor)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
