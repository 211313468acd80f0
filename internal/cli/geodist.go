package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kislerdm/dk-utils/internal/geo"
)

func init() {
	cmd := &cobra.Command{
		Use:   "geodist",
		Short: "Equirectangular distance between coordinate pairs",
		Long: `Compute the distance between each --from point and the --to point at the
same position. Points are "lat,lon" in degrees; repeat the flags for
several pairs.`,
		Run: runGeodist,
	}

	cmd.Flags().StringArray("from", nil, "Start point lat,lon (repeatable, required)")
	cmd.Flags().StringArray("to", nil, "End point lat,lon (repeatable, required)")
	cmd.Flags().StringP("unit", "u", "m", "Unit: m or km")

	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	RootCmd.AddCommand(cmd)
}

type distanceResult struct {
	From     geo.Point `json:"from"`
	To       geo.Point `json:"to"`
	Distance float64   `json:"distance"`
	Unit     geo.Unit  `json:"unit"`
}

func runGeodist(cmd *cobra.Command, args []string) {
	from, _ := cmd.Flags().GetStringArray("from")
	to, _ := cmd.Flags().GetStringArray("to")
	unit, _ := cmd.Flags().GetString("unit")

	results, err := geodist(from, to, unit)
	if err != nil {
		exitErr("geodist", err)
	}
	if err := writeDistances(cmd.OutOrStdout(), results, formatFlag); err != nil {
		exitErr("write", err)
	}
}

func geodist(from, to []string, unit string) ([]distanceResult, error) {
	u, err := geo.ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	starts, err := parsePoints(from)
	if err != nil {
		return nil, err
	}
	stops, err := parsePoints(to)
	if err != nil {
		return nil, err
	}
	dists, err := geo.Distances(starts, stops, u)
	if err != nil {
		return nil, err
	}

	out := make([]distanceResult, len(dists))
	for i, d := range dists {
		out[i] = distanceResult{From: starts[i], To: stops[i], Distance: d, Unit: u}
	}
	return out, nil
}

func parsePoints(ss []string) ([]geo.Point, error) {
	pts := make([]geo.Point, 0, len(ss))
	for _, s := range ss {
		p, err := geo.ParsePoint(s)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func writeDistances(w io.Writer, results []distanceResult, format string) error {
	if format == "text" {
		for _, r := range results {
			fmt.Fprintf(w, "%.3f %s\n", r.Distance, r.Unit)
		}
		return nil
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
