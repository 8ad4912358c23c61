// Command abxctl runs the antibiotic advisor from the command line: recommendations
// from a JSON patient file, the scenario table, creatinine clearance and the
// surveillance regions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/giygas/antibiotic-advisor/handlers"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/recommend"
	"github.com/giygas/antibiotic-advisor/resistance"
	"github.com/giygas/antibiotic-advisor/surveillance"
	"github.com/giygas/antibiotic-advisor/validation"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "abxctl",
		Short:        "Empiric antibiotic advisor",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("source", os.Getenv("SURVEILLANCE_SOURCE"), "Surveillance snapshot (YAML/JSON/TSV file or http(s) URL); empty uses built-in data")

	root.AddCommand(recommendCmd())
	root.AddCommand(scenariosCmd())
	root.AddCommand(crclCmd())
	root.AddCommand(regionsCmd())
	return root
}

// loadSnapshot loads the snapshot named by --source
func loadSnapshot(cmd *cobra.Command) (resistance.Snapshot, error) {
	location, _ := cmd.Flags().GetString("source")
	source, err := surveillance.New(location)
	if err != nil {
		return resistance.Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	snapshot, err := source.Load(ctx)
	if err != nil {
		return resistance.Snapshot{}, fmt.Errorf("failed to load snapshot from %s: %w", source.Name(), err)
	}
	return snapshot, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend [patient.json]",
		Short: "Recommend empiric therapy for a patient read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open patient file: %w", err)
				}
				defer f.Close()
				r = f
			}

			var in patient.Input
			dec := json.NewDecoder(r)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&in); err != nil {
				return fmt.Errorf("invalid patient JSON: %w", err)
			}
			if err := validation.NewDataValidator().ValidatePatientInput(&in); err != nil {
				return err
			}
			if region, _ := cmd.Flags().GetString("region"); region != "" && in.Region == "" {
				in.Region = region
			}

			snapshot, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}

			rec := recommend.NewEngine(recommend.Options{}).Recommend(in, snapshot)
			if cards, _ := cmd.Flags().GetBool("cards"); cards {
				return writeJSON(cmd.OutOrStdout(), handlers.CDSHookResponse{Cards: handlers.Cards(rec)})
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().String("region", "", "Region used when the patient names none")
	cmd.Flags().Bool("cards", false, "Print CDS Hooks cards instead of the recommendation")
	return cmd
}

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List clinical scenarios in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PRIORITY\tID\tDESCRIPTION")
			for _, e := range recommend.NewEngine(recommend.Options{}).Scenarios().Entries() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Priority, e.ID, e.Description)
			}
			return tw.Flush()
		},
	}
}

func crclCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crcl",
		Short: "Estimate creatinine clearance and dosing weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, _ := cmd.Flags().GetFloat64("age")
			weight, _ := cmd.Flags().GetFloat64("weight")
			height, _ := cmd.Flags().GetFloat64("height")
			creatinine, _ := cmd.Flags().GetFloat64("creatinine")
			gender, _ := cmd.Flags().GetString("gender")

			in := patient.Input{Gender: gender}
			if cmd.Flags().Changed("age") {
				in.Age = patient.M(age)
			}
			if cmd.Flags().Changed("weight") {
				in.Weight = patient.M(weight)
			}
			if cmd.Flags().Changed("height") {
				in.Height = patient.M(height)
			}
			if cmd.Flags().Changed("creatinine") {
				in.Creatinine = patient.M(creatinine)
			}

			p := patient.Normalize(in)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"age":         p.Age,
				"weight":      p.Weight,
				"gender":      p.Gender,
				"renal":       p.Renal,
				"body":        p.Body,
				"dataQuality": p.Findings,
			})
		},
	}
	cmd.Flags().Float64("age", 0, "Age in years")
	cmd.Flags().Float64("weight", 0, "Weight in kg")
	cmd.Flags().Float64("height", 0, "Height in cm")
	cmd.Flags().Float64("creatinine", 0, "Serum creatinine in mg/dL")
	cmd.Flags().String("gender", "", "male or female")
	return cmd
}

func regionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "Show regional resistance prevalence from the surveillance snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source: %s\n", snapshot.Source)
			if !snapshot.AsOf.IsZero() {
				fmt.Fprintf(out, "as of:  %s\n", snapshot.AsOf.Format("2006-01-02"))
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REGION\tMRSA\tVRE\tESBL\tCRE\tPSEUDOMONAS")
			row := func(name string, d resistance.RegionalData) {
				fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n", name, d.MRSA, d.VRE, d.ESBL, d.CRE, d.Pseudomonas)
			}
			row(resistance.GlobalRegion, snapshot.Default)
			for _, key := range snapshot.RegionKeys() {
				row(key, snapshot.Regions[key])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if report := validation.NewDataValidator().ReportSnapshotQuality(snapshot); report.HasIssues() {
				fmt.Fprintln(out)
				return writeJSON(out, report)
			}
			return nil
		},
	}
}
