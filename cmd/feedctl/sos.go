package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mr1hm/resqlink/internal/sos"
)

var sosCmd = &cobra.Command{
	Use:   "sos",
	Short: "Submit an SOS report",
	Long:  "Submits an SOS report to the application backend. A location is required; pass --lat and --lon to share it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		typeFlag, _ := cmd.Flags().GetString("type")
		details, _ := cmd.Flags().GetString("details")
		mobile, _ := cmd.Flags().GetString("mobile")

		disasterType, ok := sos.ParseDisasterType(typeFlag)
		if !ok {
			return fmt.Errorf("%w (one of: %s)", sos.ErrDisasterTypeRequired, strings.Join(sos.DisasterTypes[1:], ", "))
		}

		perm := sos.NewLocationPermission()
		if err := perm.Prompt(); err != nil {
			return err
		}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			if err := perm.Grant(lat, lon); err != nil {
				return err
			}
		} else if err := perm.Deny("no coordinates given"); err != nil {
			return err
		}

		report := sos.Report{
			MobileNumber: mobile,
			DisasterType: disasterType,
			Details:      details,
			Location:     perm.Location(),
		}
		if err := report.Validate(); err != nil {
			if perm.State() == sos.PermissionDenied {
				return fmt.Errorf("%w: %s", err, perm.Reason())
			}
			return err
		}

		resp, err := newBackendClient().SubmitSOS(cmd.Context(), report)
		if err != nil {
			return fmt.Errorf("submission failed: %w", err)
		}
		fmt.Fprintln(os.Stdout, "SOS report submitted.")
		if len(resp) > 0 {
			return writeJSON(os.Stdout, resp)
		}
		return nil
	},
}

func init() {
	sosCmd.Flags().String("type", sos.TypeNone, "disaster type")
	sosCmd.Flags().String("details", "", "what is happening")
	sosCmd.Flags().String("mobile", "", "contact mobile number")
	sosCmd.Flags().Float64("lat", 0, "latitude")
	sosCmd.Flags().Float64("lon", 0, "longitude")

	rootCmd.AddCommand(sosCmd)
}
