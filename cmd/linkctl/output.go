package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON 以縮排 JSON 輸出到 stdout
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
