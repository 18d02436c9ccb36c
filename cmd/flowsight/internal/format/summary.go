// Copyright 2025 Flowsight Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// PrintSuccessSummary prints a standardized success message
// Examples:
//   - "✓ Analyzed flows.csv (45,332 rows)"
//   - "✓ Exported scored rows to flows_scored.csv"
func (f *formatter) PrintSuccessSummary(operation, subject, detail string) error {
	if f.quiet {
		// Quiet mode: minimal output
		if subject != "" {
			_, err := fmt.Fprintln(f.stdout, subject)
			return err
		}
		return nil
	}

	if f.mode == ModeJSON {
		// JSON mode: structured output
		return f.PrintJSON(map[string]any{
			"success":   true,
			"operation": operation,
			"subject":   subject,
			"detail":    detail,
		})
	}

	// Table mode: user-friendly message
	var message string
	switch {
	case subject != "" && detail != "":
		message = fmt.Sprintf("✓ %s %s (%s)", capitalize(operation), subject, detail)
	case subject != "":
		message = fmt.Sprintf("✓ %s %s", capitalize(operation), subject)
	default:
		message = fmt.Sprintf("✓ %s completed successfully", capitalize(operation))
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintTotalFailureSummary prints total failure with error and suggestions
// Example output:
//
//	✗ Failed to analyze: uploaded CSV contains no rows
//
//	💡 Suggestions:
//	  → Check the file has at least one data row
//	  → Export the capture again:  flowsight analyze <file.csv>
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string) error {
	if f.quiet {
		// Quiet mode: suppress summary
		return nil
	}

	if f.mode == ModeJSON {
		// JSON mode: structured output
		return f.PrintJSON(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": errorCode,
		})
	}

	// Table mode: formatted error with suggestions
	var sb strings.Builder

	// Error message
	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(fmt.Sprintf("%s\n", errorMsg))
	}

	// Suggestions based on error code
	suggestions := GetSuggestions(errorCode, operation)
	if len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	_, writeErr := f.stdout.Write([]byte(sb.String()))
	return writeErr
}

// GetSuggestions returns actionable hints based on error code and operation
func GetSuggestions(errorCode string, operation string) []string {
	suggestions := []string{}

	switch errorCode {
	case "SCHEMA_ERROR":
		suggestions = append(suggestions,
			"Check the CSV has a header row and the expected flow columns",
			fmt.Sprintf("Inspect the parse report:    flowsight %s <file.csv> --output json", operation),
		)

	case "NETWORK_ERROR":
		suggestions = append(suggestions,
			"Check the model service URL:  flowsight server start --scoring-url http://host:port",
			"Fall back to the heuristic:   flowsight server start --scoring-mode heuristic",
		)

	case "TIMEOUT_ERROR":
		suggestions = append(suggestions,
			"Increase the scoring timeout in the config file (scoring.timeout)",
			"Reduce the row cap:           flowsight server start --max-rows 20000",
		)

	case "SERVER_INVALID_PORT":
		suggestions = append(suggestions,
			"Ports must be between 1 and 65535",
			"Example:                      flowsight server start --port 8080",
		)

	case "SERVER_INVALID_UPLOAD_LIMIT":
		suggestions = append(suggestions,
			"Upload limits must be between 1 and 1024 MB",
			"Example:                      flowsight server start --max-upload-mb 64",
		)

	case "SERVER_CONFIG_UNAVAILABLE":
		suggestions = append(suggestions,
			"Run the command through the flowsight CLI entrypoint",
			"Pass a config file:           flowsight --config flowsight.yaml server start",
		)

	case "SERVER_SCORER_INIT_FAILED":
		suggestions = append(suggestions,
			"Remote mode needs a URL:      flowsight server start --scoring-mode remote --scoring-url http://host:port",
			"Valid scoring modes: heuristic, remote",
		)

	case "SERVER_INVALID_CONFIG":
		suggestions = append(suggestions,
			"Review the server section of the config file",
			"Print effective defaults:     flowsight version && flowsight server start --help",
		)
	}

	return suggestions
}

// capitalize capitalizes the first letter of a string
func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
