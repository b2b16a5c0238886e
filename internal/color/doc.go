// Package color holds the terminal styles used by soapctl's console output.
//
// Styles use lipgloss adaptive colors, so the same palette reads well on dark
// and light terminals:
//   - Success: passed tests and suites
//   - Failure: failed tests and keyword failures
//   - Warning: executor errors and warnings
//   - Muted: skipped tests and secondary detail
//   - Title: headings
//
// Call Configure with the output writer before rendering. Colors are turned
// off when the writer is not a terminal or NO_COLOR is set.
//
//	color.Configure(os.Stdout)
//	fmt.Println(color.Success.Render("PASS"))
package color
