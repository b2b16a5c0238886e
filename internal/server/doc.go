// Package server serves the SoapUI keywords over the Model Context Protocol.
//
// Every keyword is a tool named after its snake_case form, for example
// soapui_set_endpoint. Each MCP client session gets its own library
// instance; soapui_start_test_case replaces it with a fresh one. Keyword
// failures are tool errors whose text is the failure message, and the
// framework log lines a keyword wrote are appended to the result as
// "[INFO] ..." or "[WARN] ..." entries.
package server
