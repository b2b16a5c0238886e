// Package keywords exposes the SoapUI library as named keywords.
//
// A Registry maps keyword names to library operations. Names are matched the
// way the test framework matches them, so "SoapUI Set Endpoint",
// "soapui_set_endpoint" and "SOAPUISETENDPOINT" all resolve to the same
// keyword. Invoke binds positional or named arguments, converts them to the
// declared types and returns the keyword's value together with the messages
// it logged.
//
// Sessions give each caller its own library instance. A session lives for
// one test case; Reset starts the next one with a fresh library and stops any
// mock service the previous test case left running.
package keywords
