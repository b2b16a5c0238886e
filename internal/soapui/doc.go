// Package soapui is the boundary to the SoapUI test execution engine.
//
// The keyword library only sees the TestCaseRunner and MockServiceRunner
// interfaces. CLIEngine implements them on top of the command line runners
// shipped with every SoapUI installation:
//
//   - testrunner.sh executes a project, suite or single test case. Failed
//     test cases are read from the JUnit reports the runner writes (-j) and,
//     when no report is available, from the console summary.
//   - mockservicerunner.sh serves a mock service. Non-blocking runs return
//     once the engine reports "started on port"; StopAll kills the runner's
//     process group.
package soapui
