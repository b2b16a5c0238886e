// Package scenario runs keyword scenarios written in YAML.
//
// A suite file lists tests, each an ordered list of keyword steps:
//
//	name: weather
//	variables:
//	  project: projects/weather-soapui-project.xml
//	setup:
//	  - keyword: SoapUI Start Mock Service
//	    args: ["${project}", "WeatherMock"]
//	teardown:
//	  - keyword: SoapUI Stop Mock Service
//	tests:
//	  - name: forecast passes
//	    tags: [smoke]
//	    steps:
//	      - keyword: SoapUI Project
//	        args: ["${project}"]
//	      - keyword: SoapUI Set Project Property
//	        args: ["env=qa"]
//	      - keyword: SoapUI Run
//
// Every test runs in its own scope, a fresh library instance that is closed
// when the test ends. Suite setup and teardown share a separate scope, so a
// mock service started in setup stays up for every test of the suite.
//
// Steps pass when the keyword does not fail, unless an expect block says
// otherwise. ${name} references are replaced with suite variables, values
// assigned by earlier steps, or environment variables.
//
// An Executor performs the calls: LocalExecutor runs keywords in-process,
// RemoteExecutor runs them on a keyword server over MCP.
package scenario
