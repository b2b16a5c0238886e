// Package config provides configuration management for soapctl.
//
// Configuration is loaded from up to three layers and merged in order, later
// layers overriding earlier ones:
//
//  1. Default configuration (compiled in)
//  2. User configuration (~/.config/soapctl/config.yaml)
//  3. Project configuration (./.soapctl/config.yaml)
//
// # Configuration Structure
//
//	soapui:
//	  home: "${SOAPUI_HOME:-/opt/SoapUI-5.7.0}"
//	  testRunner: ""            # defaults to <home>/bin/testrunner.sh
//	  mockRunner: ""            # defaults to <home>/bin/mockservicerunner.sh
//	  mockStartTimeout: 60s
//	  env:
//	    JAVA_OPTS: "-Xmx2g"
//	  extraArgs: ["-I"]
//
//	server:
//	  transport: "streamable-http"  # or "stdio"
//	  host: "localhost"
//	  port: 8095
//
//	scenarios:
//	  path: "scenarios"
//	  parallel: 2
//	  failFast: true
//	  reportPath: "results/report.json"
//
//	logging:
//	  level: "debug"
//
// # Environment Variable Expansion
//
// Path-like values and runner environment entries support ${VAR} and
// ${VAR:-default} expansion.
package config
