// Package cli implements the simuserver command-line interface.
//
// Commands:
//
//	simuserver serve            run the server in the foreground
//	simuserver templates ...    manage the template directory
//	simuserver config ...       inspect and edit the configuration file
//	simuserver ws [url]         connect to a WebSocket channel and print messages
//	simuserver version          print build information
//
// Configuration is resolved in this order, later sources winning: built-in
// defaults, the configuration file, a .env file, SIMUSERVER_* environment
// variables, and command flags.
package cli
