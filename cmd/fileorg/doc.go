// Command fileorg sorts a directory tree into category folders with
// metadata-enriched, collision-free file names.
//
// Subcommands:
//
//	organize SRC DST   copy (or move) every file under SRC into DST
//	classify FILE...   show how files would be classified
//	history            list past runs; history show RUN_ID lists its files
//	doctor             check state directories and optional tools
//	config init        write a sample configuration
//	config validate    load and validate the configuration
package main
