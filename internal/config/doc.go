// Package config handles configuration loading for git-hyper.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion and merged over built-in defaults, so running without any
// config file works out of the box.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from GIT_HYPER_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/git-hyper/config.yaml
//  3. ~/.config/git-hyper/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	data:
//	  dir: "${GIT_HYPER_HOME}"
//
// # Sections
//
//	data:
//	  dir: "~/.git-hyper"              # profile database directory
//	  database_path: "~/.git-hyper/database.db"
//
//	ssh:
//	  dir: "~/.ssh"                    # keys and ssh config live here
//	  host: "github.com"               # routed host
//	  user: "git"
//
//	probe:
//	  timeout: "10s"                   # connectivity probe upper bound
//
//	backup:
//	  dir: "~/.git-hyper-backups"
//	  keep: 5                          # archives kept by cleanup
//
//	logging:
//	  level: "info"                    # debug, info, warn, error
//	  file: "~/.git-hyper/git-hyper.log"
package config
