// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package hose loads configuration values by name from JSON, YAML, .env
// or custom formatted files, choosing which files to consult, and in what
// order, from a runtime configuration identifier such as an environment
// name.
//
// # Definition
//
// Everything is declared in a single definition file:
//
//	{
//	  "config_identifier": "STAGE",
//	  "error_mode": "noisy",
//	  "files": {
//	    "defaults": "/config/defaults.json",
//	    "local":    "/.env",
//	    "vault":    {"fileUri": "/run/secrets/db.ini", "isAbsolute": true, "parserAlias": "ini"}
//	  },
//	  "variableGroups": [
//	    {
//	      "variables": ["DB_HOST", "DB_PORT", "DB_PASSWORD"],
//	      "source": {
//	        "dev":  ["local", "defaults"],
//	        "prod": ["vault", "defaults"]
//	      }
//	    }
//	  ]
//	}
//
// The configuration identifier is read from the environment variable named
// by config_identifier, falling back to APP_ENV. Relative file paths are
// resolved against the working directory. A bare path picks its built-in
// parser from the file extension. The long form may instead name a
// built-in parser with useDefault, or a custom parser with parserAlias.
//
// # Resolution
//
// For each variable group with sources for the active identifier, the
// sources are consulted in order until every variable in the group has
// been found. The first source containing a variable wins. If the sources
// run out first, New fails with an ExhaustedError.
//
// A source needing a custom parser which has not been registered does not
// fail. Its group is left pending at that source and resumes once the
// parser is registered with SetCustomParser:
//
//	h, err := hose.New(ctx, "hose.json", parser.JSON)
//	if err != nil {
//	    return err
//	}
//	err = h.SetCustomParser(ctx, "ini", parser.ParserFunc(parseIni))
//	if err != nil {
//	    return err
//	}
//	host, err := h.Get("DB_HOST")
//
// # Error Mode
//
// In the default noisy mode, Get fails for a declared variable which is
// still unavailable. With error_mode set to silent it returns NoValue.
//
// Every error returned by this module matches ErrHose with errors.Is.
package hose
