//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

// set with -ldflags "-X junosi/pkg/version.Revision=..."
var (
	Version   string = "0.3"
	Revision  string = ""
	BuildTime string = ""
)

// buildInfo fills what -ldflags left empty from the vcs stamp of the binary.
func buildInfo() (revision string, buildTime string, modified bool) {
	revision, buildTime = Revision, BuildTime
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if revision == "" {
				revision = s.Value
			}
		case "vcs.time":
			if buildTime == "" {
				buildTime = s.Value
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	return
}

func OnelineVersionString() string {
	rev, _, _ := buildInfo()
	if rev == "" {
		return Version
	}
	return Version + "." + rev
}

func WriteVersionInfo(w io.Writer) {
	rev, built, modified := buildInfo()
	fmt.Fprintf(w, "\nJunoSI %s %s\n\n", filepath.Base(os.Args[0]), Version)
	if rev != "" {
		if modified {
			rev += " (modified)"
		}
		fmt.Fprintf(w, "  Git Commit: %s\n", rev)
	}
	fmt.Fprintf(w, "  Go Version: %s\n  OS/Arch   : %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if built != "" {
		fmt.Fprintf(w, "  Built     : %s\n", built)
	}
	fmt.Fprintln(w)
}

func PrintVersionInfo() {
	WriteVersionInfo(os.Stdout)
}
