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

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"text/template"

	"github.com/golang/glog"

	"junosi/pkg/version"
)

type (
	ICommand interface {
		GetName() string
		GetDesc() string
		GetSynopsis() string
		GetDetails() string
		GetOptionDesc() string
		GetExample() string
		AddExample(cmdExample string, desc string)
		AddDetails(txt string)
		Init(name string, desc string)
		Exec()
		Parse(args []string) error
		PrintUsage()
	}

	// Command is embedded by every subcommand. It owns the option set and
	// the text rendered by PrintUsage.
	Command struct {
		Option
		name       string
		desc       string
		synopsis   string
		details    string
		examples   string
		optVModule string
	}

	Group struct {
		name string
		cmds []ICommand
	}

	registryT struct {
		commands  map[string]ICommand
		groups    []*Group
		ungrouped []ICommand
	}
)

var registry = registryT{commands: make(map[string]ICommand)}

var usageTemplate = template.Must(template.New("cmd-usage").Parse(`
NAME
	{{.GetName}}{{if .GetDesc}} - {{.GetDesc}}{{end}}

SYNOPSIS
	{{.GetName}} {{if .GetSynopsis}}{{.GetSynopsis}}{{else}}[<args>]{{end}}
{{if .GetOptionDesc}}
OPTION
{{.GetOptionDesc}}
{{end}}
{{if .GetDetails}}DESCRIPTION
{{.GetDetails}}
{{end}}
{{if .GetExample}}EXAMPLE
{{.GetExample}}
{{end}}
`))

func (c *Command) Init(name string, desc string) {
	c.name = name
	c.desc = desc
	c.Option.Init(name, flag.ExitOnError)
	c.StringVar(&c.optVModule, "vmodule", "", "comma-separated list of pattern=N settings for file-filtered logging")
	c.Option.Usage = c.PrintUsage
}

func (c *Command) SetSynopsis(str string) { c.synopsis = str }
func (c *Command) GetName() string        { return c.name }
func (c *Command) GetDesc() string        { return c.desc }
func (c *Command) GetSynopsis() string    { return c.synopsis }
func (c *Command) GetDetails() string     { return c.details }
func (c *Command) GetExample() string     { return c.examples }
func (c *Command) AddDetails(txt string)  { c.details += txt }

func (c *Command) AddExample(cmdExample string, desc string) {
	c.examples += desc + "\n\t\t" + cmdExample + "\n\n"
}

func (c *Command) Write(w io.Writer) {
	wo := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := usageTemplate.Execute(wo, c); err != nil {
		fmt.Fprintln(w, err)
	}
	wo.Flush()
}

func (c *Command) PrintUsage() {
	page(c.Write)
}

func (c *Command) Validate() {
	if !c.Parsed() {
		glog.Exit("not parsed")
	}
}

func (c *Command) Parse(arguments []string) (err error) {
	if err = c.Option.Parse(arguments); err == nil && c.optVModule != "" {
		err = flag.Set("vmodule", c.optVModule)
	}
	return
}

// page shows the text through less when it is available.
func page(write func(io.Writer)) {
	var buf bytes.Buffer
	write(&buf)
	less := exec.Command("less")
	less.Stdin = bytes.NewReader(buf.Bytes())
	less.Stdout = os.Stdout
	if err := less.Run(); err != nil {
		os.Stdout.Write(buf.Bytes())
	}
}

func (r *registryT) add(c ICommand) bool {
	if _, found := r.commands[c.GetName()]; found {
		glog.Warningf("command %s has been registered", c.GetName())
		return false
	}
	r.commands[c.GetName()] = c
	return true
}

func (r *registryT) group(name string) *Group {
	for _, g := range r.groups {
		if g.name == name {
			return g
		}
	}
	return nil
}

// RegisterNewGroup registers cmds under a heading of the top level usage.
// Groups are listed in registration order.
func RegisterNewGroup(name string, cmds ...ICommand) *Group {
	if registry.group(name) != nil {
		glog.Warningf("group %s has been registered", name)
		return nil
	}
	grp := &Group{name: name}
	for _, c := range cmds {
		if registry.add(c) {
			grp.cmds = append(grp.cmds, c)
		}
	}
	registry.groups = append(registry.groups, grp)
	return grp
}

func Register(c ICommand) bool {
	if registry.add(c) {
		registry.ungrouped = append(registry.ungrouped, c)
		return true
	}
	return false
}

func GetCommand(name string) ICommand {
	return registry.commands[name]
}

// ParseCommandLine finds the first argument naming a registered command. The
// arguments before it and after it are returned together, in order.
func ParseCommandLine() (ICommand, []string) {
	return parseArgs(os.Args[1:])
}

func parseArgs(argv []string) (cmd ICommand, args []string) {
	for i, arg := range argv {
		if cmd = GetCommand(arg); cmd != nil {
			args = append(args, argv[i+1:]...)
			return
		}
		args = append(args, arg)
	}
	return
}

func Write(w io.Writer) {
	fmt.Fprintf(w, "\nUSAGE\n  %s [-version] [[options] <command> [<args>]] \n\n", filepath.Base(os.Args[0]))
	WriteCommand(w)
}

func WriteCommand(w io.Writer) {
	if len(registry.groups)+len(registry.ungrouped) == 0 {
		return
	}
	fmt.Fprintln(w, "\nCOMMAND")
	writeList := func(cmds []ICommand) {
		sorted := append([]ICommand(nil), cmds...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].GetName() < sorted[j].GetName() })
		for _, c := range sorted {
			fmt.Fprintf(w, "    * %s\n      %s\n", c.GetName(), c.GetDesc())
		}
	}
	for _, g := range registry.groups {
		fmt.Fprintf(w, "  %s\n", g.name)
		writeList(g.cmds)
	}
	if len(registry.ungrouped) != 0 {
		if len(registry.groups) != 0 {
			fmt.Fprintln(w, "  others")
		}
		writeList(registry.ungrouped)
	}
}

func PrintUsage() {
	page(Write)
}

func PrintVersionOrUsage() {
	var option Option
	var displayVersion bool
	option.BoolOption(&displayVersion, "version", false, "display version info.")
	option.Usage = PrintUsage
	if err := option.Parse(os.Args[1:]); err == nil && displayVersion {
		version.PrintVersionInfo()
	}
}
