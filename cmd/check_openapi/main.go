// Command check_openapi verifies that a backend OpenAPI document serves every
// route and record field the client packages depend on.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type openAPIDoc struct {
	Paths      map[string]map[string]operation `yaml:"paths"`
	Components struct {
		Schemas map[string]schema `yaml:"schemas"`
	} `yaml:"components"`
}

type operation struct {
	OperationID string `yaml:"operationId"`
}

type schema struct {
	Type       string            `yaml:"type"`
	Ref        string            `yaml:"$ref"`
	Properties map[string]schema `yaml:"properties"`
	Required   []string          `yaml:"required"`
	Items      *schema           `yaml:"items"`
}

type route struct {
	Method string
	Path   string
	// Optional routes are reported but do not fail the check.
	Optional bool
}

// clientRoutes lists what pkg/authclient, pkg/questionclient and
// pkg/answerclient call, relative to the API base URL.
var clientRoutes = []route{
	{Method: "post", Path: "/auth/register"},
	{Method: "post", Path: "/auth/token"},
	{Method: "get", Path: "/users/me"},
	{Method: "get", Path: "/users/{}", Optional: true},
	{Method: "get", Path: "/questions/"},
	{Method: "post", Path: "/questions/"},
	{Method: "get", Path: "/questions/{}"},
	{Method: "put", Path: "/questions/{}"},
	{Method: "delete", Path: "/questions/{}", Optional: true},
	{Method: "get", Path: "/questions/{}/answers"},
	{Method: "post", Path: "/questions/{}/vote", Optional: true},
	{Method: "post", Path: "/answers/"},
	{Method: "put", Path: "/answers/{}"},
	{Method: "delete", Path: "/answers/{}"},
	{Method: "post", Path: "/answers/{}/vote", Optional: true},
	{Method: "post", Path: "/answers/{}/accept", Optional: true},
}

// recordFields are the JSON properties the domain types cannot do without.
var recordFields = map[string][]string{
	"Token":    {"access_token", "token_type"},
	"User":     {"id", "email", "username"},
	"Question": {"id", "title", "content"},
	"Answer":   {"id", "question_id", "content"},
}

type report struct {
	Missing  []string
	Warnings []string
}

func main() {
	prefix := flag.String("prefix", "/api/v1", "path prefix the API base URL adds")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-prefix /api/v1] <openapi.json|openapi.yaml>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	doc, err := loadDoc(flag.Arg(0))
	if err != nil {
		exitErr(err)
	}
	rep := check(doc, *prefix)
	for _, w := range rep.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if len(rep.Missing) > 0 {
		errs := make([]error, 0, len(rep.Missing))
		for _, m := range rep.Missing {
			errs = append(errs, errors.New(m))
		}
		exitErr(errors.Join(errs...))
	}
	fmt.Println("OpenAPI contract check passed.")
}

// loadDoc parses a YAML or JSON document; JSON is valid YAML.
func loadDoc(path string) (openAPIDoc, error) {
	var doc openAPIDoc
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func check(doc openAPIDoc, prefix string) report {
	var rep report
	served := servedRoutes(doc, prefix)
	for _, r := range clientRoutes {
		key := r.Method + " " + r.Path
		if served[key] {
			continue
		}
		msg := fmt.Sprintf("route %s %s not served", strings.ToUpper(r.Method), r.Path)
		if r.Optional {
			rep.Warnings = append(rep.Warnings, msg)
			continue
		}
		rep.Missing = append(rep.Missing, msg)
	}

	names := make([]string, 0, len(recordFields))
	for name := range recordFields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s, err := getSchema(doc, name)
		if err != nil {
			rep.Missing = append(rep.Missing, err.Error())
			continue
		}
		for _, field := range recordFields[name] {
			if _, ok := s.Properties[field]; !ok {
				rep.Missing = append(rep.Missing, fmt.Sprintf("schema %s lacks property %q", name, field))
			}
		}
	}
	return rep
}

// servedRoutes returns "method path" keys with the prefix stripped and path
// parameters collapsed to {}.
func servedRoutes(doc openAPIDoc, prefix string) map[string]bool {
	prefix = strings.TrimRight(prefix, "/")
	out := make(map[string]bool)
	for path, ops := range doc.Paths {
		rel, ok := strings.CutPrefix(path, prefix)
		if !ok {
			continue
		}
		rel = normalizePath(rel)
		for method := range ops {
			out[strings.ToLower(method)+" "+rel] = true
		}
	}
	return out
}

func normalizePath(path string) string {
	var b strings.Builder
	inParam := false
	for _, r := range path {
		switch {
		case r == '{':
			inParam = true
			b.WriteString("{}")
		case r == '}':
			inParam = false
		case !inParam:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func getSchema(doc openAPIDoc, name string) (schema, error) {
	if doc.Components.Schemas == nil {
		return schema{}, errors.New("components.schemas missing")
	}
	s, ok := doc.Components.Schemas[name]
	if !ok {
		return schema{}, fmt.Errorf("schema %q missing", name)
	}
	return s, nil
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
