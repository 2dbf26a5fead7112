package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
)

func validateOutputFormat(outputFormat string) error {
	switch strings.ToLower(outputFormat) {
	case "table":
	case "yaml":
	case "json":
	default:
		return errors.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}

// render prints obj in the specified format. The table format lays out the
// specified rows, the first of which is the header.
func render(outputFormat string, obj interface{}, rows [][]interface{}) error {
	out, err := format(outputFormat, obj, rows)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func format(
	outputFormat string,
	obj interface{},
	rows [][]interface{},
) (string, error) {
	switch strings.ToLower(outputFormat) {
	case "table":
		table := uitable.New()
		for _, row := range rows {
			table.AddRow(row...)
		}
		return table.String(), nil
	case "yaml":
		yamlBytes, err := yaml.Marshal(obj)
		if err != nil {
			return "", errors.Wrap(err, "error formatting output")
		}
		return strings.TrimSuffix(string(yamlBytes), "\n"), nil
	case "json":
		prettyJSON, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "error formatting output")
		}
		return string(prettyJSON), nil
	}
	return "", errors.Errorf("unknown output format %q", outputFormat)
}
