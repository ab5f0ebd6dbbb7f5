// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"worth-it/pkg/registry"
)

const defaultPath = "pkg/registry/activities.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	addPath := addCmd.String("path", defaultPath, "Path to registry file")
	idAdd := addCmd.String("id", "", "Activity ID (e.g., evaluate-goal)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Evaluate Goal)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (e.g., scoring)")
	taskType := addCmd.String("taskType", "", "Zeebe task type (defaults to id)")
	version := addCmd.String("version", "1.0.0", "Version")
	timeout := addCmd.String("timeout", "10s", "Handler timeout")
	implStatus := addCmd.String("status", "planned", "Implementation Status (planned, in-progress, implemented)")

	updatePath := updateCmd.String("path", defaultPath, "Path to registry file")
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, timeout, retries, ...)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")
	listPath := listCmd.String("path", defaultPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *category == "" {
			fmt.Println("Error: id, displayName and category are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		if *taskType == "" {
			*taskType = *idAdd
		}
		err = addActivity(*addPath, registry.Activity{
			ID:                   *idAdd,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ImplementationStatus: *implStatus,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              *timeout,
			Tags:                 []string{},
		})
		if err == nil {
			fmt.Printf("Added activity: %s\n", *idAdd)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" {
			fmt.Println("Error: id and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err = updateActivity(*updatePath, *idUpdate, *field, *value)
		if err == nil {
			fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		reg, err = validateRegistry(*validatePath)
		if err == nil {
			fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		reg, err = registry.LoadRegistry(*listPath)
		if err == nil {
			for _, a := range reg.Activities {
				fmt.Printf("%-20s %-12s %-12s %s\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout)
			}
		}

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func addActivity(path string, activity registry.Activity) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	}

	for _, existing := range reg.Activities {
		if existing.ID == activity.ID || existing.TaskType == activity.TaskType {
			return fmt.Errorf("activity %s already exists", activity.ID)
		}
	}
	if _, err := activity.TimeoutDuration(); err != nil {
		return fmt.Errorf("invalid timeout %q: %w", activity.Timeout, err)
	}

	reg.Activities = append(reg.Activities, activity)
	return saveRegistry(reg, path)
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	idx := -1
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	a := &reg.Activities[idx]
	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return saveRegistry(reg, path)
}

// validateRegistry runs the loader checks plus the fields the worker needs.
func validateRegistry(path string) (*registry.ActivityRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	if len(reg.Activities) == 0 {
		return nil, fmt.Errorf("registry contains no activities")
	}

	for _, a := range reg.Activities {
		if a.DisplayName == "" {
			return nil, fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return nil, fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if _, err := a.TimeoutDuration(); err != nil {
			return nil, fmt.Errorf("activity %s has invalid timeout: %w", a.ID, err)
		}
	}
	return reg, nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().Format("2006-01-02")

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if _, err := registry.Parse(data); err != nil {
		return err
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  add       Add a new activity to the registry
  update    Update an existing activity's field
  validate  Validate the registry file
  list      Print task types with category, status and timeout
  help      Show this help message

Examples:
  registry-updater add -id estimate-deadline -displayName "Estimate Deadline" -category scoring
  registry-updater update -id evaluate-goal -field timeout -value 15s
  registry-updater validate -path pkg/registry/activities.json`)
}
